// Package timezone pins every wall clock reading to the configured APP_TIMEZONE, so a
// booking slot like "2026-03-01 09:00" means the same instant to the API, the worker and
// the database. The location is loaded on first use; an unknown zone falls back to UTC.
package timezone
