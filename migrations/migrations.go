// Package migrations ships the schema with the binary so the migrate command and
// auto-migrate on startup do not depend on the working directory.
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS

const PostgresDir = "postgres"
