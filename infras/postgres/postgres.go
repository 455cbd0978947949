package postgres

import (
	"net"
	"net/url"
	"time"

	"cleanbook/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" //nolint:revive
	"github.com/rs/zerolog/log"
)

const driverName = "postgres"

// Connection splits reads from writes. Both point at the same database unless a replica
// is configured under DB_POSTGRES_READ.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

// Endpoint is one side of the read/write pair.
type Endpoint struct {
	Name     string
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
	Timezone string
}

func New(cfg *config.Config) *Connection {
	pg := cfg.DB.Postgres

	read := Endpoint{
		Name:     "read",
		Host:     pg.Read.Host,
		Port:     pg.Read.Port,
		Username: pg.Read.Username,
		Password: pg.Read.Password,
		Database: DatabaseName(cfg, pg.Read.Name),
		SSLMode:  pg.Read.SSLMode,
		Timezone: pg.Read.Timezone,
	}

	write := Endpoint{
		Name:     "write",
		Host:     pg.Write.Host,
		Port:     pg.Write.Port,
		Username: pg.Write.Username,
		Password: pg.Write.Password,
		Database: DatabaseName(cfg, pg.Write.Name),
		SSLMode:  pg.Write.SSLMode,
		Timezone: pg.Write.Timezone,
	}

	return &Connection{
		Read:  Connect(cfg, read),
		Write: Connect(cfg, write),
	}
}

// DatabaseName applies the configured prefix, used to isolate test databases.
func DatabaseName(cfg *config.Config, baseName string) string {
	return cfg.DB.Postgres.Prefix + baseName
}

func (e Endpoint) DSN() string {
	query := url.Values{}
	if e.SSLMode != "" {
		query.Set("sslmode", e.SSLMode)
	}

	if e.Timezone != "" {
		query.Set("timezone", e.Timezone)
	}

	dsn := url.URL{
		Scheme:   driverName,
		User:     url.UserPassword(e.Username, e.Password),
		Host:     net.JoinHostPort(e.Host, e.Port),
		Path:     "/" + e.Database,
		RawQuery: query.Encode(),
	}

	return dsn.String()
}

// Connect retries MAX_RETRY times, at least once, and exits the process when the
// database never answers.
func Connect(cfg *config.Config, endpoint Endpoint) *sqlx.DB {
	pg := cfg.DB.Postgres
	attempts := max(pg.MaxRetry, 1)

	logger := log.With().
		Str("name", endpoint.Name).
		Str("host", endpoint.Host).
		Str("port", endpoint.Port).
		Str("database", endpoint.Database).
		Logger()

	var lastErr error

	for attempt := range attempts {
		db, err := sqlx.Connect(driverName, endpoint.DSN())
		if err == nil {
			db.SetMaxOpenConns(pg.Pool.MaxOpen)
			db.SetMaxIdleConns(pg.Pool.MaxIdle)
			db.SetConnMaxLifetime(time.Duration(pg.Pool.LifetimeMinutes) * time.Minute)

			logger.Info().Msg("Connected to database")

			return db
		}

		lastErr = err

		logger.Error().Err(err).Int("attempt", attempt+1).Msg("Failed connecting to database, retrying")

		time.Sleep(time.Duration(pg.RetryWaitTime) * time.Second)
	}

	logger.Fatal().Err(lastErr).Int("attempts", attempts).Msg("Giving up connecting to database")

	return nil
}
