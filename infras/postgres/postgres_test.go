package postgres_test

import (
	"net/url"
	"testing"

	"cleanbook/config"
	"cleanbook/infras/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint_DSN(t *testing.T) {
	endpoint := postgres.Endpoint{
		Host:     "db.internal",
		Port:     "5432",
		Username: "app",
		Password: "p@ss:word",
		Database: "cleanbook",
		SSLMode:  "require",
		Timezone: "Asia/Jakarta",
	}

	parsed, err := url.Parse(endpoint.DSN())
	require.NoError(t, err)

	password, _ := parsed.User.Password()

	assert.Equal(t, "postgres", parsed.Scheme)
	assert.Equal(t, "app", parsed.User.Username())
	assert.Equal(t, "p@ss:word", password)
	assert.Equal(t, "db.internal:5432", parsed.Host)
	assert.Equal(t, "/cleanbook", parsed.Path)
	assert.Equal(t, "require", parsed.Query().Get("sslmode"))
	assert.Equal(t, "Asia/Jakarta", parsed.Query().Get("timezone"))
}

func TestEndpoint_DSNOmitsEmptyOptions(t *testing.T) {
	endpoint := postgres.Endpoint{Host: "localhost", Port: "5432", Database: "cleanbook"}

	parsed, err := url.Parse(endpoint.DSN())
	require.NoError(t, err)

	assert.Empty(t, parsed.RawQuery)
}

func TestDatabaseName(t *testing.T) {
	cfg := &config.Config{}

	assert.Equal(t, "cleanbook", postgres.DatabaseName(cfg, "cleanbook"))

	cfg.DB.Postgres.Prefix = "test_"

	assert.Equal(t, "test_cleanbook", postgres.DatabaseName(cfg, "cleanbook"))
}
