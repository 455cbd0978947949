package timezone_test

import (
	"testing"
	"time"

	"cleanbook/shared/timezone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useLocation(t *testing.T, name string) *time.Location {
	t.Helper()

	loc, err := time.LoadLocation(name)
	require.NoError(t, err)

	previous := timezone.GetLocation()
	timezone.SetLocation(loc)
	t.Cleanup(func() { timezone.SetLocation(previous) })

	return loc
}

func TestParseSlot(t *testing.T) {
	loc := useLocation(t, "Asia/Jakarta")

	got, err := timezone.ParseSlot("2026-03-01", "09:30")
	require.NoError(t, err)

	assert.Equal(t, loc, got.Location())
	assert.Equal(t, time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC), got.UTC())

	_, err = timezone.ParseSlot("2026-03-01", "25:00")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	useLocation(t, "Asia/Jakarta")

	utc := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-02 03:00", timezone.Format(utc, "2006-01-02 15:04"))
}

func TestNow(t *testing.T) {
	loc := useLocation(t, "America/New_York")

	assert.Equal(t, loc, timezone.Now().Location())
	assert.WithinDuration(t, time.Now(), timezone.Now(), time.Second)
}
