package timezone

import (
	"sync"
	"time"

	"cleanbook/config"
	"cleanbook/shared/constant"

	"github.com/rs/zerolog/log"
)

var (
	mu       sync.RWMutex
	location *time.Location
)

func load() *time.Location {
	name := config.Get().App.Timezone
	if name == "" {
		log.Warn().Msg("No timezone configured, using UTC as default")

		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Error().Err(err).Str("timezone", name).Msg("Failed to load timezone, falling back to UTC")

		return time.UTC
	}

	log.Info().Str("timezone", loc.String()).Msg("Application timezone initialized")

	return loc
}

// GetLocation returns the application location, loading it from config on first call.
func GetLocation() *time.Location {
	mu.RLock()
	loc := location
	mu.RUnlock()

	if loc != nil {
		return loc
	}

	mu.Lock()
	defer mu.Unlock()

	if location == nil {
		location = load()
	}

	return location
}

// SetLocation overrides the application location.
func SetLocation(loc *time.Location) {
	mu.Lock()
	defer mu.Unlock()

	location = loc
}

func Now() time.Time {
	return time.Now().In(GetLocation())
}

func ToAppTime(t time.Time) time.Time {
	return t.In(GetLocation())
}

// Parse reads value as a wall clock time in the application location.
func Parse(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, GetLocation())
}

// ParseSlot joins a YYYY-MM-DD date with an HH:MM clock time.
func ParseSlot(date, clock string) (time.Time, error) {
	return Parse(constant.DateOnlyFormat+" "+constant.ClockFormat, date+" "+clock)
}

func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}
