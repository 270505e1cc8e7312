package models

import (
	"time"

	"github.com/rs/zerolog/log"
)

// homeLocation is the fixed timezone all server-assigned timestamps are recorded in.
var homeLocation = loadLocation("Europe/Prague")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("zone", name).Msg("falling back to UTC")
		return time.UTC
	}

	return loc
}

// Now returns the current time in the home timezone.
func Now() time.Time {
	return time.Now().In(homeLocation)
}

// Today returns the current calendar date (midnight) in the home timezone.
func Today() time.Time {
	now := Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
