package game

import (
	"time"

	"github.com/islandseek/engine/internal/clock"
	"github.com/islandseek/engine/internal/geo"
)

// WaterDecay returns how much water the session lost between its last decay
// anchor and now. Thirst runs at DecayPerHour, tripled for a Seeker camped on
// the bad-water cell through the evening window after 15 idle minutes.
// Gamemasters do not thirst.
func WaterDecay(s *PlayerSession, now time.Time) float64 {
	if s.Role == RoleGamemaster {
		return 0
	}

	elapsed := now.Sub(s.LastActionTime)
	if elapsed <= 0 {
		return 0
	}

	multiplier := 1.0
	if s.Role == RoleSeeker && s.Location == geo.BadWaterToken && clock.InEveningWindow(now) {
		idle := now.Sub(s.LastActivityTime)
		if idle > BadWaterIdleMinutes*time.Minute {
			multiplier = BadWaterMultiplier
		}
	}

	return elapsed.Hours() * DecayPerHour * multiplier
}
