// Package clock provides the engine's time abstraction and the fixed-offset
// game-day arithmetic every lazy time effect is anchored to.
package clock

import "time"

//go:generate mockgen -destination=mocks/mock_time_provider.go -package=mocks github.com/islandseek/engine/internal/clock TimeProvider

// TimeProvider returns the current instant. Injected so tests can control time.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using the system clock.
type RealTimeProvider struct{}

// Now returns the current UTC instant.
func (p *RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// NewRealTimeProvider creates a RealTimeProvider.
func NewRealTimeProvider() *RealTimeProvider {
	return &RealTimeProvider{}
}

// The game day is anchored to a fixed UTC+7 offset, not a tz database zone.
// Persisted reset instants were written against this offset, so it stays fixed.
var gameZone = time.FixedZone("UTC+7", 7*3600)

// GameTime converts an instant to game-local wall clock time.
func GameTime(t time.Time) time.Time {
	return t.In(gameZone)
}

// GameDate returns the game-local calendar date of an instant, at midnight
// game-local time. Comparable with Before/Equal.
func GameDate(t time.Time) time.Time {
	local := t.In(gameZone)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, gameZone)
}

// SameGameDay reports whether two instants fall on the same game-local date.
func SameGameDay(a, b time.Time) bool {
	return GameDate(a).Equal(GameDate(b))
}

// DayAdvanced reports whether now is on a later game-local date than last.
func DayAdvanced(last, now time.Time) bool {
	return GameDate(last).Before(GameDate(now))
}

const (
	eveningWindowStartHour = 20
	eveningWindowEndHour   = 22

	daytimeStartHour = 7
	daytimeEndHour   = 22
)

// InEveningWindow reports whether an instant falls inside the 20:00-22:00
// game-local window used for the special herb roll and the bad-water cell.
func InEveningWindow(t time.Time) bool {
	h := GameTime(t).Hour()
	return h >= eveningWindowStartHour && h < eveningWindowEndHour
}

// MinuteInEveningWindow returns the number of minutes elapsed since the start
// of the evening window. Only meaningful when InEveningWindow is true.
func MinuteInEveningWindow(t time.Time) int {
	local := GameTime(t)
	return (local.Hour()-eveningWindowStartHour)*60 + local.Minute()
}

// InDaytime reports whether an instant falls inside 07:00-22:00 game-local.
// Outside this range every jungle square is beast territory.
func InDaytime(t time.Time) bool {
	h := GameTime(t).Hour()
	return h >= daytimeStartHour && h < daytimeEndHour
}
