package game

import (
	"time"

	"github.com/islandseek/engine/internal/clock"
)

// TurnBudgets are the per-day ability counters. They are plain stored values;
// RollBudgets must be applied before any read or write so a day rollover is
// never missed.
type TurnBudgets struct {
	Search    int `json:"search_turns_left"`
	Gather    int `json:"gather_turns_left"`
	TakeWater int `json:"take_water_turns_left"`
	Detect    int `json:"detect_turns_left"`

	// GatheredPurifierToday guards the once-per-day purifier herb.
	GatheredPurifierToday bool `json:"gathered_seawater_today"`

	LastReset time.Time `json:"last_detect_reset"`
}

// NewTurnBudgets returns the base daily budgets anchored at now.
func NewTurnBudgets(now time.Time) TurnBudgets {
	return TurnBudgets{
		Search:    BaseSearchTurns,
		Gather:    BaseGatherTurns,
		TakeWater: BaseTakeWaterTurns,
		Detect:    BaseDetectTurns,
		LastReset: now,
	}
}

// RollBudgets returns the budgets rolled forward to now: if the game-local
// date advanced since LastReset, every counter returns to its base value and
// the daily flags clear. Idempotent within one game day. A pure function of
// (stored, now); the second return reports whether a reset happened.
func RollBudgets(stored TurnBudgets, now time.Time) (TurnBudgets, bool) {
	if stored.LastReset.IsZero() {
		stored.LastReset = now
		return stored, false
	}
	if !clock.DayAdvanced(stored.LastReset, now) {
		return stored, false
	}
	return TurnBudgets{
		Search:    BaseSearchTurns,
		Gather:    BaseGatherTurns,
		TakeWater: BaseTakeWaterTurns,
		Detect:    BaseDetectTurns,
		LastReset: now,
	}, true
}
