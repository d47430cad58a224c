package game

import (
	"time"

	"github.com/islandseek/engine/internal/clock"
)

// Room is the shared per-room state the resolver consults: the daily herb
// spawn, the beast squares, and the violence toggle.
type Room struct {
	ID     string     `json:"id"`
	Name   string     `json:"room_name"`
	HostID string     `json:"host_id"`
	Mode   RoomMode   `json:"mode"`
	Status RoomStatus `json:"status"`

	ViolenceEnabled bool `json:"violence_enabled"`

	// two main squares drawn without replacement from the jungle pool
	BeastSquare1 string `json:"beast_square_1"`
	BeastSquare2 string `json:"beast_square_2"`

	// daily herb spawn bookkeeping, keyed by location token
	HerbSpawnDate *time.Time          `json:"daily_herb_spawn_date,omitempty"`
	HerbMap       map[string]HerbKind `json:"daily_herb_mapping,omitempty"`

	// special evening herb roll
	SpecialHerbDay    *time.Time `json:"tram_tuong_herb_day,omitempty"`
	SpecialHerbMinute *int       `json:"tram_tuong_herb_minute,omitempty"`

	CreatedAt time.Time `json:"date_created"`
}

// NeedsHerbSpawn reports whether today's herb map has not been rolled yet.
func (r *Room) NeedsHerbSpawn(now time.Time) bool {
	return r.HerbSpawnDate == nil || !clock.SameGameDay(*r.HerbSpawnDate, now)
}

// NeedsSpecialHerbRoll reports whether tonight's special herb minute has not
// been rolled. Only meaningful inside the evening window.
func (r *Room) NeedsSpecialHerbRoll(now time.Time) bool {
	return r.SpecialHerbDay == nil || !clock.SameGameDay(*r.SpecialHerbDay, now)
}

// SpecialHerbAvailable reports whether the special evening herb has appeared:
// the current game-local time is inside the window and past the rolled minute.
func (r *Room) SpecialHerbAvailable(now time.Time) bool {
	if !clock.InEveningWindow(now) || r.SpecialHerbMinute == nil {
		return false
	}
	if r.SpecialHerbDay == nil || !clock.SameGameDay(*r.SpecialHerbDay, now) {
		return false
	}
	return clock.MinuteInEveningWindow(now) >= *r.SpecialHerbMinute
}

// BeastSquares returns the active beast zones at the given instant. Outside
// daytime hours every jungle square is infested.
func (r *Room) BeastSquares(now time.Time, jungle []string) []string {
	if !clock.InDaytime(now) {
		return jungle
	}
	squares := make([]string, 0, 2)
	if r.BeastSquare1 != "" {
		squares = append(squares, r.BeastSquare1)
	}
	if r.BeastSquare2 != "" {
		squares = append(squares, r.BeastSquare2)
	}
	return squares
}
