package game

import (
	"time"
)

// PlayerSession is the authoritative per-player game state. One exists per
// player for the duration of their room membership; it is only mutated through
// the action resolver while exclusively locked.
//
// JSON field names follow the persisted schema and must not change.
type PlayerSession struct {
	ID       string `json:"id"`
	PlayerID string `json:"user_id"`
	RoomID   string `json:"room_id"`
	Team     string `json:"team"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`

	Status   Status  `json:"game_status"`
	Water    float64 `json:"current_water"`
	Location string  `json:"current_location"`

	LastActionTime   time.Time `json:"last_action_time"`
	LastActivityTime time.Time `json:"last_active_post_time"`

	// single-use item flags
	HasRemoteWater    bool `json:"has_remote_water"`
	HasTeleport       bool `json:"has_teleport"`
	HasTracked        bool `json:"has_tracked"`
	HasRevivalHerb    bool `json:"has_quynh_tam_thao"`
	HasBeastSight     bool `json:"has_ly_sau_thao"`
	HasDetectImmunity bool `json:"has_nhat_nguyet_thao"`
	HasUsedGambit     bool `json:"has_used_gambit"`
	HasPurifier       bool `json:"has_seawater_purifier"`
	HasTrapKit        bool `json:"has_u_tam_thao"`
	HasDisclosure     bool `json:"has_phan_thien_thao"`

	IsDetecting bool `json:"is_detecting"`

	Budgets TurnBudgets `json:"budgets"`

	TrapLocation string     `json:"active_trap_location,omitempty"`
	TrapSetAt    *time.Time `json:"active_trap_time,omitempty"`

	SpiritClass SpiritClass `json:"spirit_class,omitempty"`
	StunExpires *time.Time  `json:"stun_expires_at,omitempty"`
}

// IsActive reports whether the session can still act and be targeted.
func (s *PlayerSession) IsActive() bool {
	return s.Status == StatusActive
}

// IsStunned reports whether a combat stun is still in effect.
func (s *PlayerSession) IsStunned(now time.Time) bool {
	return s.StunExpires != nil && s.StunExpires.After(now)
}

// StunRemaining returns how long the stun still lasts, zero when unstunned.
func (s *PlayerSession) StunRemaining(now time.Time) time.Duration {
	if !s.IsStunned(now) {
		return 0
	}
	return s.StunExpires.Sub(now)
}

// TrapActiveAt reports whether the session's trap is armed at the given
// location. Traps expire after TrapLifetime.
func (s *PlayerSession) TrapActiveAt(location string, now time.Time) bool {
	if s.TrapLocation != location || s.TrapSetAt == nil {
		return false
	}
	return now.Sub(*s.TrapSetAt) < TrapLifetime
}

// TrapExpired reports whether a stored trap has outlived its lifetime.
func (s *PlayerSession) TrapExpired(now time.Time) bool {
	return s.TrapSetAt != nil && now.Sub(*s.TrapSetAt) >= TrapLifetime
}

// ClearTrap removes the stored trap.
func (s *PlayerSession) ClearTrap() {
	s.TrapLocation = ""
	s.TrapSetAt = nil
}

// MaxTransferable is how much water the session may give away, keeping the
// mandatory reserve.
func (s *PlayerSession) MaxTransferable() float64 {
	m := s.Water - TransferReserve
	if m < 0 {
		return 0
	}
	return m
}

// Touch records that the player performed a deliberate action now. Both the
// decay anchor and the activity anchor move.
func (s *PlayerSession) Touch(now time.Time) {
	s.LastActionTime = now
	s.LastActivityTime = now
}

// ClampWater clamps the stored water into [0, MaxWater] before persisting.
func (s *PlayerSession) ClampWater() {
	if s.Water < 0 {
		s.Water = 0
	}
	if s.Water > MaxWater {
		s.Water = MaxWater
	}
}
