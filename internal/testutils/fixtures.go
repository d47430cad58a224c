// Package testutils provides shared helpers for repository and service tests.
package testutils

import (
	"time"

	"github.com/islandseek/engine/internal/domain/game"
)

// CreateTestRoom creates a waiting simulation room with fixed beast squares.
func CreateTestRoom(id, name, hostID string) *game.Room {
	return &game.Room{
		ID:           id,
		Name:         name,
		HostID:       hostID,
		Mode:         game.ModeSimulation,
		Status:       game.RoomStatusWaiting,
		BeastSquare1: "c6",
		BeastSquare2: "h4",
		CreatedAt:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

// CreateTestSeeker creates an active Seeker session with full water.
func CreateTestSeeker(playerID, roomID, team, location string, spirit game.SpiritClass, now time.Time) *game.PlayerSession {
	return &game.PlayerSession{
		ID:               "state-" + playerID,
		PlayerID:         playerID,
		RoomID:           roomID,
		Team:             team,
		Role:             game.RoleSeeker,
		Name:             playerID,
		Status:           game.StatusActive,
		Water:            game.MaxWater,
		Location:         location,
		LastActionTime:   now,
		LastActivityTime: now,
		SpiritClass:      spirit,
		Budgets:          game.NewTurnBudgets(now),
	}
}

// CreateTestHider creates an active Hider session with full water.
func CreateTestHider(playerID, roomID, team, location string, now time.Time) *game.PlayerSession {
	state := CreateTestSeeker(playerID, roomID, team, location, "", now)
	state.Role = game.RoleHider
	return state
}
