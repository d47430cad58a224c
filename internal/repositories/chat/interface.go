package chat

//go:generate mockgen -destination=mock/mock_repository.go -package=mockchat -source=interface.go

import (
	"context"

	"github.com/islandseek/engine/internal/domain/game"
)

// Repository stores room chat messages.
type Repository interface {
	// Append stores one message.
	Append(ctx context.Context, msg *game.ChatMessage) error

	// ListGlobal returns a room's global-scope messages, newest first.
	ListGlobal(ctx context.Context, roomID string, limit int) ([]*game.ChatMessage, error)

	// ListTeam returns a room's team-scope messages for one team, newest first.
	ListTeam(ctx context.Context, roomID, team string, limit int) ([]*game.ChatMessage, error)

	// DeleteByRoom purges every message of a room.
	DeleteByRoom(ctx context.Context, roomID string) error
}
