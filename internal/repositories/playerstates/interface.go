package playerstates

//go:generate mockgen -destination=mock/mock_repository.go -package=mockplayerstates -source=interface.go

import (
	"context"

	"github.com/islandseek/engine/internal/domain/game"
)

// UnlockFunc releases an exclusive session lock. Safe to call once.
type UnlockFunc func()

// Repository stores one PlayerSession per player, keyed by player ID, with
// exclusive-fetch semantics: Lock serializes concurrent actions on the same
// session for the duration of one resolver call.
type Repository interface {
	// Create stores a new session; the player must not already have one.
	Create(ctx context.Context, state *game.PlayerSession) error

	// Get retrieves a session by player ID.
	Get(ctx context.Context, playerID string) (*game.PlayerSession, error)

	// Update persists a mutated session.
	Update(ctx context.Context, state *game.PlayerSession) error

	// UpdateMany persists several mutated sessions in one atomic commit.
	UpdateMany(ctx context.Context, states []*game.PlayerSession) error

	// Delete removes a session.
	Delete(ctx context.Context, playerID string) error

	// ListByRoom retrieves every session in a room.
	ListByRoom(ctx context.Context, roomID string) ([]*game.PlayerSession, error)

	// DeleteByRoom removes every session in a room.
	DeleteByRoom(ctx context.Context, roomID string) error

	// Lock acquires the exclusive per-player action lock. Returns
	// CodeConflict when another action holds it.
	Lock(ctx context.Context, playerID string) (UnlockFunc, error)
}
