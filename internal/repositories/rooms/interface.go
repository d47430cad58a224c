package rooms

//go:generate mockgen -destination=mock/mock_repository.go -package=mockrooms -source=interface.go

import (
	"context"

	"github.com/islandseek/engine/internal/domain/game"
)

// UnlockFunc releases an exclusive room lock.
type UnlockFunc func()

// Repository stores rooms. Room-level fields change rarely (daily spawns, host
// toggles) but two lazy spawns racing would double-consume the random pool, so
// mutations go through the same exclusive-lock discipline as sessions.
type Repository interface {
	Create(ctx context.Context, room *game.Room) error
	Get(ctx context.Context, id string) (*game.Room, error)
	Update(ctx context.Context, room *game.Room) error
	Delete(ctx context.Context, id string) error

	// List retrieves all rooms.
	List(ctx context.Context) ([]*game.Room, error)

	// Lock acquires the exclusive room-update lock.
	Lock(ctx context.Context, id string) (UnlockFunc, error)
}
