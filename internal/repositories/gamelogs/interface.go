package gamelogs

//go:generate mockgen -destination=mock/mock_repository.go -package=mockgamelogs -source=interface.go

import (
	"context"
	"time"

	"github.com/islandseek/engine/internal/domain/game"
)

// Query filters a room's log events. Zero values mean "no constraint".
type Query struct {
	RoomID     string
	Team       string
	PlayerID   string
	Visibility game.Visibility
	Since      time.Time
	Limit      int
}

// Repository is the append-only log event sink.
type Repository interface {
	// Append stores one event.
	Append(ctx context.Context, event *game.LogEvent) error

	// AppendMany stores several events in one atomic commit.
	AppendMany(ctx context.Context, events []*game.LogEvent) error

	// List returns matching events, newest first.
	List(ctx context.Context, q *Query) ([]*game.LogEvent, error)

	// DeleteByRoom purges every event of a room.
	DeleteByRoom(ctx context.Context, roomID string) error
}
