package gamelogs

import (
	"context"
	"sync"

	"github.com/islandseek/engine/internal/domain/game"
	"github.com/islandseek/engine/internal/uuid"
)

type inMemoryRepository struct {
	mu            sync.RWMutex
	byRoom        map[string][]*game.LogEvent // newest first
	uuidGenerator uuid.Generator
}

// NewInMemoryRepository creates an in-memory log repository.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		byRoom:        make(map[string][]*game.LogEvent),
		uuidGenerator: uuid.NewGoogleUUIDGenerator(),
	}
}

func (r *inMemoryRepository) Append(ctx context.Context, event *game.LogEvent) error {
	return r.AppendMany(ctx, []*game.LogEvent{event})
}

func (r *inMemoryRepository) AppendMany(_ context.Context, events []*game.LogEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range events {
		if event.ID == "" {
			event.ID = r.uuidGenerator.New()
		}
		copied := *event
		r.byRoom[event.RoomID] = append([]*game.LogEvent{&copied}, r.byRoom[event.RoomID]...)
	}
	return nil
}

func (r *inMemoryRepository) List(_ context.Context, q *Query) ([]*game.LogEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*game.LogEvent
	for _, event := range r.byRoom[q.RoomID] {
		if !matches(event, q) {
			continue
		}
		copied := *event
		result = append(result, &copied)
		if q.Limit > 0 && len(result) >= q.Limit {
			break
		}
	}
	return result, nil
}

func (r *inMemoryRepository) DeleteByRoom(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byRoom, roomID)
	return nil
}
