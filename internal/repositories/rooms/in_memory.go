package rooms

import (
	"context"
	"fmt"
	"sync"

	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
)

type inMemoryRepository struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room
	locks map[string]bool
}

// NewInMemoryRepository creates an in-memory room repository.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		rooms: make(map[string]*game.Room),
		locks: make(map[string]bool),
	}
}

func (r *inMemoryRepository) Create(_ context.Context, room *game.Room) error {
	if room == nil {
		return fmt.Errorf("room cannot be nil")
	}
	if room.ID == "" {
		return fmt.Errorf("room ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *room
	r.rooms[room.ID] = &copied
	return nil
}

func (r *inMemoryRepository) Get(_ context.Context, id string) (*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, engerr.NotFoundf("room %s not found", id)
	}

	copied := *room
	return &copied, nil
}

func (r *inMemoryRepository) Update(_ context.Context, room *game.Room) error {
	if room == nil {
		return fmt.Errorf("room cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *room
	r.rooms[room.ID] = &copied
	return nil
}

func (r *inMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, id)
	return nil
}

func (r *inMemoryRepository) List(_ context.Context) ([]*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*game.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		copied := *room
		result = append(result, &copied)
	}
	return result, nil
}

func (r *inMemoryRepository) Lock(_ context.Context, id string) (UnlockFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locks[id] {
		return nil, engerr.Conflict("room is busy, try again")
	}
	r.locks[id] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.locks, id)
		})
	}, nil
}
