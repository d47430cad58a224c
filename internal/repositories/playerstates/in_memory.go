package playerstates

import (
	"context"
	"fmt"
	"sync"

	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage
type inMemoryRepository struct {
	mu     sync.RWMutex
	states map[string]*game.PlayerSession
	locks  map[string]bool
}

// NewInMemoryRepository creates an in-memory player state repository.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		states: make(map[string]*game.PlayerSession),
		locks:  make(map[string]bool),
	}
}

func (r *inMemoryRepository) Create(_ context.Context, state *game.PlayerSession) error {
	if state == nil {
		return fmt.Errorf("player state cannot be nil")
	}
	if state.PlayerID == "" {
		return fmt.Errorf("player ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.states[state.PlayerID]; exists {
		return engerr.PreconditionFailedf("player %s already has a session", state.PlayerID)
	}

	copied := *state
	r.states[state.PlayerID] = &copied
	return nil
}

func (r *inMemoryRepository) Get(_ context.Context, playerID string) (*game.PlayerSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.states[playerID]
	if !exists {
		return nil, engerr.NotFoundf("no session for player %s", playerID)
	}

	copied := *state
	return &copied, nil
}

func (r *inMemoryRepository) Update(_ context.Context, state *game.PlayerSession) error {
	if state == nil {
		return fmt.Errorf("player state cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *state
	r.states[state.PlayerID] = &copied
	return nil
}

func (r *inMemoryRepository) UpdateMany(_ context.Context, states []*game.PlayerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, state := range states {
		copied := *state
		r.states[state.PlayerID] = &copied
	}
	return nil
}

func (r *inMemoryRepository) Delete(_ context.Context, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.states[playerID]; !exists {
		return engerr.NotFoundf("no session for player %s", playerID)
	}
	delete(r.states, playerID)
	return nil
}

func (r *inMemoryRepository) ListByRoom(_ context.Context, roomID string) ([]*game.PlayerSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*game.PlayerSession
	for _, state := range r.states {
		if state.RoomID == roomID {
			copied := *state
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *inMemoryRepository) DeleteByRoom(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, state := range r.states {
		if state.RoomID == roomID {
			delete(r.states, id)
		}
	}
	return nil
}

func (r *inMemoryRepository) Lock(_ context.Context, playerID string) (UnlockFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locks[playerID] {
		return nil, engerr.Conflict("another action is in progress, try again")
	}
	r.locks[playerID] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.locks, playerID)
		})
	}, nil
}
