package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/islandseek/engine/internal/domain/game"
	"github.com/islandseek/engine/internal/uuid"
)

type inMemoryRepository struct {
	mu            sync.RWMutex
	byRoom        map[string][]*game.ChatMessage // newest first
	uuidGenerator uuid.Generator
}

// NewInMemoryRepository creates an in-memory chat repository.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		byRoom:        make(map[string][]*game.ChatMessage),
		uuidGenerator: uuid.NewGoogleUUIDGenerator(),
	}
}

func (r *inMemoryRepository) Append(_ context.Context, msg *game.ChatMessage) error {
	if msg == nil {
		return fmt.Errorf("chat message cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = r.uuidGenerator.New()
	}
	copied := *msg
	r.byRoom[msg.RoomID] = append([]*game.ChatMessage{&copied}, r.byRoom[msg.RoomID]...)
	return nil
}

func (r *inMemoryRepository) list(roomID string, limit int, keep func(*game.ChatMessage) bool) []*game.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*game.ChatMessage
	for _, msg := range r.byRoom[roomID] {
		if !keep(msg) {
			continue
		}
		copied := *msg
		result = append(result, &copied)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

func (r *inMemoryRepository) ListGlobal(_ context.Context, roomID string, limit int) ([]*game.ChatMessage, error) {
	return r.list(roomID, limit, func(m *game.ChatMessage) bool {
		return m.Scope == game.ChatScopeGlobal
	}), nil
}

func (r *inMemoryRepository) ListTeam(_ context.Context, roomID, team string, limit int) ([]*game.ChatMessage, error) {
	return r.list(roomID, limit, func(m *game.ChatMessage) bool {
		return m.Scope == game.ChatScopeTeam && m.Team == team
	}), nil
}

func (r *inMemoryRepository) DeleteByRoom(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byRoom, roomID)
	return nil
}
