package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/islandseek/engine/internal/domain/game"
	"github.com/islandseek/engine/internal/uuid"
)

const (
	roomChatKey = "room:%s:chat"
	scanWindow  = 500
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client        redis.UniversalClient
	UUIDGenerator uuid.Generator
}

type redisRepository struct {
	client        redis.UniversalClient
	uuidGenerator uuid.Generator
}

// NewRedisRepository creates a Redis-backed chat repository.
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	gen := cfg.UUIDGenerator
	if gen == nil {
		gen = uuid.NewGoogleUUIDGenerator()
	}

	return &redisRepository{
		client:        cfg.Client,
		uuidGenerator: gen,
	}
}

func (r *redisRepository) Append(ctx context.Context, msg *game.ChatMessage) error {
	if msg == nil {
		return fmt.Errorf("chat message cannot be nil")
	}
	if msg.ID == "" {
		msg.ID = r.uuidGenerator.New()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}
	if err := r.client.LPush(ctx, fmt.Sprintf(roomChatKey, msg.RoomID), data).Err(); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (r *redisRepository) list(ctx context.Context, roomID string, limit int, keep func(*game.ChatMessage) bool) ([]*game.ChatMessage, error) {
	raw, err := r.client.LRange(ctx, fmt.Sprintf(roomChatKey, roomID), 0, scanWindow-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat messages: %w", err)
	}

	var result []*game.ChatMessage
	for _, item := range raw {
		var msg game.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %w", err)
		}
		if !keep(&msg) {
			continue
		}
		result = append(result, &msg)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *redisRepository) ListGlobal(ctx context.Context, roomID string, limit int) ([]*game.ChatMessage, error) {
	return r.list(ctx, roomID, limit, func(m *game.ChatMessage) bool {
		return m.Scope == game.ChatScopeGlobal
	})
}

func (r *redisRepository) ListTeam(ctx context.Context, roomID, team string, limit int) ([]*game.ChatMessage, error) {
	return r.list(ctx, roomID, limit, func(m *game.ChatMessage) bool {
		return m.Scope == game.ChatScopeTeam && m.Team == team
	})
}

func (r *redisRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	if err := r.client.Del(ctx, fmt.Sprintf(roomChatKey, roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete room chat: %w", err)
	}
	return nil
}
