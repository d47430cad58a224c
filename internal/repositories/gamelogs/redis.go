package gamelogs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/islandseek/engine/internal/domain/game"
	"github.com/islandseek/engine/internal/uuid"
)

const (
	roomLogsKey = "room:%s:logs"

	// events scanned per List call; filters apply on top
	scanWindow = 500
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

// NewRedisRepository creates a Redis-backed log repository. Events live in a
// per-room list, newest first.
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

func (r *redisRepository) Append(ctx context.Context, event *game.LogEvent) error {
	return r.AppendMany(ctx, []*game.LogEvent{event})
}

func (r *redisRepository) AppendMany(ctx context.Context, events []*game.LogEvent) error {
	if len(events) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, event := range events {
		if event.ID == "" {
			event.ID = r.uuidGenerator.New()
		}
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal log event: %w", err)
		}
		pipe.LPush(ctx, fmt.Sprintf(roomLogsKey, event.RoomID), data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append log events: %w", err)
	}
	return nil
}

func (r *redisRepository) List(ctx context.Context, q *Query) ([]*game.LogEvent, error) {
	raw, err := r.client.LRange(ctx, fmt.Sprintf(roomLogsKey, q.RoomID), 0, scanWindow-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read log events: %w", err)
	}

	var result []*game.LogEvent
	for _, item := range raw {
		var event game.LogEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log event: %w", err)
		}
		if !matches(&event, q) {
			continue
		}
		result = append(result, &event)
		if q.Limit > 0 && len(result) >= q.Limit {
			break
		}
	}
	return result, nil
}

func matches(event *game.LogEvent, q *Query) bool {
	if q.Team != "" && event.Team != q.Team {
		return false
	}
	if q.PlayerID != "" && event.PlayerID != q.PlayerID {
		return false
	}
	if q.Visibility != "" && event.Visibility != q.Visibility {
		return false
	}
	if !q.Since.IsZero() && event.Timestamp.Before(q.Since) {
		return false
	}
	return true
}

func (r *redisRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	if err := r.client.Del(ctx, fmt.Sprintf(roomLogsKey, roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete room logs: %w", err)
	}
	return nil
}
