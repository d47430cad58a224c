package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
	"github.com/islandseek/engine/internal/uuid"
)

const (
	roomKeyPrefix = "room:"
	roomsIndexKey = "rooms"

	lockTTL        = 30 * time.Second
	lockRetries    = 3
	lockRetryDelay = 50 * time.Millisecond
)

var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client        redis.UniversalClient
	UUIDGenerator uuid.Generator
}

type redisRepository struct {
	client        redis.UniversalClient
	uuidGenerator uuid.Generator
}

// NewRedisRepository creates a Redis-backed room repository.
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

func roomKey(id string) string {
	return roomKeyPrefix + id
}

func (r *redisRepository) Create(ctx context.Context, room *game.Room) error {
	if room == nil {
		return fmt.Errorf("room cannot be nil")
	}
	if room.ID == "" {
		return fmt.Errorf("room ID cannot be empty")
	}
	return r.set(ctx, room)
}

func (r *redisRepository) set(ctx context.Context, room *game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.ID), data, 0)
	pipe.SAdd(ctx, roomsIndexKey, room.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store room: %w", err)
	}
	return nil
}

func (r *redisRepository) Get(ctx context.Context, id string) (*game.Room, error) {
	data, err := r.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, engerr.NotFoundf("room %s not found", id)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}

func (r *redisRepository) Update(ctx context.Context, room *game.Room) error {
	if room == nil {
		return fmt.Errorf("room cannot be nil")
	}
	return r.set(ctx, room)
}

func (r *redisRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.SRem(ctx, roomsIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}

func (r *redisRepository) List(ctx context.Context) ([]*game.Room, error) {
	ids, err := r.client.SMembers(ctx, roomsIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	roomsByIdx := make([]*game.Room, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			room, err := r.Get(ctx, id)
			if err != nil {
				if engerr.IsNotFound(err) {
					return nil
				}
				return err
			}
			roomsByIdx[i] = room
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]*game.Room, 0, len(roomsByIdx))
	for _, room := range roomsByIdx {
		if room != nil {
			result = append(result, room)
		}
	}
	return result, nil
}

func (r *redisRepository) Lock(ctx context.Context, id string) (UnlockFunc, error) {
	key := roomKey(id) + ":lock"
	token := r.uuidGenerator.New()

	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := r.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire room lock: %w", err)
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = releaseLockScript.Run(releaseCtx, r.client, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	return nil, engerr.Conflict("room is busy, try again")
}
