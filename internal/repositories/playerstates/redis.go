package playerstates

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
	stateKeyPrefix = "player_state:"
	roomPlayersKey = "room:%s:players"
	lockKeySuffix  = ":lock"

	// a lock outliving its action is reclaimed after this TTL
	lockTTL = 30 * time.Second

	lockRetries    = 3
	lockRetryDelay = 50 * time.Millisecond
)

// releaseLockScript deletes the lock only if the caller still owns it.
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

// NewRedisRepository creates a Redis-backed player state repository.
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

func stateKey(playerID string) string {
	return stateKeyPrefix + playerID
}

func (r *redisRepository) Create(ctx context.Context, state *game.PlayerSession) error {
	if state == nil {
		return fmt.Errorf("player state cannot be nil")
	}
	if state.PlayerID == "" {
		return fmt.Errorf("player ID cannot be empty")
	}

	exists, err := r.client.Exists(ctx, stateKey(state.PlayerID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check player state: %w", err)
	}
	if exists > 0 {
		return engerr.PreconditionFailedf("player %s already has a session", state.PlayerID)
	}

	return r.set(ctx, state)
}

func (r *redisRepository) set(ctx context.Context, state *game.PlayerSession) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal player state: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, stateKey(state.PlayerID), data, 0)
	pipe.SAdd(ctx, fmt.Sprintf(roomPlayersKey, state.RoomID), state.PlayerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store player state: %w", err)
	}
	return nil
}

func (r *redisRepository) Get(ctx context.Context, playerID string) (*game.PlayerSession, error) {
	data, err := r.client.Get(ctx, stateKey(playerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, engerr.NotFoundf("no session for player %s", playerID)
		}
		return nil, fmt.Errorf("failed to get player state: %w", err)
	}

	var state game.PlayerSession
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player state: %w", err)
	}
	return &state, nil
}

func (r *redisRepository) Update(ctx context.Context, state *game.PlayerSession) error {
	if state == nil {
		return fmt.Errorf("player state cannot be nil")
	}
	return r.set(ctx, state)
}

func (r *redisRepository) UpdateMany(ctx context.Context, states []*game.PlayerSession) error {
	pipe := r.client.TxPipeline()
	for _, state := range states {
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal player state: %w", err)
		}
		pipe.Set(ctx, stateKey(state.PlayerID), data, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to commit player states: %w", err)
	}
	return nil
}

func (r *redisRepository) Delete(ctx context.Context, playerID string) error {
	state, err := r.Get(ctx, playerID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, stateKey(playerID))
	pipe.SRem(ctx, fmt.Sprintf(roomPlayersKey, state.RoomID), playerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete player state: %w", err)
	}
	return nil
}

func (r *redisRepository) ListByRoom(ctx context.Context, roomID string) ([]*game.PlayerSession, error) {
	playerIDs, err := r.client.SMembers(ctx, fmt.Sprintf(roomPlayersKey, roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list room players: %w", err)
	}

	states := make([]*game.PlayerSession, len(playerIDs))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range playerIDs {
		i, id := i, id
		g.Go(func() error {
			state, err := r.Get(ctx, id)
			if err != nil {
				// the index can briefly point at a deleted session
				if engerr.IsNotFound(err) {
					return nil
				}
				return err
			}
			states[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]*game.PlayerSession, 0, len(states))
	for _, s := range states {
		if s != nil {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *redisRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	indexKey := fmt.Sprintf(roomPlayersKey, roomID)
	playerIDs, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list room players: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, id := range playerIDs {
		pipe.Del(ctx, stateKey(id))
	}
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete room players: %w", err)
	}
	return nil
}

func (r *redisRepository) Lock(ctx context.Context, playerID string) (UnlockFunc, error) {
	key := stateKey(playerID) + lockKeySuffix
	token := r.uuidGenerator.New()

	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := r.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
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

	return nil, engerr.Conflict("another action is in progress, try again")
}
