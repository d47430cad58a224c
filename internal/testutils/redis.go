package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// TestRedisConfig holds configuration for test Redis instances
type TestRedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DefaultTestRedisConfig returns the default test Redis configuration
func DefaultTestRedisConfig() *TestRedisConfig {
	return &TestRedisConfig{
		Addr:     "localhost:6379",
		Password: "",
		DB:       15, // Use DB 15 for tests to avoid conflicts
	}
}

// CreateTestRedisClient creates a Redis client for testing, skipping the test
// when no Redis is reachable. The test database is flushed before and after.
func CreateTestRedisClient(t *testing.T, cfg *TestRedisConfig) redis.UniversalClient {
	if cfg == nil {
		cfg = DefaultTestRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err(), "Failed to flush test Redis database")

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}

// CreateTestRedisClientOrSkip creates a Redis client or skips the test if Redis is not available
func CreateTestRedisClientOrSkip(t *testing.T) redis.UniversalClient {
	t.Helper()
	return CreateTestRedisClient(t, nil)
}
