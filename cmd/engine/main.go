package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/islandseek/engine/internal/config"
	"github.com/islandseek/engine/internal/logger"
	"github.com/islandseek/engine/internal/repositories/chat"
	"github.com/islandseek/engine/internal/repositories/gamelogs"
	"github.com/islandseek/engine/internal/repositories/playerstates"
	"github.com/islandseek/engine/internal/repositories/rooms"
	"github.com/islandseek/engine/internal/services"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog := logger.New(cfg.Log.File)
	defer func() { _ = zlog.Sync() }()

	providerConfig := &services.ProviderConfig{
		Logger: zlog,
	}

	// Keep Redis client for cleanup
	var redisClient *redis.Client

	redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
		cancel()
		log.Printf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, pingErr)
		log.Println("Falling back to in-memory repositories")
		redisClient = nil
	} else {
		cancel()
		log.Printf("Connected to Redis at %s", cfg.Redis.Addr)

		providerConfig.PlayerStateRepository = playerstates.NewRedisRepository(&playerstates.RedisRepoConfig{Client: redisClient})
		providerConfig.RoomRepository = rooms.NewRedisRepository(&rooms.RedisRepoConfig{Client: redisClient})
		providerConfig.GameLogRepository = gamelogs.NewRedisRepository(&gamelogs.RedisRepoConfig{Client: redisClient})
		providerConfig.ChatRepository = chat.NewRedisRepository(&chat.RedisRepoConfig{Client: redisClient})
	}

	// The transport layer wrapping this engine takes the provider from here;
	// the binary itself only proves the wiring and waits.
	provider := services.NewProvider(providerConfig)

	zlog.Infow("engine ready",
		"redis", redisClient != nil,
		"game_service", provider.GameService != nil,
		"room_service", provider.RoomService != nil)

	// Wait for interrupt
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zlog.Infow("shutting down")
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}
}
