package services

import (
	"go.uber.org/zap"

	"github.com/islandseek/engine/internal/clock"
	"github.com/islandseek/engine/internal/random"
	"github.com/islandseek/engine/internal/repositories/chat"
	"github.com/islandseek/engine/internal/repositories/gamelogs"
	"github.com/islandseek/engine/internal/repositories/playerstates"
	"github.com/islandseek/engine/internal/repositories/rooms"
	gameService "github.com/islandseek/engine/internal/services/game"
	roomService "github.com/islandseek/engine/internal/services/room"
)

// Provider holds all service instances
type Provider struct {
	GameService gameService.Service
	RoomService roomService.Service
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	PlayerStateRepository playerstates.Repository
	RoomRepository        rooms.Repository
	GameLogRepository     gamelogs.Repository
	ChatRepository        chat.Repository
	TimeProvider          clock.TimeProvider
	Random                random.Source
	ScoreReporter         gameService.ScoreReporter
	Logger                *zap.SugaredLogger
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	// Use in-memory repositories if none provided
	stateRepo := cfg.PlayerStateRepository
	if stateRepo == nil {
		stateRepo = playerstates.NewInMemoryRepository()
	}
	roomRepo := cfg.RoomRepository
	if roomRepo == nil {
		roomRepo = rooms.NewInMemoryRepository()
	}
	logRepo := cfg.GameLogRepository
	if logRepo == nil {
		logRepo = gamelogs.NewInMemoryRepository()
	}
	chatRepo := cfg.ChatRepository
	if chatRepo == nil {
		chatRepo = chat.NewInMemoryRepository()
	}

	roomSvc := roomService.NewService(&roomService.ServiceConfig{
		RoomRepository:        roomRepo,
		PlayerStateRepository: stateRepo,
		GameLogRepository:     logRepo,
		ChatRepository:        chatRepo,
		TimeProvider:          cfg.TimeProvider,
		Random:                cfg.Random,
		Logger:                cfg.Logger,
	})

	gameSvc := gameService.NewService(&gameService.ServiceConfig{
		PlayerStateRepository: stateRepo,
		RoomRepository:        roomRepo,
		GameLogRepository:     logRepo,
		ChatRepository:        chatRepo,
		RoomService:           roomSvc,
		TimeProvider:          cfg.TimeProvider,
		Random:                cfg.Random,
		ScoreReporter:         cfg.ScoreReporter,
		Logger:                cfg.Logger,
	})

	return &Provider{
		GameService: gameSvc,
		RoomService: roomSvc,
	}
}
