package room

//go:generate mockgen -destination=mock/mock_service.go -package=mockroom -source=service.go

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/islandseek/engine/internal/clock"
	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
	"github.com/islandseek/engine/internal/geo"
	"github.com/islandseek/engine/internal/random"
	"github.com/islandseek/engine/internal/repositories/chat"
	"github.com/islandseek/engine/internal/repositories/gamelogs"
	"github.com/islandseek/engine/internal/repositories/playerstates"
	"github.com/islandseek/engine/internal/repositories/rooms"
	"github.com/islandseek/engine/internal/uuid"
)

// Service manages room lifecycle: creation, listing, host settings, and
// termination with full cleanup.
type Service interface {
	// CreateRoom creates a waiting room and assigns its two beast squares.
	CreateRoom(ctx context.Context, input *CreateRoomInput) (*game.Room, error)

	// GetRoom retrieves a room by ID.
	GetRoom(ctx context.Context, roomID string) (*game.Room, error)

	// ListWaitingRooms returns joinable rooms with their player counts,
	// newest first. Rooms with zero players are garbage and get deleted.
	ListWaitingRooms(ctx context.Context) ([]*RoomListing, error)

	// ToggleViolence flips the room's combat rule. Host only.
	ToggleViolence(ctx context.Context, roomID, callerID string, enabled bool) (*game.Room, error)

	// Terminate deletes the room with all its sessions, logs, and chat. The
	// final log survives as the room's only remaining public record.
	Terminate(ctx context.Context, roomID string, finalLog *game.LogEvent) error
}

// CreateRoomInput contains data for creating a room.
type CreateRoomInput struct {
	Name   string
	HostID string
	Mode   game.RoomMode
}

// RoomListing pairs a room with its current player count.
type RoomListing struct {
	Room        *game.Room
	PlayerCount int
}

type service struct {
	rooms         rooms.Repository
	states        playerstates.Repository
	gameLogs      gamelogs.Repository
	chat          chat.Repository
	timeProvider  clock.TimeProvider
	random        random.Source
	uuidGenerator uuid.Generator
	log           *zap.SugaredLogger
}

// ServiceConfig holds configuration for the room service
type ServiceConfig struct {
	RoomRepository        rooms.Repository        // Required
	PlayerStateRepository playerstates.Repository // Required
	GameLogRepository     gamelogs.Repository     // Required
	ChatRepository        chat.Repository         // Required
	TimeProvider          clock.TimeProvider      // Optional, defaults to real clock
	Random                random.Source           // Optional, defaults to time-seeded
	UUIDGenerator         uuid.Generator          // Optional, will use default if nil
	Logger                *zap.SugaredLogger      // Optional, defaults to no-op
}

// NewService creates a new room service
func NewService(cfg *ServiceConfig) Service {
	if cfg.RoomRepository == nil {
		panic("room repository is required")
	}
	if cfg.PlayerStateRepository == nil {
		panic("player state repository is required")
	}
	if cfg.GameLogRepository == nil {
		panic("game log repository is required")
	}
	if cfg.ChatRepository == nil {
		panic("chat repository is required")
	}

	svc := &service{
		rooms:         cfg.RoomRepository,
		states:        cfg.PlayerStateRepository,
		gameLogs:      cfg.GameLogRepository,
		chat:          cfg.ChatRepository,
		timeProvider:  cfg.TimeProvider,
		random:        cfg.Random,
		uuidGenerator: cfg.UUIDGenerator,
		log:           cfg.Logger,
	}
	if svc.timeProvider == nil {
		svc.timeProvider = clock.NewRealTimeProvider()
	}
	if svc.random == nil {
		svc.random = random.New()
	}
	if svc.uuidGenerator == nil {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if svc.log == nil {
		svc.log = zap.NewNop().Sugar()
	}
	return svc
}

func (s *service) CreateRoom(ctx context.Context, input *CreateRoomInput) (*game.Room, error) {
	if input == nil || input.Name == "" {
		return nil, engerr.PreconditionFailed("please enter a room name")
	}
	if input.HostID == "" {
		return nil, engerr.PreconditionFailed("a room needs a host")
	}

	mode := input.Mode
	if mode == "" {
		mode = game.ModeSimulation
	}

	beastSquares := random.Sample(s.random, geo.JungleSquares, 2)

	room := &game.Room{
		ID:           s.uuidGenerator.New(),
		Name:         input.Name,
		HostID:       input.HostID,
		Mode:         mode,
		Status:       game.RoomStatusWaiting,
		BeastSquare1: beastSquares[0],
		BeastSquare2: beastSquares[1],
		CreatedAt:    s.timeProvider.Now(),
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to create room")
	}

	s.log.Infow("room created", "room_id", room.ID, "name", room.Name,
		"beast_squares", beastSquares)
	return room, nil
}

func (s *service) GetRoom(ctx context.Context, roomID string) (*game.Room, error) {
	return s.rooms.Get(ctx, roomID)
}

func (s *service) ListWaitingRooms(ctx context.Context) ([]*RoomListing, error) {
	all, err := s.rooms.List(ctx)
	if err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list rooms")
	}

	listings := make([]*RoomListing, 0, len(all))
	cleaned := 0
	for _, room := range all {
		if room.Status != game.RoomStatusWaiting {
			continue
		}
		players, err := s.states.ListByRoom(ctx, room.ID)
		if err != nil {
			return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to count room players")
		}
		if len(players) == 0 {
			if err := s.rooms.Delete(ctx, room.ID); err != nil {
				s.log.Warnw("failed to clean up empty room", "room_id", room.ID, "error", err)
				continue
			}
			cleaned++
			continue
		}
		listings = append(listings, &RoomListing{Room: room, PlayerCount: len(players)})
	}

	if cleaned > 0 {
		s.log.Infow("cleaned up empty rooms", "count", cleaned)
	}

	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Room.CreatedAt.After(listings[j].Room.CreatedAt)
	})
	return listings, nil
}

func (s *service) ToggleViolence(ctx context.Context, roomID, callerID string, enabled bool) (*game.Room, error) {
	unlock, err := s.rooms.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.HostID != callerID {
		return nil, engerr.PreconditionFailed("only the room host can change this setting")
	}

	room.ViolenceEnabled = enabled
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to update room")
	}

	status := "OFF"
	if enabled {
		status = "ON"
	}
	event := &game.LogEvent{
		ID:         s.uuidGenerator.New(),
		Timestamp:  s.timeProvider.Now(),
		Message:    "The host turned " + status + " the violence feature for '" + room.Name + "'.",
		PlayerID:   callerID,
		RoomID:     room.ID,
		Visibility: game.VisibilityPublic,
	}
	if err := s.gameLogs.Append(ctx, event); err != nil {
		s.log.Warnw("failed to log violence toggle", "room_id", room.ID, "error", err)
	}
	return room, nil
}

func (s *service) Terminate(ctx context.Context, roomID string, finalLog *game.LogEvent) error {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		if engerr.IsNotFound(err) {
			// already terminated by a concurrent caller
			return nil
		}
		return err
	}

	if err := s.states.DeleteByRoom(ctx, roomID); err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to delete room sessions")
	}
	if err := s.gameLogs.DeleteByRoom(ctx, roomID); err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to delete room logs")
	}
	if err := s.chat.DeleteByRoom(ctx, roomID); err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to delete room chat")
	}

	if finalLog != nil {
		if finalLog.ID == "" {
			finalLog.ID = s.uuidGenerator.New()
		}
		if finalLog.Timestamp.IsZero() {
			finalLog.Timestamp = s.timeProvider.Now()
		}
		finalLog.RoomID = roomID
		finalLog.Visibility = game.VisibilityPublic
		if err := s.gameLogs.Append(ctx, finalLog); err != nil {
			s.log.Warnw("failed to write termination log", "room_id", roomID, "error", err)
		}
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to delete room")
	}

	s.log.Infow("room terminated", "room_id", roomID, "name", room.Name)
	return nil
}
