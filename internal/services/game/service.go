// Package game implements the action resolver: the state machine that
// validates submitted actions against session and room state, applies water
// decay and daily resets lazily, and mutates the stores atomically.
package game

//go:generate mockgen -destination=mock/mock_service.go -package=mockgame -source=service.go

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/islandseek/engine/internal/clock"
	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
	"github.com/islandseek/engine/internal/geo"
	"github.com/islandseek/engine/internal/random"
	roomService "github.com/islandseek/engine/internal/services/room"

	"github.com/islandseek/engine/internal/repositories/chat"
	"github.com/islandseek/engine/internal/repositories/gamelogs"
	"github.com/islandseek/engine/internal/repositories/playerstates"
	"github.com/islandseek/engine/internal/repositories/rooms"
	"github.com/islandseek/engine/internal/uuid"
)

// ActionKind names a submittable action.
type ActionKind string

const (
	ActionMove          ActionKind = "move"
	ActionSearch        ActionKind = "search"
	ActionDetect        ActionKind = "detect"
	ActionGather        ActionKind = "gather"
	ActionTakeWater     ActionKind = "take_water"
	ActionPurifyWater   ActionKind = "purify_water"
	ActionSetTrap       ActionKind = "set_trap"
	ActionDiscloseTrace ActionKind = "disclose_trace"
	ActionTransferWater ActionKind = "transfer_water"
	ActionTeleport      ActionKind = "teleport"
	ActionTrack         ActionKind = "track"
	ActionEmitSignal    ActionKind = "emit_signal"
	ActionSurrender     ActionKind = "surrender"
	ActionRestore       ActionKind = "restore"
)

// actionRoles is the capability table checked once at dispatch entry.
// ActionRestore is absent: it is gated on room host identity instead.
var actionRoles = map[ActionKind]game.Role{
	ActionMove:          game.RoleSeeker,
	ActionSearch:        game.RoleSeeker,
	ActionDetect:        game.RoleSeeker,
	ActionGather:        game.RoleSeeker,
	ActionTakeWater:     game.RoleSeeker,
	ActionPurifyWater:   game.RoleSeeker,
	ActionSetTrap:       game.RoleSeeker,
	ActionDiscloseTrace: game.RoleSeeker,
	ActionTransferWater: game.RoleSeeker,
	ActionTeleport:      game.RoleSeeker,
	ActionTrack:         game.RoleSeeker,
	ActionEmitSignal:    game.RoleHider,
	ActionSurrender:     game.RoleHider,
}

// ActionInput is one submitted action with its parameters.
type ActionInput struct {
	Kind ActionKind

	// Location is the target token for move, teleport, and set_trap.
	Location string

	// TargetID is the other player for disclose_trace and transfer_water.
	TargetID string

	// Amount is the water amount for transfer_water.
	Amount float64
}

// Outcome classifies what a resolved action did to the submitter.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeEliminated Outcome = "eliminated"
	OutcomeRoomEnded  Outcome = "room_ended"
)

// ActionResult is what a successfully resolved action returns: a display-ready
// message and the log entries the action produced.
type ActionResult struct {
	Outcome Outcome
	Message string
	Logs    []*game.LogEvent
}

// SessionView is a read-only session snapshot with the derived flags the view
// layer renders as buttons.
type SessionView struct {
	Session game.PlayerSession

	ViolenceEnabled bool

	CanTakeWater bool
	CanTransfer  bool
	CanTeleport  bool
	CanTrack     bool
	CanGamble    bool
	CanPurify    bool

	MaxTransferable float64
	StunRemaining   time.Duration
}

// ActivityFeed partitions a player's visible logs and chat.
type ActivityFeed struct {
	GlobalLogs []*game.LogEvent
	GlobalChat []*game.ChatMessage

	// the caller's own team partition; empty for a Gamemaster
	TeamLogs []*game.LogEvent
	TeamChat []*game.ChatMessage

	// per-team partitions, populated only for a Gamemaster
	TeamFeeds map[string]*TeamFeed
}

// TeamFeed is one team's partition of an ActivityFeed.
type TeamFeed struct {
	Logs []*game.LogEvent
	Chat []*game.ChatMessage
}

// JoinRoomInput contains data for joining a room. Zero values for Role,
// Location, and Spirit mean "assign randomly".
type JoinRoomInput struct {
	PlayerID   string
	PlayerName string
	RoomID     string
	Team       string
	Role       game.Role
	Location   string
	Spirit     game.SpiritClass
}

// ScoreReporter receives score changes. Identity and score storage live
// outside the engine; a nil reporter drops the deltas.
type ScoreReporter interface {
	AddScore(ctx context.Context, playerID string, delta float64) error
}

// Service is the action resolver's external interface.
type Service interface {
	// JoinRoom creates a session for a player entering a waiting room.
	JoinRoom(ctx context.Context, input *JoinRoomInput) (*game.PlayerSession, error)

	// SubmitAction resolves one action for a player. The player's session is
	// exclusively locked for the whole call.
	SubmitAction(ctx context.Context, playerID string, input *ActionInput) (*ActionResult, error)

	// GetSessionView returns a session snapshot with derived ability flags.
	GetSessionView(ctx context.Context, playerID string) (*SessionView, error)

	// GetActivityFeed returns the logs and chat the player may see.
	GetActivityFeed(ctx context.Context, playerID string, since time.Time) (*ActivityFeed, error)

	// SendChat posts a chat message in the player's room.
	SendChat(ctx context.Context, playerID, body string, scope game.ChatScope, targetTeam string) (*game.ChatMessage, error)
}

type service struct {
	states        playerstates.Repository
	rooms         rooms.Repository
	gameLogs      gamelogs.Repository
	chat          chat.Repository
	roomService   roomService.Service
	timeProvider  clock.TimeProvider
	random        random.Source
	uuidGenerator uuid.Generator
	scores        ScoreReporter
	log           *zap.SugaredLogger
}

// ServiceConfig holds configuration for the game service
type ServiceConfig struct {
	PlayerStateRepository playerstates.Repository // Required
	RoomRepository        rooms.Repository        // Required
	GameLogRepository     gamelogs.Repository     // Required
	ChatRepository        chat.Repository         // Required
	RoomService           roomService.Service     // Required
	TimeProvider          clock.TimeProvider      // Optional, defaults to real clock
	Random                random.Source           // Optional, defaults to time-seeded
	UUIDGenerator         uuid.Generator          // Optional, will use default if nil
	ScoreReporter         ScoreReporter           // Optional, nil drops score deltas
	Logger                *zap.SugaredLogger      // Optional, defaults to no-op
}

// NewService creates a new game service
func NewService(cfg *ServiceConfig) Service {
	if cfg.PlayerStateRepository == nil {
		panic("player state repository is required")
	}
	if cfg.RoomRepository == nil {
		panic("room repository is required")
	}
	if cfg.GameLogRepository == nil {
		panic("game log repository is required")
	}
	if cfg.ChatRepository == nil {
		panic("chat repository is required")
	}
	if cfg.RoomService == nil {
		panic("room service is required")
	}

	svc := &service{
		states:        cfg.PlayerStateRepository,
		rooms:         cfg.RoomRepository,
		gameLogs:      cfg.GameLogRepository,
		chat:          cfg.ChatRepository,
		roomService:   cfg.RoomService,
		timeProvider:  cfg.TimeProvider,
		random:        cfg.Random,
		uuidGenerator: cfg.UUIDGenerator,
		scores:        cfg.ScoreReporter,
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

func (s *service) JoinRoom(ctx context.Context, input *JoinRoomInput) (*game.PlayerSession, error) {
	if input == nil || input.PlayerID == "" || input.RoomID == "" {
		return nil, engerr.PreconditionFailed("player and room are required to join")
	}

	room, err := s.rooms.Get(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if room.Status != game.RoomStatusWaiting {
		return nil, engerr.PreconditionFailed("this room is invalid or already in progress")
	}

	now := s.timeProvider.Now()

	// a competition host observes as Gamemaster instead of playing
	if room.Mode == game.ModeCompetition && input.PlayerID == room.HostID {
		state := &game.PlayerSession{
			ID:               s.uuidGenerator.New(),
			PlayerID:         input.PlayerID,
			RoomID:           room.ID,
			Team:             "God",
			Role:             game.RoleGamemaster,
			Name:             input.PlayerName,
			Status:           game.StatusActive,
			Water:            999.0,
			Location:         "0a0",
			LastActionTime:   now,
			LastActivityTime: now,
			Budgets:          game.NewTurnBudgets(now),
		}
		if err := s.states.Create(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	if input.Team == "" {
		return nil, engerr.PreconditionFailed("please select a team first")
	}

	role := input.Role
	if role == "" {
		if s.random.Intn(2) == 0 {
			role = game.RoleHider
		} else {
			role = game.RoleSeeker
		}
	}
	if role != game.RoleHider && role != game.RoleSeeker {
		return nil, engerr.InvalidTarget("role must be Hider or Seeker")
	}

	if role == game.RoleHider {
		others, err := s.states.ListByRoom(ctx, room.ID)
		if err != nil {
			return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
		}
		for _, other := range others {
			if other.Team == input.Team && other.Role == game.RoleHider {
				return nil, engerr.PreconditionFailedf("%s has a hider already, please select Seeker", input.Team)
			}
		}
	}

	location := input.Location
	if location == "" {
		location = s.randomLandLocation()
	} else {
		if _, err := geo.Parse(location); err != nil {
			return nil, err
		}
		if geo.IsSeawater(location) {
			return nil, engerr.InvalidLocationf("'%s' is seawater, pick a land square", location)
		}
	}

	var spirit game.SpiritClass
	if role == game.RoleSeeker {
		spirit = input.Spirit
		if spirit == "" {
			spirit = game.SpiritClasses[s.random.Intn(len(game.SpiritClasses))]
		}
	}

	state := &game.PlayerSession{
		ID:               s.uuidGenerator.New(),
		PlayerID:         input.PlayerID,
		RoomID:           room.ID,
		Team:             input.Team,
		Role:             role,
		Name:             input.PlayerName,
		Status:           game.StatusActive,
		Water:            game.MaxWater,
		Location:         location,
		LastActionTime:   now,
		LastActivityTime: now,
		SpiritClass:      spirit,
		Budgets:          game.NewTurnBudgets(now),
	}
	if err := s.states.Create(ctx, state); err != nil {
		return nil, err
	}

	event := &game.LogEvent{
		ID:         s.uuidGenerator.New(),
		Timestamp:  now,
		Message:    "A player named '" + state.Name + "' joined room " + room.ID,
		PlayerID:   state.PlayerID,
		RoomID:     room.ID,
		Team:       state.Team,
		Visibility: game.VisibilityTeam,
	}
	if err := s.gameLogs.Append(ctx, event); err != nil {
		s.log.Warnw("failed to log room join", "room_id", room.ID, "error", err)
	}
	return state, nil
}

// randomLandLocation draws uniform tokens until one is not seawater.
func (s *service) randomLandLocation() string {
	for {
		quadrant := 1 + s.random.Intn(4)
		cell := geo.Cell{Column: 1 + s.random.Intn(10), Row: 1 + s.random.Intn(10)}
		token := geo.Format(quadrant, cell)
		if !geo.IsSeawater(token) {
			return token
		}
	}
}

func (s *service) GetSessionView(ctx context.Context, playerID string) (*SessionView, error) {
	state, err := s.states.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.Get(ctx, state.RoomID)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	state.Budgets, _ = game.RollBudgets(state.Budgets, now)

	view := &SessionView{
		Session:         *state,
		ViolenceEnabled: room.ViolenceEnabled,
		StunRemaining:   state.StunRemaining(now),
	}
	if state.Role != game.RoleSeeker && state.Role != game.RoleHider {
		return view, nil
	}

	view.MaxTransferable = state.MaxTransferable()
	view.CanGamble = state.Role == game.RoleHider && !state.HasUsedGambit

	if state.Role == game.RoleSeeker {
		view.CanTakeWater = geo.IsFreshWater(state.Location)
		view.CanTeleport = state.HasTeleport
		view.CanTrack = !state.HasTracked &&
			now.Sub(state.LastActivityTime) > game.TrackInactivity

		if loc, err := geo.Parse(state.Location); err == nil {
			view.CanPurify = state.HasPurifier && geo.IsCoastal(loc.Cell)
		}

		teammateHere := false
		others, err := s.states.ListByRoom(ctx, state.RoomID)
		if err != nil {
			return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
		}
		for _, other := range others {
			if other.PlayerID == state.PlayerID || other.Team != state.Team {
				continue
			}
			if other.Location == state.Location {
				teammateHere = true
			}
		}
		view.CanTransfer = view.MaxTransferable > 0 && (teammateHere || state.HasRemoteWater)
	}
	return view, nil
}

const feedLimit = 20

func (s *service) GetActivityFeed(ctx context.Context, playerID string, since time.Time) (*ActivityFeed, error) {
	state, err := s.states.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	feed := &ActivityFeed{}
	feed.GlobalLogs, err = s.gameLogs.List(ctx, &gamelogs.Query{
		RoomID:     state.RoomID,
		Visibility: game.VisibilityPublic,
		Since:      since,
		Limit:      feedLimit,
	})
	if err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room logs")
	}
	feed.GlobalChat, err = s.chat.ListGlobal(ctx, state.RoomID, feedLimit)
	if err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room chat")
	}

	if state.Role == game.RoleGamemaster {
		feed.TeamFeeds = make(map[string]*TeamFeed)
		others, err := s.states.ListByRoom(ctx, state.RoomID)
		if err != nil {
			return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
		}
		for _, other := range others {
			if other.Role == game.RoleGamemaster {
				continue
			}
			if _, ok := feed.TeamFeeds[other.Team]; ok {
				continue
			}
			teamFeed, err := s.teamFeed(ctx, state.RoomID, other.Team, "", since)
			if err != nil {
				return nil, err
			}
			feed.TeamFeeds[other.Team] = teamFeed
		}
		return feed, nil
	}

	teamFeed, err := s.teamFeed(ctx, state.RoomID, state.Team, state.PlayerID, since)
	if err != nil {
		return nil, err
	}
	feed.TeamLogs = teamFeed.Logs
	feed.TeamChat = teamFeed.Chat
	return feed, nil
}

// teamFeed gathers one team's log and chat partition. When selfID is set, the
// caller's own private entries ride along with the team logs.
func (s *service) teamFeed(ctx context.Context, roomID, team, selfID string, since time.Time) (*TeamFeed, error) {
	logs, err := s.gameLogs.List(ctx, &gamelogs.Query{
		RoomID:     roomID,
		Team:       team,
		Visibility: game.VisibilityTeam,
		Since:      since,
		Limit:      feedLimit,
	})
	if err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list team logs")
	}
	if selfID != "" {
		private, err := s.gameLogs.List(ctx, &gamelogs.Query{
			RoomID:     roomID,
			PlayerID:   selfID,
			Visibility: game.VisibilityPrivate,
			Since:      since,
			Limit:      feedLimit,
		})
		if err != nil {
			return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list private logs")
		}
		logs = mergeNewestFirst(logs, private, feedLimit)
	}

	messages, err := s.chat.ListTeam(ctx, roomID, team, feedLimit)
	if err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list team chat")
	}
	return &TeamFeed{Logs: logs, Chat: messages}, nil
}

// mergeNewestFirst merges two newest-first log slices, keeping at most limit.
func mergeNewestFirst(a, b []*game.LogEvent, limit int) []*game.LogEvent {
	merged := make([]*game.LogEvent, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Timestamp.After(b[j].Timestamp) {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (s *service) SendChat(ctx context.Context, playerID, body string, scope game.ChatScope, targetTeam string) (*game.ChatMessage, error) {
	state, err := s.states.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, engerr.PreconditionFailed("empty message")
	}
	if scope != game.ChatScopeTeam && scope != game.ChatScopeGlobal {
		return nil, engerr.InvalidTarget("invalid chat scope")
	}

	team := ""
	if scope == game.ChatScopeTeam {
		if state.Role == game.RoleGamemaster {
			if targetTeam == "" {
				return nil, engerr.PreconditionFailed("the host must pick a team to message")
			}
			team = targetTeam
		} else {
			team = state.Team
		}
	}

	msg := &game.ChatMessage{
		ID:         s.uuidGenerator.New(),
		Timestamp:  s.timeProvider.Now(),
		Body:       trimmed,
		PlayerID:   state.PlayerID,
		PlayerName: state.Name,
		RoomID:     state.RoomID,
		Scope:      scope,
		Team:       team,
	}
	if err := s.chat.Append(ctx, msg); err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to send message")
	}
	return msg, nil
}
