package game

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/islandseek/engine/internal/clock"
	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
	"github.com/islandseek/engine/internal/geo"
)

// resolution accumulates one phase's mutations so they commit in one batch.
// Nothing touches the stores until commit.
type resolution struct {
	now   time.Time
	state *game.PlayerSession
	room  *game.Room

	updates map[string]*game.PlayerSession
	deletes []string
	logs    []*game.LogEvent
	scores  map[string]float64

	// terminate, when set, replaces the normal commit with a full room
	// teardown carrying this final public log.
	terminate *game.LogEvent

	outcome Outcome
	message string
}

func (s *service) newResolution(now time.Time, state *game.PlayerSession, room *game.Room) *resolution {
	return &resolution{
		now:     now,
		state:   state,
		room:    room,
		updates: make(map[string]*game.PlayerSession),
		scores:  make(map[string]float64),
		outcome: OutcomeApplied,
	}
}

// mark queues a session for persistence.
func (r *resolution) mark(state *game.PlayerSession) {
	r.updates[state.PlayerID] = state
}

// remove queues a session for deletion, dropping any pending update.
func (r *resolution) remove(playerID string) {
	delete(r.updates, playerID)
	r.deletes = append(r.deletes, playerID)
}

func (s *service) appendLog(r *resolution, visibility game.Visibility, author *game.PlayerSession, message string) {
	r.logs = append(r.logs, &game.LogEvent{
		ID:         s.uuidGenerator.New(),
		Timestamp:  r.now,
		Message:    message,
		PlayerID:   author.PlayerID,
		RoomID:     author.RoomID,
		Team:       author.Team,
		Visibility: visibility,
	})
}

func (s *service) SubmitAction(ctx context.Context, playerID string, input *ActionInput) (*ActionResult, error) {
	if input == nil {
		return nil, engerr.PreconditionFailed("no action submitted")
	}

	unlock, err := s.states.Lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := s.states.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.Get(ctx, state.RoomID)
	if err != nil {
		if engerr.IsNotFound(err) {
			s.log.Errorw("session points at a missing room",
				"player_id", playerID, "room_id", state.RoomID)
			return nil, engerr.Internal("something went wrong resolving your action")
		}
		return nil, err
	}

	now := s.timeProvider.Now()

	if err := s.ensureRoomSpawns(ctx, room, now); err != nil {
		return nil, err
	}

	if state.Role == game.RoleGamemaster {
		return s.resolveGamemaster(ctx, state, room, now, input)
	}

	// Phase 1: lazy time effects. These commit on their own so a rejected
	// action still pays its thirst.
	decay := s.newResolution(now, state, room)
	survived, err := s.applyTimeEffects(ctx, decay)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, decay); err != nil {
		return nil, err
	}
	if !survived {
		return &ActionResult{
			Outcome: decay.outcome,
			Message: s.eliminationMessage(decay),
			Logs:    decay.logs,
		}, nil
	}

	// stun gate
	if input.Kind != ActionRestore && state.IsStunned(now) {
		hoursLeft := state.StunRemaining(now).Hours()
		return nil, engerr.Newf(engerr.CodeStunned,
			"you are stunned after losing combat, unable to act for %.1fh", hoursLeft).
			WithMeta("hours_left", hoursLeft)
	}

	// capability table
	if required, ok := actionRoles[input.Kind]; ok {
		if state.Role != required {
			return nil, engerr.PreconditionFailedf("only a %s can %s", required, input.Kind)
		}
	} else if input.Kind != ActionRestore {
		return nil, engerr.InvalidTarget(fmt.Sprintf("'%s' is not an action", input.Kind))
	}

	// Phase 2: the action itself. A handler error means nothing mutated.
	r := s.newResolution(now, state, room)
	if err := s.dispatch(ctx, r, input); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, r); err != nil {
		return nil, err
	}
	return &ActionResult{
		Outcome: r.outcome,
		Message: r.message,
		Logs:    append(decay.logs, r.logs...),
	}, nil
}

func (s *service) dispatch(ctx context.Context, r *resolution, input *ActionInput) error {
	switch input.Kind {
	case ActionMove:
		return s.resolveMove(ctx, r, input.Location)
	case ActionSearch:
		return s.resolveSearch(ctx, r)
	case ActionDetect:
		return s.resolveDetect(ctx, r)
	case ActionGather:
		return s.resolveGather(ctx, r)
	case ActionTakeWater:
		return s.resolveTakeWater(ctx, r)
	case ActionPurifyWater:
		return s.resolvePurifyWater(ctx, r)
	case ActionSetTrap:
		return s.resolveSetTrap(ctx, r, input.Location)
	case ActionDiscloseTrace:
		return s.resolveDiscloseTrace(ctx, r, input.TargetID)
	case ActionTransferWater:
		return s.resolveTransferWater(ctx, r, input.TargetID, input.Amount)
	case ActionTeleport:
		return s.resolveTeleport(ctx, r, input.Location)
	case ActionTrack:
		return s.resolveTrack(ctx, r)
	case ActionEmitSignal:
		return s.resolveEmitSignal(ctx, r)
	case ActionSurrender:
		return s.resolveSurrender(ctx, r)
	case ActionRestore:
		return s.resolveRestore(ctx, r)
	default:
		return engerr.InvalidTarget(fmt.Sprintf("'%s' is not an action", input.Kind))
	}
}

// resolveGamemaster handles the observer role: restore is its only action.
func (s *service) resolveGamemaster(ctx context.Context, state *game.PlayerSession, room *game.Room, now time.Time, input *ActionInput) (*ActionResult, error) {
	if input.Kind != ActionRestore {
		return nil, engerr.PreconditionFailed("a Gamemaster only observes; the room can only be restored")
	}
	r := s.newResolution(now, state, room)
	if err := s.resolveRestore(ctx, r); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, r); err != nil {
		return nil, err
	}
	return &ActionResult{Outcome: r.outcome, Message: r.message, Logs: r.logs}, nil
}

// applyTimeEffects rolls the daily budgets and charges water decay, handling
// revival or elimination when the water runs out. Returns false when the
// submitter did not survive. Only queues mutations; the caller commits.
func (s *service) applyTimeEffects(ctx context.Context, r *resolution) (bool, error) {
	state := r.state

	state.Budgets, _ = game.RollBudgets(state.Budgets, r.now)

	lost := game.WaterDecay(state, r.now)
	if lost <= 0.0001 {
		r.mark(state)
		return true, nil
	}

	state.Water -= lost
	state.LastActionTime = r.now

	if state.Water > 0 {
		r.mark(state)
		return true, nil
	}

	if state.HasRevivalHerb {
		state.HasRevivalHerb = false
		state.Water = game.RevivalFloor
		r.mark(state)
		s.appendLog(r, game.VisibilityPublic, state,
			fmt.Sprintf("Player '%s' (%s) used the revival herb 'quynh_tam' to survive thirst.", state.Name, state.Team))
		r.message = fmt.Sprintf("you ran out of water, but the revival herb saved you with %.1f bars", game.RevivalFloor)
		return true, nil
	}

	if err := s.eliminate(ctx, r, game.StatusEliminatedThirst,
		fmt.Sprintf("ran out of water at '%s'", state.Location)); err != nil {
		return false, err
	}
	return false, nil
}

// eliminate removes the submitter's session, applying the score penalty and,
// for a Hider, the succession rule. Only queues mutations.
func (s *service) eliminate(ctx context.Context, r *resolution, status game.Status, reason string) error {
	state := r.state
	state.Water = 0
	state.Status = status

	r.outcome = OutcomeEliminated

	if state.Role == game.RoleHider {
		return s.eliminateHider(ctx, r, reason)
	}

	s.appendLog(r, game.VisibilityPublic, state,
		fmt.Sprintf("Seeker '%s' (%s) was eliminated: %s.", state.Name, state.Team, reason))
	r.remove(state.PlayerID)
	return nil
}

// eliminateHider applies the succession rule: the highest-water Active
// teammate Seeker takes over as Hider, or the team loses and the room ends.
func (s *service) eliminateHider(ctx context.Context, r *resolution, reason string) error {
	state := r.state

	s.appendLog(r, game.VisibilityPublic, state,
		fmt.Sprintf("Hider '%s' (%s) was eliminated: %s.", state.Name, state.Team, reason))
	r.scores[state.PlayerID] -= game.ElimPenaltyPts
	r.remove(state.PlayerID)

	successor, err := s.findSuccessor(ctx, r)
	if err != nil {
		return err
	}

	if successor == nil {
		r.outcome = OutcomeRoomEnded
		r.terminate = &game.LogEvent{
			Message: fmt.Sprintf("Team %s has no Seekers left to become the new Hider. Team %s loses. Room '%s' is terminated.",
				state.Team, state.Team, r.room.Name),
			PlayerID: state.PlayerID,
		}
		return nil
	}

	successor.Role = game.RoleHider
	r.mark(successor)
	s.appendLog(r, game.VisibilityTeam, successor,
		fmt.Sprintf("'%s' (%s) is the new Hider at %s.", successor.Name, successor.Team, successor.Location))
	return nil
}

// findSuccessor picks the highest-water Active Seeker on the submitter's team.
func (s *service) findSuccessor(ctx context.Context, r *resolution) (*game.PlayerSession, error) {
	others, err := s.states.ListByRoom(ctx, r.room.ID)
	if err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
	}

	candidates := make([]*game.PlayerSession, 0, len(others))
	for _, other := range others {
		if other.PlayerID == r.state.PlayerID {
			continue
		}
		if other.Team == r.state.Team && other.Role == game.RoleSeeker && other.IsActive() {
			candidates = append(candidates, other)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Water > candidates[j].Water
	})
	return candidates[0], nil
}

func (s *service) eliminationMessage(r *resolution) string {
	if r.terminate != nil {
		return r.terminate.Message
	}
	if len(r.logs) > 0 {
		return r.logs[0].Message
	}
	return "you were eliminated"
}

// commit applies every queued mutation. A room termination supersedes the
// per-record writes, since the teardown removes them anyway.
func (s *service) commit(ctx context.Context, r *resolution) error {
	for playerID, delta := range r.scores {
		if s.scores == nil || delta == 0 {
			continue
		}
		if err := s.scores.AddScore(ctx, playerID, delta); err != nil {
			s.log.Warnw("failed to report score change",
				"player_id", playerID, "delta", delta, "error", err)
		}
	}

	if r.terminate != nil {
		if err := s.roomService.Terminate(ctx, r.room.ID, r.terminate); err != nil {
			return err
		}
		r.logs = append(r.logs, r.terminate)
		return nil
	}

	if len(r.updates) > 0 {
		batch := make([]*game.PlayerSession, 0, len(r.updates))
		for _, state := range r.updates {
			state.ClampWater()
			batch = append(batch, state)
		}
		if err := s.states.UpdateMany(ctx, batch); err != nil {
			return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to commit action")
		}
	}
	for _, playerID := range r.deletes {
		if err := s.states.Delete(ctx, playerID); err != nil && !engerr.IsNotFound(err) {
			return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to remove session")
		}
	}
	if len(r.logs) > 0 {
		if err := s.gameLogs.AppendMany(ctx, r.logs); err != nil {
			return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to write logs")
		}
	}
	return nil
}

// ensureRoomSpawns lazily rolls the room's daily herb map and, inside the
// evening window, the special herb minute. Runs under the room lock so two
// concurrent actions cannot double-consume the random pool.
func (s *service) ensureRoomSpawns(ctx context.Context, room *game.Room, now time.Time) error {
	needsHerbs := room.NeedsHerbSpawn(now)
	needsSpecial := clock.InEveningWindow(now) && room.NeedsSpecialHerbRoll(now)
	if !needsHerbs && !needsSpecial {
		return nil
	}

	unlock, err := s.rooms.Lock(ctx, room.ID)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.rooms.Get(ctx, room.ID)
	if err != nil {
		return err
	}

	changed := false
	if current.NeedsHerbSpawn(now) {
		s.spawnDailyHerbs(current, now)
		changed = true
		s.log.Infow("daily herbs spawned", "room_id", current.ID,
			"date", clock.GameDate(now).Format("2006-01-02"))
	}
	if clock.InEveningWindow(now) && current.NeedsSpecialHerbRoll(now) {
		minute := s.random.Intn(game.SpecialHerbWindowMinutes)
		day := clock.GameDate(now)
		current.SpecialHerbDay = &day
		current.SpecialHerbMinute = &minute
		changed = true
		s.log.Infow("special herb rolled", "room_id", current.ID, "minute", minute)
	}

	if changed {
		if err := s.rooms.Update(ctx, current); err != nil {
			return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to store room spawns")
		}
	}
	*room = *current
	return nil
}

// spawnDailyHerbs shuffles the candidate pool and deals out the configured
// herb multiset onto distinct locations.
func (s *service) spawnDailyHerbs(room *game.Room, now time.Time) {
	spots := make([]string, len(geo.HerbLocationPool))
	copy(spots, geo.HerbLocationPool)
	s.random.Shuffle(len(spots), func(i, j int) {
		spots[i], spots[j] = spots[j], spots[i]
	})

	mapping := make(map[string]game.HerbKind)
	for _, kind := range game.HerbKinds {
		for n := 0; n < game.HerbSpawnCounts[kind]; n++ {
			if len(spots) == 0 {
				break
			}
			spot := spots[len(spots)-1]
			spots = spots[:len(spots)-1]
			mapping[spot] = kind
		}
	}

	day := clock.GameDate(now)
	room.HerbMap = mapping
	room.HerbSpawnDate = &day
}
