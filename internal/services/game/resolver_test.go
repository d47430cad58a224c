package game

import (
	"time"

	"github.com/islandseek/engine/internal/clock"
	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
	"github.com/islandseek/engine/internal/geo"
	"github.com/islandseek/engine/internal/testutils"
)

func (s *GameServiceTestSuite) TestSubmitAction_ChargesWaterDecay() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.LastActionTime = s.now.Add(-6 * time.Hour)
	s.updateState(state)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
	s.Require().NoError(err)
	s.Equal(OutcomeApplied, result.Outcome)

	stored := s.getState("alice")
	s.InDelta(9.0, stored.Water, 0.001) // six hours at one bar per six hours
	s.True(stored.IsDetecting)
	s.Equal(game.BaseDetectTurns-1, stored.Budgets.Detect)
}

func (s *GameServiceTestSuite) TestSubmitAction_ThirstEliminatesSeeker() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.Water = 0.5
	state.LastActionTime = s.now.Add(-6 * time.Hour)
	s.updateState(state)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
	s.Require().NoError(err)
	s.Equal(OutcomeEliminated, result.Outcome)

	_, err = s.states.Get(s.ctx, "alice")
	s.True(engerr.IsNotFound(err))

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "was eliminated")
	s.Contains(logs[0].Message, "ran out of water")
}

func (s *GameServiceTestSuite) TestSubmitAction_RevivalHerbSavesFromThirst() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.Water = 0.5
	state.HasRevivalHerb = true
	state.LastActionTime = s.now.Add(-6 * time.Hour)
	s.updateState(state)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
	s.Require().NoError(err)
	s.Equal(OutcomeApplied, result.Outcome)

	stored := s.getState("alice")
	s.InDelta(game.RevivalFloor, stored.Water, 0.001)
	s.False(stored.HasRevivalHerb) // one shot only
	s.True(stored.IsDetecting)

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "quynh_tam")
}

func (s *GameServiceTestSuite) TestSubmitAction_HiderThirstPromotesSuccessor() {
	hider := s.addHider("h1", "Red", "1e5")
	hider.Water = 0.2
	hider.LastActionTime = s.now.Add(-6 * time.Hour)
	s.updateState(hider)

	bob := s.addSeeker("bob", "Red", "2e5", game.SpiritTiger)
	bob.Water = 7.0
	s.updateState(bob)
	carol := s.addSeeker("carol", "Red", "2g3", game.SpiritBird)
	carol.Water = 9.0
	s.updateState(carol)

	result, err := s.svc.SubmitAction(s.ctx, "h1", &ActionInput{Kind: ActionEmitSignal})
	s.Require().NoError(err)
	s.Equal(OutcomeEliminated, result.Outcome)

	_, err = s.states.Get(s.ctx, "h1")
	s.True(engerr.IsNotFound(err))

	// the teammate with the most water takes over
	s.Equal(game.RoleHider, s.getState("carol").Role)
	s.Equal(game.RoleSeeker, s.getState("bob").Role)

	s.InDelta(-float64(game.ElimPenaltyPts), s.scores.totals["h1"], 0.001)
}

func (s *GameServiceTestSuite) TestSubmitAction_HiderThirstWithoutSeekersEndsRoom() {
	hider := s.addHider("h1", "Red", "1e5")
	hider.Water = 0.2
	hider.LastActionTime = s.now.Add(-6 * time.Hour)
	s.updateState(hider)

	result, err := s.svc.SubmitAction(s.ctx, "h1", &ActionInput{Kind: ActionEmitSignal})
	s.Require().NoError(err)
	s.Equal(OutcomeRoomEnded, result.Outcome)

	_, err = s.rooms.Get(s.ctx, s.room.ID)
	s.True(engerr.IsNotFound(err))
	_, err = s.states.Get(s.ctx, "h1")
	s.True(engerr.IsNotFound(err))

	// the termination notice is the room's only surviving record
	logs := s.publicLogs()
	s.Require().Len(logs, 1)
	s.Contains(logs[0].Message, "loses")
}

func (s *GameServiceTestSuite) TestSubmitAction_StunnedPlayerCannotAct() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	stunUntil := s.now.Add(2 * time.Hour)
	state.StunExpires = &stunUntil
	s.updateState(state)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeStunned))

	// the stun lapses with time
	s.now = s.now.Add(3 * time.Hour)
	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
	s.NoError(err)
}

func (s *GameServiceTestSuite) TestSubmitAction_RoleGates() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	s.addHider("h1", "Blue", "2e5")

	_, err := s.svc.SubmitAction(s.ctx, "h1", &ActionInput{Kind: ActionSearch})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))

	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionEmitSignal})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))

	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: "fly"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidTarget))
}

func (s *GameServiceTestSuite) TestSubmitAction_SpawnsDailyHerbs() {
	fresh := testutils.CreateTestRoom("room-fresh", "New Island", "host-1")
	s.Require().NoError(s.rooms.Create(s.ctx, fresh))
	seeker := testutils.CreateTestSeeker("alice", fresh.ID, "Red", "1e5", game.SpiritDragon, s.now)
	s.Require().NoError(s.states.Create(s.ctx, seeker))

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
	s.Require().NoError(err)

	stored, err := s.rooms.Get(s.ctx, fresh.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.HerbSpawnDate)
	s.True(clock.SameGameDay(*stored.HerbSpawnDate, s.now))

	total := 0
	for _, n := range game.HerbSpawnCounts {
		total += n
	}
	s.Require().Len(stored.HerbMap, total)

	counts := make(map[game.HerbKind]int)
	pool := make(map[string]struct{}, len(geo.HerbLocationPool))
	for _, spot := range geo.HerbLocationPool {
		pool[spot] = struct{}{}
	}
	for spot, kind := range stored.HerbMap {
		s.Contains(pool, spot)
		counts[kind]++
	}
	for kind, want := range game.HerbSpawnCounts {
		s.Equal(want, counts[kind], "spawn count for %s", kind)
	}
}

func (s *GameServiceTestSuite) TestSubmitAction_RollsSpecialHerbInEveningWindow() {
	fresh := testutils.CreateTestRoom("room-evening", "Night Island", "host-1")
	today := clock.GameDate(s.now)
	fresh.HerbSpawnDate = &today
	fresh.HerbMap = map[string]game.HerbKind{}
	s.Require().NoError(s.rooms.Create(s.ctx, fresh))
	seeker := testutils.CreateTestSeeker("alice", fresh.ID, "Red", "1e5", game.SpiritDragon, s.now)
	s.Require().NoError(s.states.Create(s.ctx, seeker))

	// 20:30 game-local
	s.now = time.Date(2025, 3, 1, 13, 30, 0, 0, time.UTC)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
	s.Require().NoError(err)

	stored, err := s.rooms.Get(s.ctx, fresh.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.SpecialHerbDay)
	s.True(clock.SameGameDay(*stored.SpecialHerbDay, s.now))
	s.Require().NotNil(stored.SpecialHerbMinute)
	s.GreaterOrEqual(*stored.SpecialHerbMinute, 0)
	s.Less(*stored.SpecialHerbMinute, game.SpecialHerbWindowMinutes)
}

func (s *GameServiceTestSuite) TestSubmitAction_GamemasterOnlyRestores() {
	comp := testutils.CreateTestRoom("room-comp", "Finals", "gm")
	comp.Mode = game.ModeCompetition
	today := clock.GameDate(s.now)
	comp.HerbSpawnDate = &today
	s.Require().NoError(s.rooms.Create(s.ctx, comp))

	gm := testutils.CreateTestSeeker("gm", comp.ID, "God", "0a0", "", s.now)
	gm.Role = game.RoleGamemaster
	gm.Water = 999
	gm.LastActionTime = s.now.Add(-48 * time.Hour)
	s.Require().NoError(s.states.Create(s.ctx, gm))

	_, err := s.svc.SubmitAction(s.ctx, "gm", &ActionInput{Kind: ActionGather})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))

	// no thirst for the observer, even after two idle days
	s.InDelta(999.0, s.getState("gm").Water, 0.001)

	result, err := s.svc.SubmitAction(s.ctx, "gm", &ActionInput{Kind: ActionRestore})
	s.Require().NoError(err)
	s.Equal(OutcomeRoomEnded, result.Outcome)

	_, err = s.rooms.Get(s.ctx, comp.ID)
	s.True(engerr.IsNotFound(err))
}

func (s *GameServiceTestSuite) TestSubmitAction_RestoreIsHostOnly() {
	host := testutils.CreateTestSeeker("host-1", s.room.ID, "Red", "1e5", game.SpiritDragon, s.now)
	s.Require().NoError(s.states.Create(s.ctx, host))
	s.addSeeker("alice", "Red", "2e5", game.SpiritTiger)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionRestore})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))

	result, err := s.svc.SubmitAction(s.ctx, "host-1", &ActionInput{Kind: ActionRestore})
	s.Require().NoError(err)
	s.Equal(OutcomeRoomEnded, result.Outcome)

	_, err = s.rooms.Get(s.ctx, s.room.ID)
	s.True(engerr.IsNotFound(err))

	logs := s.publicLogs()
	s.Require().Len(logs, 1)
	s.Contains(logs[0].Message, "reset the game room")
}
