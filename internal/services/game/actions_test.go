package game

import (
	"time"

	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
	"github.com/islandseek/engine/internal/geo"
	"github.com/islandseek/engine/internal/repositories/gamelogs"
)

func (s *GameServiceTestSuite) moveCost(fromToken, toToken string) float64 {
	from, err := geo.Parse(fromToken)
	s.Require().NoError(err)
	to, err := geo.Parse(toToken)
	s.Require().NoError(err)
	return round2(geo.TravelTime(from, to).Hours() * game.DecayPerHour)
}

func (s *GameServiceTestSuite) enableViolence() {
	room, err := s.rooms.Get(s.ctx, s.room.ID)
	s.Require().NoError(err)
	room.ViolenceEnabled = true
	s.Require().NoError(s.rooms.Update(s.ctx, room))
}

func (s *GameServiceTestSuite) placeHerb(location string, kind game.HerbKind) {
	room, err := s.rooms.Get(s.ctx, s.room.ID)
	s.Require().NoError(err)
	if room.HerbMap == nil {
		room.HerbMap = map[string]game.HerbKind{}
	}
	room.HerbMap[location] = kind
	s.Require().NoError(s.rooms.Update(s.ctx, room))
}

func (s *GameServiceTestSuite) teamLogs(team string) []*game.LogEvent {
	logs, err := s.gameLogs.List(s.ctx, &gamelogs.Query{
		RoomID:     s.room.ID,
		Team:       team,
		Visibility: game.VisibilityTeam,
	})
	s.Require().NoError(err)
	return logs
}

func (s *GameServiceTestSuite) TestMove() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.IsDetecting = true
	s.updateState(state)

	cost := s.moveCost("1e5", "2e5")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Equal(OutcomeApplied, result.Outcome)
	s.Contains(result.Message, "moved to '2e5'")

	stored := s.getState("alice")
	s.Equal("2e5", stored.Location)
	s.InDelta(game.MaxWater-cost, stored.Water, 0.001)
	s.False(stored.IsDetecting) // moving breaks detection
	s.Equal(s.now, stored.LastActionTime)

	logs := s.teamLogs("Red")
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "moved from '1e5' to '2e5'")
}

func (s *GameServiceTestSuite) TestMove_SeawaterRejected() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "1a1"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidLocation))

	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))

	s.Equal("1e5", s.getState("alice").Location)
}

func (s *GameServiceTestSuite) TestMove_NotEnoughWaterEliminates() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.Water = 0.05
	s.updateState(state)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2b3"})
	s.Require().NoError(err)
	s.Equal(OutcomeEliminated, result.Outcome)

	_, err = s.states.Get(s.ctx, "alice")
	s.True(engerr.IsNotFound(err))

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "ran out of water while trying to move to '2b3'")
}

func (s *GameServiceTestSuite) TestMove_RevivalHerbCoversTheTrip() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.Water = 0.05
	state.HasRevivalHerb = true
	s.updateState(state)

	cost := s.moveCost("1e5", "2b3")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2b3"})
	s.Require().NoError(err)
	s.Equal(OutcomeApplied, result.Outcome)

	stored := s.getState("alice")
	s.Equal("2b3", stored.Location)
	s.InDelta(game.RevivalFloor-cost, stored.Water, 0.001)
	s.False(stored.HasRevivalHerb)
}

func (s *GameServiceTestSuite) TestMove_SpringsEnemyTrap() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	enemy := s.addSeeker("bob", "Blue", "2g3", game.SpiritTiger)
	trapTime := s.now.Add(-1 * time.Hour)
	enemy.TrapLocation = "2e5"
	enemy.TrapSetAt = &trapTime
	s.updateState(enemy)

	cost := s.moveCost("1e5", "2e5")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Equal(OutcomeApplied, result.Outcome)

	stored := s.getState("alice")
	s.InDelta(game.MaxWater-cost-game.TrapWaterLoss, stored.Water, 0.001)

	// a sprung trap is spent
	storedEnemy := s.getState("bob")
	s.Empty(storedEnemy.TrapLocation)
	s.Nil(storedEnemy.TrapSetAt)

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "fallen into the trap")
}

func (s *GameServiceTestSuite) TestMove_ExpiredTrapDoesNotFire() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	enemy := s.addSeeker("bob", "Blue", "2g3", game.SpiritTiger)
	trapTime := s.now.Add(-game.TrapLifetime - time.Hour)
	enemy.TrapLocation = "2e5"
	enemy.TrapSetAt = &trapTime
	s.updateState(enemy)

	cost := s.moveCost("1e5", "2e5")
	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)

	s.InDelta(game.MaxWater-cost, s.getState("alice").Water, 0.001)
	s.Empty(s.getState("bob").TrapLocation)
}

func (s *GameServiceTestSuite) TestMove_TrapEliminationAndRevivalFloor() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.Water = 3.0
	s.updateState(state)
	enemy := s.addSeeker("bob", "Blue", "2g3", game.SpiritTiger)
	trapTime := s.now.Add(-1 * time.Hour)
	enemy.TrapLocation = "2e5"
	enemy.TrapSetAt = &trapTime
	s.updateState(enemy)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Equal(OutcomeEliminated, result.Outcome)
	_, err = s.states.Get(s.ctx, "alice")
	s.True(engerr.IsNotFound(err))
}

func (s *GameServiceTestSuite) TestMove_TrapRevivalUsesHigherFloor() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.Water = 3.0
	state.HasRevivalHerb = true
	s.updateState(state)
	enemy := s.addSeeker("bob", "Blue", "2g3", game.SpiritTiger)
	trapTime := s.now.Add(-1 * time.Hour)
	enemy.TrapLocation = "2e5"
	enemy.TrapSetAt = &trapTime
	s.updateState(enemy)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Equal(OutcomeApplied, result.Outcome)

	stored := s.getState("alice")
	s.InDelta(game.TrapRevivalFloor, stored.Water, 0.001)
	s.False(stored.HasRevivalHerb)
}

func (s *GameServiceTestSuite) TestMove_CrossingBeastTerritory() {
	s.addSeeker("alice", "Red", "1b6", game.SpiritDragon)

	cost := s.moveCost("1b6", "1i6")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "1i6"})
	s.Require().NoError(err)
	s.Equal(OutcomeApplied, result.Outcome)
	s.Contains(result.Message, "beast")

	// the straight path runs through c6, one of the room's beast squares
	stored := s.getState("alice")
	s.InDelta(game.MaxWater-cost-game.BeastWaterLoss, stored.Water, 0.001)

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "wild beast")
	s.Contains(logs[0].Message, "1i6") // the encounter reveals the position
}

func (s *GameServiceTestSuite) TestMove_NightMakesEveryJungleSquareABeastZone() {
	// 23:00 game-local: outside daytime, e8 is infested even though the room's
	// assigned pair is c6/h4
	s.now = time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC)
	s.addSeeker("alice", "Red", "2d8", game.SpiritDragon)

	cost := s.moveCost("2d8", "2f8")
	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2f8"})
	s.Require().NoError(err)

	s.InDelta(game.MaxWater-cost-game.BeastWaterLoss, s.getState("alice").Water, 0.001)
}

func (s *GameServiceTestSuite) TestMove_CombatDuelWin() {
	s.enableViolence()
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	s.addSeeker("bob", "Blue", "3e5", game.SpiritTiger)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Contains(result.Message, "duel won")

	// Dragon beats Tiger: the loser is drained and stunned, the winner earns
	// the escape teleport
	loser := s.getState("bob")
	s.InDelta(game.CombatLossWater, loser.Water, 0.001)
	s.Require().NotNil(loser.StunExpires)
	s.Equal(s.now.Add(game.StunDuration), *loser.StunExpires)
	s.True(s.getState("alice").HasTeleport)
}

func (s *GameServiceTestSuite) TestMove_CombatDuelLoss() {
	s.enableViolence()
	s.addSeeker("alice", "Red", "1e5", game.SpiritTiger)
	s.addSeeker("bob", "Blue", "3e5", game.SpiritDragon)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Contains(result.Message, "duel lost")

	stored := s.getState("alice")
	s.InDelta(game.CombatLossWater, stored.Water, 0.001)
	s.Require().NotNil(stored.StunExpires)
	s.True(s.getState("bob").HasTeleport)
}

func (s *GameServiceTestSuite) TestMove_CombatDuelDraw() {
	s.enableViolence()
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	s.addSeeker("bob", "Blue", "3e5", game.SpiritDragon)

	cost := s.moveCost("1e5", "2e5")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Contains(result.Message, "draw")

	s.InDelta(game.MaxWater-cost-game.DuelDrawLoss, s.getState("alice").Water, 0.001)
	s.InDelta(game.MaxWater-game.DuelDrawLoss, s.getState("bob").Water, 0.001)
	s.Nil(s.getState("alice").StunExpires)
	s.Nil(s.getState("bob").StunExpires)
}

func (s *GameServiceTestSuite) TestMove_CombatMajorityWins() {
	s.enableViolence()
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	s.addSeeker("carol", "Red", "3e5", game.SpiritBird)
	s.addSeeker("bob", "Blue", "4e5", game.SpiritTiger)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Contains(result.Message, "overwhelming numbers")

	s.InDelta(game.CombatLossWater, s.getState("bob").Water, 0.001)
	s.NotNil(s.getState("bob").StunExpires)
	s.True(s.getState("alice").HasTeleport)
	s.InDelta(game.MaxWater, s.getState("carol").Water, 0.001)
}

func (s *GameServiceTestSuite) TestMove_CombatEqualForcesStandOff() {
	s.enableViolence()
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	s.addSeeker("carol", "Red", "3e5", game.SpiritBird)
	s.addSeeker("bob", "Blue", "4e5", game.SpiritTiger)
	s.addSeeker("dave", "Blue", "4e5", game.SpiritTortoise)

	cost := s.moveCost("1e5", "2e5")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Contains(result.Message, "standoff")

	s.InDelta(game.MaxWater-cost, s.getState("alice").Water, 0.001)
	s.InDelta(game.MaxWater, s.getState("bob").Water, 0.001)
	s.Nil(s.getState("bob").StunExpires)

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "Standoff")
}

func (s *GameServiceTestSuite) TestMove_CombatDuelAfterCrossingSquares() {
	// the mover arrives from a neighboring main square; the fight is judged at
	// the destination, not where the stored record last saw them
	s.enableViolence()
	s.addSeeker("alice", "Red", "1f5", game.SpiritDragon)
	s.addSeeker("bob", "Blue", "3e5", game.SpiritTiger)

	cost := s.moveCost("1f5", "2e5")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Contains(result.Message, "duel won")

	loser := s.getState("bob")
	s.InDelta(game.CombatLossWater, loser.Water, 0.001)
	s.Require().NotNil(loser.StunExpires)
	winner := s.getState("alice")
	s.True(winner.HasTeleport)
	s.InDelta(game.MaxWater-cost, winner.Water, 0.001)
	s.Nil(winner.StunExpires)
}

func (s *GameServiceTestSuite) TestMove_CombatMajorityCountsTheArrivingMover() {
	s.enableViolence()
	s.addSeeker("alice", "Red", "1f5", game.SpiritDragon)
	s.addSeeker("carol", "Red", "3e5", game.SpiritBird)
	s.addSeeker("bob", "Blue", "4e5", game.SpiritTiger)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Contains(result.Message, "overwhelming numbers")

	s.InDelta(game.CombatLossWater, s.getState("bob").Water, 0.001)
	s.NotNil(s.getState("bob").StunExpires)
	s.True(s.getState("alice").HasTeleport)
	s.Nil(s.getState("carol").StunExpires)
}

func (s *GameServiceTestSuite) TestMove_CombatStandOffAfterCrossingSquares() {
	s.enableViolence()
	s.addSeeker("alice", "Red", "1f5", game.SpiritDragon)
	s.addSeeker("carol", "Red", "3e5", game.SpiritBird)
	s.addSeeker("bob", "Blue", "4e5", game.SpiritTiger)
	s.addSeeker("dave", "Blue", "2e5", game.SpiritTortoise)

	cost := s.moveCost("1f5", "2e5")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionMove, Location: "2e5"})
	s.Require().NoError(err)
	s.Contains(result.Message, "standoff")

	s.InDelta(game.MaxWater-cost, s.getState("alice").Water, 0.001)
	s.InDelta(game.MaxWater, s.getState("bob").Water, 0.001)
	s.Nil(s.getState("bob").StunExpires)
	s.Nil(s.getState("dave").StunExpires)
}

func (s *GameServiceTestSuite) TestSearch_MissAndBudget() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionSearch})
	s.Require().NoError(err)
	s.Contains(result.Message, "no one is here")
	s.Equal(0, s.getState("alice").Budgets.Search)

	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionSearch})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInsufficientResource))

	// the budget returns on the next game day
	s.now = s.now.Add(24 * time.Hour)
	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionSearch})
	s.NoError(err)
}

func (s *GameServiceTestSuite) TestSearch_FindingTheHiderEndsTheRoom() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	s.addSeeker("bob", "Red", "2g3", game.SpiritTiger)
	s.addHider("h1", "Blue", "1e5")

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionSearch})
	s.Require().NoError(err)
	s.Equal(OutcomeRoomEnded, result.Outcome)

	// the point pool splits across the whole winning team
	s.InDelta(30.0, s.scores.totals["alice"], 0.001)
	s.InDelta(30.0, s.scores.totals["bob"], 0.001)

	_, err = s.rooms.Get(s.ctx, s.room.ID)
	s.True(engerr.IsNotFound(err))

	logs := s.publicLogs()
	s.Require().Len(logs, 1)
	s.Contains(logs[0].Message, "WON!")
}

func (s *GameServiceTestSuite) TestDetect_Budget() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)

	for i := 0; i < game.BaseDetectTurns; i++ {
		_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
		s.Require().NoError(err)
	}
	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDetect})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInsufficientResource))
}

func (s *GameServiceTestSuite) TestGather_HerbFromDailySpawn() {
	s.placeHerb("1e5", game.HerbRevival)
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.Contains(result.Message, string(game.HerbRevival))

	stored := s.getState("alice")
	s.True(stored.HasRevivalHerb)
	s.Equal(game.BaseGatherTurns-1, stored.Budgets.Gather)
}

func (s *GameServiceTestSuite) TestGather_TrapKitIsAnnouncedPublicly() {
	s.placeHerb("1e5", game.HerbTrapKit)
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.True(s.getState("alice").HasTrapKit)

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, string(game.HerbTrapKit))
}

func (s *GameServiceTestSuite) TestGather_DetectImmunityInertWhenFullyTracked() {
	s.placeHerb("1e5", game.HerbDetectImmunity)
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	for _, enemy := range []string{"bob", "dave"} {
		e := s.addSeeker(enemy, "Blue", "2g3", game.SpiritTiger)
		e.HasTracked = true
		s.updateState(e)
	}

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.Contains(result.Message, "no effect")
	s.False(s.getState("alice").HasDetectImmunity)
}

func (s *GameServiceTestSuite) TestGather_DetectImmunityWorksWhileAnyEnemyHasNotTracked() {
	s.placeHerb("1e5", game.HerbDetectImmunity)
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	tracked := s.addSeeker("bob", "Blue", "2g3", game.SpiritTiger)
	tracked.HasTracked = true
	s.updateState(tracked)
	s.addSeeker("dave", "Blue", "2g3", game.SpiritBird)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.True(s.getState("alice").HasDetectImmunity)
}

func (s *GameServiceTestSuite) TestGather_EmptySquare() {
	s.addSeeker("alice", "Red", "1f5", game.SpiritDragon)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.Contains(result.Message, "nothing is here")
	s.Equal(game.BaseGatherTurns-1, s.getState("alice").Budgets.Gather)
}

func (s *GameServiceTestSuite) TestGather_SpecialEveningHerb() {
	// 20:30 game-local with the rolled minute already passed
	s.now = time.Date(2025, 3, 1, 13, 30, 0, 0, time.UTC)
	s.addSeeker("alice", "Red", geo.SpecialHerbToken, game.SpiritDragon)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.Contains(result.Message, "tram_tuong")
	s.Equal(game.BaseDetectTurns+1, s.getState("alice").Budgets.Detect)
}

func (s *GameServiceTestSuite) TestGather_SpecialHerbNotSproutedYet() {
	room, err := s.rooms.Get(s.ctx, s.room.ID)
	s.Require().NoError(err)
	minute := game.SpecialHerbWindowMinutes - 1
	room.SpecialHerbMinute = &minute
	s.Require().NoError(s.rooms.Update(s.ctx, room))

	s.now = time.Date(2025, 3, 1, 13, 30, 0, 0, time.UTC)
	s.addSeeker("alice", "Red", geo.SpecialHerbToken, game.SpiritDragon)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.Contains(result.Message, "found nothing")
	s.Equal(game.BaseDetectTurns, s.getState("alice").Budgets.Detect)
}

func (s *GameServiceTestSuite) TestGather_PurifierOncePerDay() {
	s.addSeeker("alice", "Red", geo.PurifierHerbToken, game.SpiritDragon)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.Contains(result.Message, "hai_tam")
	stored := s.getState("alice")
	s.True(stored.HasPurifier)
	s.True(stored.Budgets.GatheredPurifierToday)

	result, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionGather})
	s.Require().NoError(err)
	s.Contains(result.Message, "come back tomorrow")
}

func (s *GameServiceTestSuite) TestTakeWater() {
	state := s.addSeeker("alice", "Red", "1d5", game.SpiritDragon)
	state.Water = 5.0
	s.updateState(state)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTakeWater})
	s.Require().NoError(err)
	s.Contains(result.Message, "refilled")

	stored := s.getState("alice")
	s.InDelta(game.MaxWater, stored.Water, 0.001)
	s.Equal(0, stored.Budgets.TakeWater)

	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTakeWater})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInsufficientResource))
}

func (s *GameServiceTestSuite) TestTakeWater_RequiresFreshWaterAndThirst() {
	s.addSeeker("alice", "Red", "1d5", game.SpiritDragon)
	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTakeWater})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed)) // already full

	dry := s.addSeeker("bob", "Red", "1e5", game.SpiritTiger)
	dry.Water = 5.0
	s.updateState(dry)
	_, err = s.svc.SubmitAction(s.ctx, "bob", &ActionInput{Kind: ActionTakeWater})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed)) // no spring here
}

func (s *GameServiceTestSuite) TestPurifyWater() {
	state := s.addSeeker("alice", "Red", geo.PurifierHerbToken, game.SpiritDragon)
	state.Water = 3.0
	state.HasPurifier = true
	s.updateState(state)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionPurifyWater})
	s.Require().NoError(err)
	s.Contains(result.Message, "filtrated")

	stored := s.getState("alice")
	s.InDelta(game.MaxWater, stored.Water, 0.001)
	s.False(stored.HasPurifier)
}

func (s *GameServiceTestSuite) TestPurifyWater_Preconditions() {
	s.addSeeker("alice", "Red", geo.PurifierHerbToken, game.SpiritDragon)
	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionPurifyWater})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeItemMissing))

	inland := s.addSeeker("bob", "Red", "1e5", game.SpiritTiger)
	inland.HasPurifier = true
	s.updateState(inland)
	_, err = s.svc.SubmitAction(s.ctx, "bob", &ActionInput{Kind: ActionPurifyWater})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))
}

func (s *GameServiceTestSuite) TestSetTrap() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.HasTrapKit = true
	s.updateState(state)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionSetTrap, Location: "2g3"})
	s.Require().NoError(err)
	s.Contains(result.Message, "trap set in '2g3'")

	stored := s.getState("alice")
	s.Equal("2g3", stored.TrapLocation)
	s.Require().NotNil(stored.TrapSetAt)
	s.Equal(s.now, *stored.TrapSetAt)
	s.False(stored.HasTrapKit)

	// the announcement never names the square
	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "somewhere on the island")
	s.NotContains(logs[0].Message, "2g3")
}

func (s *GameServiceTestSuite) TestSetTrap_Preconditions() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionSetTrap, Location: "2g3"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeItemMissing))

	armed := s.addSeeker("bob", "Red", "2e5", game.SpiritTiger)
	armed.HasTrapKit = true
	s.updateState(armed)

	_, err = s.svc.SubmitAction(s.ctx, "bob", &ActionInput{Kind: ActionSetTrap, Location: "1a1"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidLocation)) // seawater

	_, err = s.svc.SubmitAction(s.ctx, "bob", &ActionInput{Kind: ActionSetTrap, Location: "1d5"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidLocation)) // fresh water
}

func (s *GameServiceTestSuite) TestDiscloseTrace() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.HasDisclosure = true
	s.updateState(state)
	s.addSeeker("bob", "Blue", "2e5", game.SpiritTiger)

	// 08:00 game-local
	s.Require().NoError(s.gameLogs.Append(s.ctx, &game.LogEvent{
		Timestamp:  s.now.Add(-2 * time.Hour),
		Message:    "Seeker 'bob' (Blue) moved from '1e5' to '2e5'.",
		PlayerID:   "bob",
		RoomID:     s.room.ID,
		Team:       "Blue",
		Visibility: game.VisibilityTeam,
	}))

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDiscloseTrace, TargetID: "bob"})
	s.Require().NoError(err)
	s.Contains(result.Message, "disclosed 'bob'")
	s.False(s.getState("alice").HasDisclosure)

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "MOVING HISTORY")
	s.Contains(logs[0].Message, "[08:00] moved from '1e5' to '2e5'")
}

func (s *GameServiceTestSuite) TestDiscloseTrace_NoMovesToday() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.HasDisclosure = true
	s.updateState(state)
	s.addSeeker("bob", "Blue", "2e5", game.SpiritTiger)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDiscloseTrace, TargetID: "bob"})
	s.Require().NoError(err)

	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "there is not any move today")
}

func (s *GameServiceTestSuite) TestDiscloseTrace_InvalidTargets() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.HasDisclosure = true
	s.updateState(state)
	s.addSeeker("carol", "Red", "2e5", game.SpiritTiger)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDiscloseTrace, TargetID: "carol"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidTarget)) // teammate

	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionDiscloseTrace, TargetID: "ghost"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidTarget))
}

func (s *GameServiceTestSuite) TestTransferWater_Local() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	receiver := s.addSeeker("bob", "Red", "1e5", game.SpiritTiger)
	receiver.Water = 5.0
	s.updateState(receiver)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{
		Kind: ActionTransferWater, TargetID: "bob", Amount: 2.5,
	})
	s.Require().NoError(err)
	s.Contains(result.Message, "transferred 2.50 water")

	s.InDelta(7.5, s.getState("alice").Water, 0.001)
	s.InDelta(7.5, s.getState("bob").Water, 0.001)
}

func (s *GameServiceTestSuite) TestTransferWater_ReceiverCapped() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	receiver := s.addSeeker("bob", "Red", "1e5", game.SpiritTiger)
	receiver.Water = 9.0
	s.updateState(receiver)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{
		Kind: ActionTransferWater, TargetID: "bob", Amount: 2.5,
	})
	s.Require().NoError(err)

	s.InDelta(7.5, s.getState("alice").Water, 0.001) // sender pays in full
	s.InDelta(game.MaxWater, s.getState("bob").Water, 0.001)
}

func (s *GameServiceTestSuite) TestTransferWater_ReserveAndTargets() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	s.addSeeker("bob", "Red", "1e5", game.SpiritTiger)
	s.addSeeker("eve", "Blue", "1e5", game.SpiritBird)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{
		Kind: ActionTransferWater, TargetID: "bob", Amount: 9.8,
	})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInsufficientResource)) // reserve kept

	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{
		Kind: ActionTransferWater, TargetID: "eve", Amount: 1,
	})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidTarget)) // enemy

	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{
		Kind: ActionTransferWater, TargetID: "alice", Amount: 1,
	})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidTarget)) // self
}

func (s *GameServiceTestSuite) TestTransferWater_RemoteNeedsTheHerb() {
	sender := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	s.addSeeker("bob", "Red", "2g3", game.SpiritTiger)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{
		Kind: ActionTransferWater, TargetID: "bob", Amount: 1,
	})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))

	sender.HasRemoteWater = true
	s.updateState(sender)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{
		Kind: ActionTransferWater, TargetID: "bob", Amount: 1,
	})
	s.Require().NoError(err)
	s.Contains(result.Message, "transferred 1.00 water")
	s.False(s.getState("alice").HasRemoteWater)

	logs := s.teamLogs("Red")
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "REMOTE")
}

func (s *GameServiceTestSuite) TestTeleport() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.HasTeleport = true
	state.IsDetecting = true
	s.updateState(state)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTeleport, Location: "2g3"})
	s.Require().NoError(err)
	s.Contains(result.Message, "teleported from 1e5 to 2g3")

	stored := s.getState("alice")
	s.Equal("2g3", stored.Location)
	s.False(stored.HasTeleport)
	s.False(stored.IsDetecting)
	s.InDelta(game.MaxWater, stored.Water, 0.001) // teleporting is free
}

func (s *GameServiceTestSuite) TestTeleport_IntoATrap() {
	state := s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	state.HasTeleport = true
	s.updateState(state)
	enemy := s.addSeeker("bob", "Blue", "1e5", game.SpiritTiger)
	trapTime := s.now.Add(-1 * time.Hour)
	enemy.TrapLocation = "2g3"
	enemy.TrapSetAt = &trapTime
	s.updateState(enemy)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTeleport, Location: "2g3"})
	s.Require().NoError(err)
	s.InDelta(game.MaxWater-game.TrapWaterLoss, s.getState("alice").Water, 0.001)
}

func (s *GameServiceTestSuite) TestTeleport_Preconditions() {
	s.addSeeker("alice", "Red", "1e5", game.SpiritDragon)
	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTeleport, Location: "2g3"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeItemMissing))

	state := s.getState("alice")
	state.HasTeleport = true
	s.updateState(state)
	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTeleport, Location: "1a1"})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidLocation))
}

func (s *GameServiceTestSuite) TestTrack_SensesTheHiderNearby() {
	state := s.addSeeker("alice", "Red", "1f5", game.SpiritDragon)
	state.LastActivityTime = s.now.Add(-13 * time.Hour)
	s.updateState(state)
	s.addHider("h1", "Blue", "2e5")
	immune := s.addSeeker("bob", "Blue", "2g3", game.SpiritTiger)
	immune.HasDetectImmunity = true
	s.updateState(immune)

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTrack})
	s.Require().NoError(err)
	s.Contains(result.Message, "nearby")

	stored := s.getState("alice")
	s.True(stored.HasTracked)
	s.Equal(s.now, stored.LastActivityTime)
	s.InDelta(game.MaxWater, stored.Water, 0.001) // tracking is free

	// a successful track dispels the tracked team's immunity herbs
	s.False(s.getState("bob").HasDetectImmunity)
	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "dispelled")
}

func (s *GameServiceTestSuite) TestTrack_MissRefreshesEligibility() {
	state := s.addSeeker("alice", "Red", "2c3", game.SpiritDragon)
	state.LastActivityTime = s.now.Add(-13 * time.Hour)
	s.updateState(state)
	s.addHider("h1", "Blue", "2e5")

	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTrack})
	s.Require().NoError(err)
	s.Contains(result.Message, "sense nothing")
	s.False(s.getState("alice").HasTracked)

	// the miss still consumed the idle window
	_, err = s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTrack})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))
}

func (s *GameServiceTestSuite) TestTrack_NoHiderKeepsEligibility() {
	state := s.addSeeker("alice", "Red", "1f5", game.SpiritDragon)
	state.LastActivityTime = s.now.Add(-13 * time.Hour)
	s.updateState(state)

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTrack})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodeInvalidTarget))

	// a rejected track commits nothing, the idle window is still open
	s.Equal(s.now.Add(-13*time.Hour), s.getState("alice").LastActivityTime)

	s.addHider("h1", "Blue", "2e5")
	result, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTrack})
	s.Require().NoError(err)
	s.Contains(result.Message, "nearby")
}

func (s *GameServiceTestSuite) TestTrack_RequiresLongIdle() {
	s.addSeeker("alice", "Red", "1f5", game.SpiritDragon)
	s.addHider("h1", "Blue", "2e5")

	_, err := s.svc.SubmitAction(s.ctx, "alice", &ActionInput{Kind: ActionTrack})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))
}

func (s *GameServiceTestSuite) TestEmitSignal() {
	s.addHider("h1", "Red", "1e5")
	s.addSeeker("bob", "Red", "2g3", game.SpiritTiger)
	s.addSeeker("carol", "Red", "2c3", game.SpiritBird)
	s.addSeeker("eve", "Blue", "2e7", game.SpiritTortoise)

	result, err := s.svc.SubmitAction(s.ctx, "h1", &ActionInput{Kind: ActionEmitSignal})
	s.Require().NoError(err)
	s.Contains(result.Message, "bob, carol")

	s.True(s.getState("h1").HasUsedGambit)
	for _, teammate := range []string{"bob", "carol"} {
		stored := s.getState(teammate)
		s.Equal(game.BaseSearchTurns+1, stored.Budgets.Search)
		s.Equal(game.BaseGatherTurns+1, stored.Budgets.Gather)
	}
	// enemies get nothing
	s.Equal(game.BaseSearchTurns, s.getState("eve").Budgets.Search)

	// the gambit broadcasts the main square only
	logs := s.publicLogs()
	s.Require().NotEmpty(logs)
	s.Contains(logs[0].Message, "GAMBIT")
	s.Contains(logs[0].Message, "'e5'")
	s.NotContains(logs[0].Message, "1e5")

	_, err = s.svc.SubmitAction(s.ctx, "h1", &ActionInput{Kind: ActionEmitSignal})
	s.Require().Error(err)
	s.True(engerr.Is(err, engerr.CodePreconditionFailed))
}

func (s *GameServiceTestSuite) TestSurrender() {
	s.addHider("h1", "Red", "1e5")
	s.addSeeker("bob", "Red", "2g3", game.SpiritTiger)
	s.addSeeker("carol", "Red", "2c3", game.SpiritBird)

	result, err := s.svc.SubmitAction(s.ctx, "h1", &ActionInput{Kind: ActionSurrender})
	s.Require().NoError(err)
	s.Equal(OutcomeRoomEnded, result.Outcome)

	s.InDelta(-float64(game.ElimPenaltyPts), s.scores.totals["bob"], 0.001)
	s.InDelta(-float64(game.ElimPenaltyPts), s.scores.totals["carol"], 0.001)

	_, err = s.rooms.Get(s.ctx, s.room.ID)
	s.True(engerr.IsNotFound(err))

	logs := s.publicLogs()
	s.Require().Len(logs, 1)
	s.Contains(logs[0].Message, "LOST!")
}
