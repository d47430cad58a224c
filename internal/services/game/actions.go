package game

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/islandseek/engine/internal/clock"
	"github.com/islandseek/engine/internal/domain/game"
	engerr "github.com/islandseek/engine/internal/errors"
	"github.com/islandseek/engine/internal/geo"
	"github.com/islandseek/engine/internal/repositories/gamelogs"
)

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func (s *service) resolveMove(ctx context.Context, r *resolution, target string) error {
	state := r.state

	if target == "" {
		return engerr.PreconditionFailed("empty coordinate")
	}
	if geo.IsSeawater(target) {
		return engerr.InvalidLocationf("can't move to '%s' because it is seawater", target)
	}

	from, err := geo.Parse(state.Location)
	if err != nil {
		return engerr.Internalf("session holds a malformed location '%s'", state.Location)
	}
	to, err := geo.Parse(target)
	if err != nil {
		return err
	}

	travel := geo.TravelTime(from, to)
	waterCost := round2(travel.Hours() * game.DecayPerHour)

	if state.Water-waterCost < 0 {
		revived := false
		if state.HasRevivalHerb {
			state.HasRevivalHerb = false
			state.Water = game.RevivalFloor
			r.mark(state)
			s.appendLog(r, game.VisibilityPublic, state,
				fmt.Sprintf("Player '%s' (%s) used the revival herb 'quynh_tam' to revive.", state.Name, state.Team))
			revived = true
		}
		if state.Water-waterCost < 0 {
			if err := s.eliminate(ctx, r, game.StatusEliminatedThirst,
				fmt.Sprintf("ran out of water while trying to move to '%s'", target)); err != nil {
				return err
			}
			if revived {
				r.message = "even the revival herb could not cover this trip, you are eliminated"
			} else {
				r.message = "you don't have enough water for this trip, you are eliminated"
			}
			return nil
		}
	}

	state.Water -= waterCost
	state.Location = target
	state.Touch(r.now)
	state.IsDetecting = false
	r.mark(state)

	hit, err := s.springTraps(ctx, r)
	if err != nil {
		return err
	}
	if hit {
		survived, err := s.surviveOrEliminate(ctx, r, game.TrapRevivalFloor, game.StatusEliminatedTrap,
			"stepped into a trap",
			fmt.Sprintf("Player '%s' used the revival herb 'quynh_tam' to survive a trap.", state.Name))
		if err != nil || !survived {
			return err
		}
	}

	s.appendLog(r, game.VisibilityTeam, state,
		fmt.Sprintf("Seeker '%s' (%s) moved from '%s' to '%s'.", state.Name, state.Team, from.Token, target))
	r.message = fmt.Sprintf("moved to '%s', spent %.1f hour(s) and %.2f water bar(s)", target, travel.Hours(), waterCost)

	if r.room.ViolenceEnabled {
		if err := s.resolveCombat(ctx, r); err != nil {
			return err
		}
		if r.outcome == OutcomeEliminated {
			return nil
		}
	}

	return s.checkBeastCrossings(ctx, r, from, to)
}

// springTraps fires any armed enemy trap at the mover's new location, and
// clears expired ones along the way.
func (s *service) springTraps(ctx context.Context, r *resolution) (bool, error) {
	others, err := s.states.ListByRoom(ctx, r.room.ID)
	if err != nil {
		return false, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
	}

	state := r.state
	hit := false
	for _, enemy := range others {
		if enemy.Team == state.Team || enemy.Role != game.RoleSeeker {
			continue
		}
		if enemy.TrapActiveAt(state.Location, r.now) {
			hit = true
			state.Water -= game.TrapWaterLoss
			enemy.ClearTrap()
			r.mark(enemy)
			s.appendLog(r, game.VisibilityPublic, state,
				fmt.Sprintf("Seeker '%s' (%s) has fallen into the trap of '%s' at '%s' and lost %.1f water bars!",
					state.Name, state.Team, enemy.Name, state.Location, game.TrapWaterLoss))
		} else if enemy.TrapExpired(r.now) {
			enemy.ClearTrap()
			r.mark(enemy)
		}
	}
	return hit, nil
}

// surviveOrEliminate handles a water loss that may have emptied the tank:
// nothing when still positive, revival at the given floor when the herb is
// held, elimination otherwise. Returns false when the submitter was removed.
func (s *service) surviveOrEliminate(ctx context.Context, r *resolution, floor float64, status game.Status, reason, reviveMessage string) (bool, error) {
	state := r.state
	if state.Water > 0 {
		return true, nil
	}
	if state.HasRevivalHerb {
		state.HasRevivalHerb = false
		state.Water = floor
		r.mark(state)
		s.appendLog(r, game.VisibilityPublic, state, reviveMessage)
		return true, nil
	}
	if err := s.eliminate(ctx, r, status, reason); err != nil {
		return false, err
	}
	r.message = fmt.Sprintf("you %s and ran out of water, you are eliminated", reason)
	return false, nil
}

// resolveCombat settles a violence-enabled move that landed among enemies on
// the same main square. Majority crushes minority; a 1v1 goes to the spirit
// duel; equal sides above one fighter each stand off with no penalty.
func (s *service) resolveCombat(ctx context.Context, r *resolution) error {
	state := r.state
	loc, err := geo.Parse(state.Location)
	if err != nil {
		return engerr.Internalf("session holds a malformed location '%s'", state.Location)
	}
	mainSquare := loc.MainSquare()

	others, err := s.states.ListByRoom(ctx, r.room.ID)
	if err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
	}

	var allies, enemies []*game.PlayerSession
	for _, p := range others {
		// the stored copy of the submitter predates the move, use the live state
		if p.PlayerID == state.PlayerID {
			p = state
		}
		if p.Role != game.RoleSeeker || !p.IsActive() {
			continue
		}
		ploc, err := geo.Parse(p.Location)
		if err != nil || ploc.MainSquare() != mainSquare {
			continue
		}
		if p.Team == state.Team {
			allies = append(allies, p)
		} else {
			enemies = append(enemies, p)
		}
	}
	if len(enemies) == 0 {
		return nil
	}

	switch {
	case len(allies) > len(enemies):
		for _, enemy := range enemies {
			s.applyCombatPenalty(r, enemy)
		}
		state.HasTeleport = true
		r.mark(state)
		s.appendLog(r, game.VisibilityPublic, state,
			fmt.Sprintf("Combat in '%s': %s (the majority) defeated %s.", mainSquare, state.Team, enemies[0].Team))
		r.message = "combat won by overwhelming numbers, the enemies are stunned"

	case len(enemies) > len(allies):
		for _, ally := range allies {
			s.applyCombatPenalty(r, ally)
		}
		enemies[0].HasTeleport = true
		r.mark(enemies[0])
		s.appendLog(r, game.VisibilityPublic, state,
			fmt.Sprintf("Combat in '%s': %s is dominated by %s.", mainSquare, state.Team, enemies[0].Team))
		r.message = "combat lost, there are too many enemies and you are stunned"

	case len(allies) == 1:
		enemy := enemies[0]
		switch game.ResolveSpiritDuel(state.SpiritClass, enemy.SpiritClass) {
		case game.DuelWin:
			s.applyCombatPenalty(r, enemy)
			state.HasTeleport = true
			r.mark(state)
			s.appendLog(r, game.VisibilityPublic, state,
				fmt.Sprintf("Duel in '%s': %s defeated %s.", mainSquare, state.Name, enemy.Name))
			r.message = "duel won, your spirit counters the enemy's"
		case game.DuelLose:
			s.applyCombatPenalty(r, state)
			enemy.HasTeleport = true
			r.mark(enemy)
			s.appendLog(r, game.VisibilityPublic, state,
				fmt.Sprintf("Duel in '%s': %s is defeated by %s.", mainSquare, state.Name, enemy.Name))
			r.message = "duel lost, your spirit is countered and you are stunned"
		default:
			state.Water -= game.DuelDrawLoss
			enemy.Water -= game.DuelDrawLoss
			r.mark(state)
			r.mark(enemy)
			s.appendLog(r, game.VisibilityPublic, state,
				fmt.Sprintf("Duel in '%s': %s and %s draw.", mainSquare, state.Name, enemy.Name))
			r.message = fmt.Sprintf("a draw between equally matched spirits, both lost %.1f water bar", game.DuelDrawLoss)
		}

	default:
		// equal forces above one fighter each: a standoff, nobody commits
		s.appendLog(r, game.VisibilityPublic, state,
			fmt.Sprintf("Standoff in '%s': %s and %s face each other in equal numbers.", mainSquare, state.Team, enemies[0].Team))
		r.message = "the forces are evenly matched, a standoff"
	}
	return nil
}

func (s *service) applyCombatPenalty(r *resolution, loser *game.PlayerSession) {
	loser.Water = game.CombatLossWater
	stunUntil := r.now.Add(game.StunDuration)
	loser.StunExpires = &stunUntil
	r.mark(loser)
}

// checkBeastCrossings charges every beast territory the move path crossed.
func (s *service) checkBeastCrossings(ctx context.Context, r *resolution, from, to geo.Location) error {
	state := r.state

	for _, beastSquare := range r.room.BeastSquares(r.now, geo.JungleSquares) {
		cell, err := geo.ParseMainSquare(beastSquare)
		if err != nil {
			s.log.Errorw("room holds a malformed beast square",
				"room_id", r.room.ID, "square", beastSquare)
			continue
		}
		if !geo.SegmentIntersectsCell(from, to, cell) {
			continue
		}

		state.Water -= game.BeastWaterLoss
		r.mark(state)
		s.appendLog(r, game.VisibilityPublic, state,
			fmt.Sprintf("Seeker '%s' (%s) encountered a wild beast! Their current position is %s.",
				state.Name, state.Team, state.Location))
		r.message = fmt.Sprintf("you ran through a beast's territory, lost an extra %.1f water and your position was revealed", game.BeastWaterLoss)

		survived, err := s.surviveOrEliminate(ctx, r, game.RevivalFloor, game.StatusEliminatedBeast,
			fmt.Sprintf("was attacked by a beast while moving to '%s'", state.Location),
			fmt.Sprintf("Player '%s' (%s) used the revival herb 'quynh_tam' to survive the beast.", state.Name, state.Team))
		if err != nil || !survived {
			return err
		}
	}
	return nil
}

func (s *service) resolveSearch(ctx context.Context, r *resolution) error {
	state := r.state
	if state.Budgets.Search <= 0 {
		return engerr.InsufficientResource("you ran out of turns to search today")
	}

	state.Budgets.Search--
	state.Touch(r.now)
	r.mark(state)

	others, err := s.states.ListByRoom(ctx, r.room.ID)
	if err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
	}

	var found *game.PlayerSession
	for _, p := range others {
		if p.Role == game.RoleHider && p.Team != state.Team && p.Location == state.Location {
			found = p
			break
		}
	}

	if found == nil {
		s.appendLog(r, game.VisibilityPrivate, state,
			fmt.Sprintf("Seeker '%s' searched '%s' but found nothing.", state.Name, state.Location))
		r.message = fmt.Sprintf("you searched '%s', no one is here", state.Location)
		return nil
	}

	// win: split the point pool across the active winners
	var winners []*game.PlayerSession
	for _, p := range others {
		if p.Team == state.Team && p.IsActive() {
			winners = append(winners, p)
		}
	}
	if len(winners) > 0 {
		pointsEach := round2(game.WinPointPool / float64(len(winners)))
		for _, winner := range winners {
			r.scores[winner.PlayerID] += pointsEach
		}
	}

	r.outcome = OutcomeRoomEnded
	r.message = fmt.Sprintf("you found the Hider! %s wins, the game is over", state.Team)
	r.terminate = &game.LogEvent{
		Message: fmt.Sprintf("Seeker '%s' (%s) found the hider '%s' (%s) in '%s'. %s WON!",
			state.Name, state.Team, found.Name, found.Team, state.Location, state.Team),
		PlayerID: state.PlayerID,
	}
	return nil
}

func (s *service) resolveDetect(_ context.Context, r *resolution) error {
	state := r.state
	if state.Budgets.Detect <= 0 {
		return engerr.InsufficientResource("you ran out of turns to detect today")
	}

	state.Budgets.Detect--
	state.IsDetecting = true
	state.Touch(r.now)
	r.mark(state)

	s.appendLog(r, game.VisibilityTeam, state,
		fmt.Sprintf("Seeker '%s' used Detect to reveal enemies.", state.Name))
	r.message = fmt.Sprintf("detect activated, you can now see opposing Seekers (turns left: %d)", state.Budgets.Detect)
	return nil
}

func (s *service) resolveGather(ctx context.Context, r *resolution) error {
	state := r.state
	if state.Budgets.Gather <= 0 {
		return engerr.InsufficientResource("you ran out of turns to gather today")
	}

	state.Budgets.Gather--
	state.Touch(r.now)
	r.mark(state)

	herb, hasHerb := r.room.HerbMap[state.Location]
	if hasHerb {
		return s.gatherHerb(ctx, r, herb)
	}

	switch state.Location {
	case geo.SpecialHerbToken:
		if r.room.SpecialHerbAvailable(r.now) {
			state.Budgets.Detect++
			s.appendLog(r, game.VisibilityTeam, state,
				fmt.Sprintf("Seeker '%s' (%s) gathered the special herb 'tram_tuong' in '%s'.", state.Name, state.Team, geo.SpecialHerbToken))
			r.message = "you gathered the special herb 'tram_tuong', +1 detect turn"
		} else {
			s.appendLog(r, game.VisibilityPrivate, state,
				fmt.Sprintf("Seeker '%s' (%s) gathered in '%s' but found nothing.", state.Name, state.Team, geo.SpecialHerbToken))
			r.message = fmt.Sprintf("you gathered '%s' but found nothing", state.Location)
		}
	case geo.PurifierHerbToken:
		if state.Budgets.GatheredPurifierToday {
			s.appendLog(r, game.VisibilityPrivate, state,
				fmt.Sprintf("Seeker '%s' (%s) gathered at '%s' but found nothing.", state.Name, state.Team, state.Location))
			r.message = "the herbs here have all been picked, come back tomorrow"
		} else {
			state.HasPurifier = true
			state.Budgets.GatheredPurifierToday = true
			s.appendLog(r, game.VisibilityTeam, state,
				fmt.Sprintf("Seeker '%s' (%s) gathered the purifier herb 'hai_tam'.", state.Name, state.Team))
			r.message = "you gathered the seawater purifier herb 'hai_tam'"
		}
	default:
		s.appendLog(r, game.VisibilityTeam, state,
			fmt.Sprintf("Seeker '%s' (%s) gathered at '%s' but found nothing.", state.Name, state.Team, state.Location))
		r.message = fmt.Sprintf("you gathered '%s', nothing is here", state.Location)
	}
	return nil
}

func (s *service) gatherHerb(ctx context.Context, r *resolution, herb game.HerbKind) error {
	state := r.state

	gained := func(visibility game.Visibility, suffix string) {
		s.appendLog(r, visibility, state,
			fmt.Sprintf("Seeker '%s' (%s) gathered '%s'%s.", state.Name, state.Team, herb, suffix))
		r.message = fmt.Sprintf("you gathered '%s' successfully", herb)
	}

	switch herb {
	case game.HerbRemoteWater:
		state.HasRemoteWater = true
		gained(game.VisibilityTeam, "")
	case game.HerbTeleport:
		state.HasTeleport = true
		gained(game.VisibilityTeam, "")
	case game.HerbRevival:
		state.HasRevivalHerb = true
		gained(game.VisibilityTeam, "")
	case game.HerbBeastSight:
		state.HasBeastSight = true
		gained(game.VisibilityTeam, "")
	case game.HerbDisclosure:
		state.HasDisclosure = true
		gained(game.VisibilityPublic, "")
	case game.HerbTrapKit:
		state.HasTrapKit = true
		gained(game.VisibilityPublic, ", they can now set a trap")
	case game.HerbDetectImmunity:
		// inert when every enemy Seeker has already tracked the Hider
		others, err := s.states.ListByRoom(ctx, r.room.ID)
		if err != nil {
			return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
		}
		enemySeekers := 0
		allTracked := true
		for _, p := range others {
			if p.Team != state.Team && p.Role == game.RoleSeeker {
				enemySeekers++
				if !p.HasTracked {
					allTracked = false
				}
			}
		}
		if enemySeekers > 0 && allTracked {
			s.appendLog(r, game.VisibilityPublic, state,
				fmt.Sprintf("Seeker '%s' (%s) gathered '%s', but it had no effect: the Hider was already tracked by every enemy.",
					state.Name, state.Team, herb))
			r.message = fmt.Sprintf("you gathered '%s', but every enemy Seeker has already tracked your Hider, it has no effect", herb)
		} else {
			state.HasDetectImmunity = true
			s.appendLog(r, game.VisibilityPublic, state,
				fmt.Sprintf("Seeker '%s' (%s) gathered '%s' and is now immune to Detect.", state.Name, state.Team, herb))
			r.message = fmt.Sprintf("you gathered '%s', you are now immune to enemy Detect", herb)
		}
	default:
		return engerr.Internalf("room holds an unknown herb kind '%s'", herb)
	}

	r.mark(state)
	return nil
}

func (s *service) resolveTakeWater(_ context.Context, r *resolution) error {
	state := r.state
	if state.Budgets.TakeWater <= 0 {
		return engerr.InsufficientResource("you ran out of turns to take water today")
	}
	if !geo.IsFreshWater(state.Location) {
		return engerr.PreconditionFailed("you are not in a partial square with fresh water")
	}
	if state.Water >= game.MaxWater {
		return engerr.PreconditionFailed("your water bars are full already")
	}

	state.Water = game.MaxWater
	state.Budgets.TakeWater--
	state.Touch(r.now)
	r.mark(state)

	s.appendLog(r, game.VisibilityTeam, state,
		fmt.Sprintf("Seeker '%s' (%s) took water in '%s'.", state.Name, state.Team, state.Location))
	r.message = "water bars refilled"
	return nil
}

func (s *service) resolvePurifyWater(_ context.Context, r *resolution) error {
	state := r.state
	if !state.HasPurifier {
		return engerr.ItemMissing("you do not have the purifier herb 'hai_tam'")
	}
	loc, err := geo.Parse(state.Location)
	if err != nil {
		return engerr.Internalf("session holds a malformed location '%s'", state.Location)
	}
	if !geo.IsCoastal(loc.Cell) {
		return engerr.PreconditionFailed("you need to stand on a main square touching seawater to filtrate")
	}

	state.HasPurifier = false
	state.Water = game.MaxWater
	state.Touch(r.now)
	r.mark(state)

	s.appendLog(r, game.VisibilityTeam, state,
		fmt.Sprintf("Seeker '%s' (%s) used the purifier herb 'hai_tam' in '%s'.", state.Name, state.Team, state.Location))
	r.message = fmt.Sprintf("you filtrated seawater in '%s', water bars filled fully", loc.MainSquare())
	return nil
}

func (s *service) resolveSetTrap(_ context.Context, r *resolution, target string) error {
	state := r.state
	if !state.HasTrapKit {
		return engerr.ItemMissing("you do not have the trap herb 'u_tam'")
	}
	if target == "" {
		return engerr.PreconditionFailed("pick a coordinate for the trap")
	}
	if _, err := geo.Parse(target); err != nil {
		return err
	}
	if geo.IsSeawater(target) {
		return engerr.InvalidLocationf("can't set a trap in seawater '%s'", target)
	}
	if geo.IsFreshWater(target) {
		return engerr.InvalidLocationf("can't set a trap in a fresh water square '%s'", target)
	}

	state.HasTrapKit = false
	state.TrapLocation = target
	trapTime := r.now
	state.TrapSetAt = &trapTime
	state.Touch(r.now)
	r.mark(state)

	s.appendLog(r, game.VisibilityPublic, state,
		fmt.Sprintf("Seeker '%s' (%s) set a deadly trap somewhere on the island. Be careful!", state.Name, state.Team))
	r.message = fmt.Sprintf("trap set in '%s', it will last %.0f hours", target, game.TrapLifetime.Hours())
	return nil
}

func (s *service) resolveDiscloseTrace(ctx context.Context, r *resolution, targetID string) error {
	state := r.state
	if !state.HasDisclosure {
		return engerr.ItemMissing("you do not have the disclosure herb 'phan_thien'")
	}
	if targetID == "" {
		return engerr.PreconditionFailed("you have not selected a target to disclose")
	}

	target, err := s.states.Get(ctx, targetID)
	if err != nil {
		if engerr.IsNotFound(err) {
			return engerr.InvalidTarget("the target is invalid")
		}
		return err
	}
	if target.RoomID != state.RoomID || target.Team == state.Team {
		return engerr.InvalidTarget("the target is invalid")
	}

	dayStart := clock.GameDate(r.now)
	logs, err := s.gameLogs.List(ctx, &gamelogs.Query{
		RoomID:   state.RoomID,
		PlayerID: target.PlayerID,
		Since:    dayStart,
	})
	if err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to read movement logs")
	}

	var steps []string
	// List returns newest first; the history reads oldest first
	for i := len(logs) - 1; i >= 0; i-- {
		entry := logs[i]
		if !strings.Contains(entry.Message, "moved from") {
			continue
		}
		moved := entry.Message[strings.Index(entry.Message, "moved from"):]
		moved = strings.TrimSuffix(moved, ".")
		steps = append(steps, fmt.Sprintf("[%s] %s",
			clock.GameTime(entry.Timestamp).Format("15:04"), moved))
	}

	history := "there is not any move today"
	if len(steps) > 0 {
		history = strings.Join(steps, " | ")
	}

	state.HasDisclosure = false
	state.Touch(r.now)
	r.mark(state)

	s.appendLog(r, game.VisibilityPublic, state,
		fmt.Sprintf("Seeker '%s' (%s) disclosed all traces of '%s' (%s) today. TARGET'S MOVING HISTORY: %s",
			state.Name, state.Team, target.Name, target.Team, history))
	r.message = fmt.Sprintf("disclosed '%s' successfully", target.Name)
	return nil
}

func (s *service) resolveTransferWater(ctx context.Context, r *resolution, receiverID string, amount float64) error {
	state := r.state

	amount = round2(amount)
	if receiverID == "" {
		return engerr.PreconditionFailed("receiver and amount are required")
	}
	if receiverID == state.PlayerID {
		return engerr.InvalidTarget("you cannot transfer water to yourself")
	}
	if amount <= 0 {
		return engerr.PreconditionFailed("the transfer amount must be greater than 0")
	}
	maxTransfer := round2(state.MaxTransferable())
	if amount > maxTransfer {
		return engerr.InsufficientResource(
			fmt.Sprintf("you can only transfer a maximum of %.2f water bars", maxTransfer))
	}

	// the receiver is mutated too, so it takes its own lock
	unlock, err := s.states.Lock(ctx, receiverID)
	if err != nil {
		return err
	}
	defer unlock()

	receiver, err := s.states.Get(ctx, receiverID)
	if err != nil {
		if engerr.IsNotFound(err) {
			return engerr.InvalidTarget("receiver not found")
		}
		return err
	}
	if receiver.RoomID != state.RoomID {
		return engerr.InvalidTarget("the receiver is not in your room")
	}
	if receiver.Team != state.Team {
		return engerr.InvalidTarget("you can only transfer water to teammates")
	}

	remote := receiver.Location != state.Location
	if remote && !state.HasRemoteWater {
		return engerr.PreconditionFailedf(
			"you must be at the same location '%s' as '%s' to transfer water", receiver.Location, receiver.Name)
	}

	state.Water -= amount
	receiver.Water += amount
	if receiver.Water > game.MaxWater {
		receiver.Water = game.MaxWater
	}
	state.Touch(r.now)

	prefix := "LOCAL"
	if remote {
		state.HasRemoteWater = false
		prefix = "REMOTE (item consumed)"
	}

	r.mark(state)
	r.mark(receiver)
	s.appendLog(r, game.VisibilityTeam, state,
		fmt.Sprintf("Seeker '%s' (%s) transferred %.2f water to '%s'.", state.Name, prefix, amount, receiver.Name))
	r.message = fmt.Sprintf("transferred %.2f water to %s", amount, receiver.Name)
	return nil
}

func (s *service) resolveTeleport(ctx context.Context, r *resolution, target string) error {
	state := r.state
	if !state.HasTeleport {
		return engerr.ItemMissing("you do not have the teleport herb 'thuong_quan'")
	}
	if target == "" {
		return engerr.PreconditionFailed("pick a coordinate to teleport to")
	}
	if _, err := geo.Parse(target); err != nil {
		return err
	}
	if geo.IsSeawater(target) {
		return engerr.InvalidLocationf("can't teleport to '%s' because it is seawater", target)
	}

	from := state.Location
	state.Location = target
	state.HasTeleport = false
	state.IsDetecting = false
	state.Touch(r.now)
	r.mark(state)

	hit, err := s.springTraps(ctx, r)
	if err != nil {
		return err
	}
	if hit {
		survived, err := s.surviveOrEliminate(ctx, r, game.TrapRevivalFloor, game.StatusEliminatedTrap,
			"stepped into a trap",
			fmt.Sprintf("Player '%s' used the revival herb 'quynh_tam' to survive a trap.", state.Name))
		if err != nil || !survived {
			return err
		}
	}

	s.appendLog(r, game.VisibilityTeam, state,
		fmt.Sprintf("Seeker '%s' (%s) teleported from '%s' to '%s' (item consumed).", state.Name, state.Team, from, target))
	r.message = fmt.Sprintf("teleported from %s to %s, item consumed", from, target)
	return nil
}

func (s *service) resolveTrack(ctx context.Context, r *resolution) error {
	state := r.state
	if r.now.Sub(state.LastActivityTime) <= game.TrackInactivity {
		return engerr.PreconditionFailed("you are not eligible to track yet")
	}

	others, err := s.states.ListByRoom(ctx, r.room.ID)
	if err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
	}

	var hider *game.PlayerSession
	for _, p := range others {
		if p.Team != state.Team && p.Role == game.RoleHider {
			hider = p
			break
		}
	}
	if hider == nil {
		return engerr.InvalidTarget("there is no Hider to track")
	}

	// tracking only refreshes the activity anchor, decay keeps running
	state.LastActivityTime = r.now
	r.mark(state)

	myLoc, err := geo.Parse(state.Location)
	if err != nil {
		return engerr.Internalf("session holds a malformed location '%s'", state.Location)
	}
	hiderLoc, err := geo.Parse(hider.Location)
	if err != nil {
		return engerr.Internalf("session holds a malformed location '%s'", hider.Location)
	}

	zone := geo.SuperSquare(hiderLoc.Cell)
	if _, near := zone[myLoc.Cell]; !near {
		s.appendLog(r, game.VisibilityPrivate, state,
			fmt.Sprintf("Seeker '%s' used Tracker but sensed nothing.", state.Name))
		r.message = "you sense nothing, the Hider is not in this super square"
		return nil
	}

	state.HasTracked = true
	s.appendLog(r, game.VisibilityPublic, state,
		fmt.Sprintf("Seeker '%s' (%s) used Tracker and sensed the Hider is nearby!", state.Name, state.Team))
	r.message = "your senses are sharp, you feel the Hider is nearby"

	dispelled := false
	for _, p := range others {
		if p.Team == hider.Team && p.HasDetectImmunity {
			p.HasDetectImmunity = false
			r.mark(p)
			dispelled = true
		}
	}
	if dispelled {
		s.appendLog(r, game.VisibilityPublic, state,
			"The Hider's team was tracked! Every 'nhat_nguyet' immunity effect on that team has been dispelled.")
	}
	return nil
}

func (s *service) resolveEmitSignal(ctx context.Context, r *resolution) error {
	state := r.state
	if state.HasUsedGambit {
		return engerr.PreconditionFailed("you have no gambit turn left")
	}

	state.HasUsedGambit = true
	state.Touch(r.now)
	r.mark(state)

	myLoc, err := geo.Parse(state.Location)
	if err != nil {
		return engerr.Internalf("session holds a malformed location '%s'", state.Location)
	}
	s.appendLog(r, game.VisibilityPublic, state,
		fmt.Sprintf("HIDER'S GAMBIT! Hider '%s' (%s) activated the gambit. This hider is in '%s'.",
			state.Name, state.Team, myLoc.MainSquare()))

	others, err := s.states.ListByRoom(ctx, r.room.ID)
	if err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
	}

	var buffed []string
	for _, p := range others {
		if p.Team != state.Team || p.Role != game.RoleSeeker || !p.IsActive() {
			continue
		}
		p.Budgets, _ = game.RollBudgets(p.Budgets, r.now)
		p.Budgets.Search++
		p.Budgets.Gather++
		r.mark(p)
		buffed = append(buffed, p.Name)
	}
	sort.Strings(buffed)

	if len(buffed) > 0 {
		s.appendLog(r, game.VisibilityTeam, state,
			fmt.Sprintf("All Seekers (%s) got +1 Search/+1 Gather from the Hider's gambit.", state.Team))
		r.message = fmt.Sprintf("gambit played, your main square is revealed; teammates %s got +1 search and +1 gather turn each",
			strings.Join(buffed, ", "))
	} else {
		r.message = "gambit played, your main square is revealed (no teammate left to get the buff)"
	}
	return nil
}

func (s *service) resolveSurrender(ctx context.Context, r *resolution) error {
	state := r.state

	others, err := s.states.ListByRoom(ctx, r.room.ID)
	if err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list room players")
	}
	for _, p := range others {
		if p.Team == state.Team && p.Role == game.RoleSeeker {
			r.scores[p.PlayerID] -= game.ElimPenaltyPts
		}
	}

	r.outcome = OutcomeRoomEnded
	r.message = fmt.Sprintf("you surrendered, %s loses and the game is over", state.Team)
	r.terminate = &game.LogEvent{
		Message: fmt.Sprintf("Hider '%s' (%s) has resigned. %s LOST! Room '%s' is terminated.",
			state.Name, state.Team, state.Team, r.room.Name),
		PlayerID: state.PlayerID,
	}
	return nil
}

func (s *service) resolveRestore(_ context.Context, r *resolution) error {
	state := r.state
	if state.PlayerID != r.room.HostID {
		return engerr.PreconditionFailed("only the room host can restore the game")
	}

	r.outcome = OutcomeRoomEnded
	r.message = "the room has been reset by the host"
	r.terminate = &game.LogEvent{
		Message:  fmt.Sprintf("HOST '%s' has reset the game room.", state.Name),
		PlayerID: state.PlayerID,
	}
	return nil
}
