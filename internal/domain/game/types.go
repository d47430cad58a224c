// Package game holds the domain model of the island hide-and-seek engine:
// player sessions, rooms, log events, and the pure rules that govern water,
// turn budgets, and spirit combat.
package game

import "time"

// Role is a player's role for the whole life of their session. It only ever
// changes through Hider succession.
type Role string

const (
	RoleHider      Role = "Hider"
	RoleSeeker     Role = "Seeker"
	RoleGamemaster Role = "Gamemaster"
)

// Status is a session's life state.
type Status string

const (
	StatusActive Status = "Active"

	StatusEliminatedThirst Status = "Eliminated (Thirst)"
	StatusEliminatedTrap   Status = "Eliminated (Trap)"
	StatusEliminatedBeast  Status = "Eliminated (Beast)"
)

// SpiritClass is a Seeker's combat spirit.
type SpiritClass string

const (
	SpiritDragon   SpiritClass = "Dragon"
	SpiritTiger    SpiritClass = "Tiger"
	SpiritBird     SpiritClass = "Bird"
	SpiritTortoise SpiritClass = "Tortoise"
)

// SpiritClasses lists the assignable spirits.
var SpiritClasses = []SpiritClass{SpiritDragon, SpiritTiger, SpiritBird, SpiritTortoise}

// spiritBeats is the rock-paper-circle hierarchy.
var spiritBeats = map[SpiritClass]SpiritClass{
	SpiritDragon:   SpiritTiger,
	SpiritTiger:    SpiritBird,
	SpiritBird:     SpiritTortoise,
	SpiritTortoise: SpiritDragon,
}

// DuelResult is the outcome of a 1v1 spirit duel from the first fighter's view.
type DuelResult int

const (
	DuelDraw DuelResult = iota
	DuelWin
	DuelLose
)

// ResolveSpiritDuel applies the spirit hierarchy between two fighters.
func ResolveSpiritDuel(a, b SpiritClass) DuelResult {
	switch {
	case spiritBeats[a] == b:
		return DuelWin
	case spiritBeats[b] == a:
		return DuelLose
	default:
		return DuelDraw
	}
}

// RoomMode selects the room's ruleset.
type RoomMode string

const (
	ModeSimulation  RoomMode = "simulation"
	ModeCompetition RoomMode = "competition"
)

// RoomStatus is a room's lifecycle state.
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting"
	RoomStatusActive  RoomStatus = "active"
)

// HerbKind tags a gatherable herb. The tags are persisted and must not change.
type HerbKind string

const (
	// HerbRemoteWater enables one remote water transfer.
	HerbRemoteWater HerbKind = "tuong_tu"
	// HerbTeleport enables one teleport.
	HerbTeleport HerbKind = "thuong_quan"
	// HerbDisclosure reveals an enemy's movement history for the day.
	HerbDisclosure HerbKind = "phan_thien"
	// HerbRevival revives its holder once when water runs out.
	HerbRevival HerbKind = "quynh_tam"
	// HerbBeastSight reveals the beast squares on the holder's map.
	HerbBeastSight HerbKind = "ly_sau"
	// HerbDetectImmunity hides the holder from enemy Detect.
	HerbDetectImmunity HerbKind = "nhat_nguyet"
	// HerbTrapKit enables setting one trap.
	HerbTrapKit HerbKind = "u_tam"
)

// HerbKinds lists the daily-spawned herbs in spawn order.
var HerbKinds = []HerbKind{
	HerbRemoteWater,
	HerbTeleport,
	HerbDisclosure,
	HerbRevival,
	HerbBeastSight,
	HerbDetectImmunity,
	HerbTrapKit,
}

// HerbSpawnCounts is how many of each herb the daily spawn places.
var HerbSpawnCounts = map[HerbKind]int{
	HerbRemoteWater:    2,
	HerbTeleport:       2,
	HerbDisclosure:     2,
	HerbRevival:        1,
	HerbBeastSight:     4,
	HerbDetectImmunity: 2,
	HerbTrapKit:        4,
}

// Visibility partitions log events by who may read them.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityTeam    Visibility = "team"
	VisibilityPublic  Visibility = "public"
)

// ChatScope partitions chat messages.
type ChatScope string

const (
	ChatScopeTeam   ChatScope = "team"
	ChatScopeGlobal ChatScope = "global"
)

// Rule constants. Water units, real-time durations, and point values.
const (
	MaxWater     = 10.0
	DecayPerHour = 1.0 / 6.0

	// penalty and loss amounts, in water units
	TrapWaterLoss   = 3.0
	BeastWaterLoss  = 1.0
	DuelDrawLoss    = 1.0
	CombatLossWater = 1.0

	// revival floors when the one-shot revival herb fires
	RevivalFloor     = 2.0
	TrapRevivalFloor = 5.0

	// transfer_water keeps this much in the sender's reserve
	TransferReserve = 0.5

	StunDuration    = 6 * time.Hour
	TrapLifetime    = 48 * time.Hour
	TrackInactivity = 12 * time.Hour

	// bad-water cell multiplier and the idle time that arms it
	BadWaterMultiplier  = 3.0
	BadWaterIdleMinutes = 15

	// special herb offset-minute window length
	SpecialHerbWindowMinutes = 120

	// score bookkeeping
	WinPointPool   = 60.0
	ElimPenaltyPts = 10

	// daily turn budget bases
	BaseSearchTurns    = 1
	BaseGatherTurns    = 2
	BaseTakeWaterTurns = 1
	BaseDetectTurns    = 2
)
