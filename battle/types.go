// This file contains the world-state types the battle controller maintains
// while consuming the semantic event stream, and the sealed Report it
// produces at Finish. See spec.md §3, §4.7.

package battle

import (
	"fmt"

	"github.com/navalreplay/analyzer/battlecmd"
	"github.com/navalreplay/analyzer/battlecore"
	"github.com/navalreplay/analyzer/wire/wiretype"
)

// ConnectionChange records one connection-state transition for a player,
// derived from onGameRoomStateChanged events (spec.md §4.7).
type ConnectionChange struct {
	Clock battlecore.Clock
	Kind  string
}

// Player is one participant in the battle, created on arena-state receipt.
type Player struct {
	AccountID        battlecore.AccountID
	Name             string
	Clan             string
	Realm            string
	Team             battlecore.Team
	VehicleEntityID  battlecore.EntityID
	IsHidden         bool
	ConnectionChanges []ConnectionChange

	// Derived on Finish.
	DamageDealt float64
	Frags       int
	Survived    bool
}

// Death records how and by whom a vehicle was destroyed.
type Death struct {
	Clock    battlecore.Clock
	Attacker battlecore.EntityID
	Cause    *battlecore.DeathCause
	Self     bool
}

// FragRecord is one kill credited to an attacking vehicle.
type FragRecord struct {
	Clock  battlecore.Clock
	Victim battlecore.EntityID
}

// VehicleEntity is the in-battle ship controlled by a player.
type VehicleEntity struct {
	EntityID    battlecore.EntityID
	PlayerID    battlecore.AccountID
	ShipParamID uint32
	CaptainID   uint32

	Properties PropertyBag

	DamageTaken float64
	Frags       []FragRecord
	Death       *Death

	alive bool // cleared on EntityLeave; absence of Death ≠ alive

	// compacted holds Properties snappy-compressed once this vehicle has
	// been checkpoint-compacted (SPEC_FULL.md §4.7); Properties is nil
	// while this is set, and restored on demand before Finish snapshots it.
	compacted []byte
}

// PropertyBag holds an entity's schema-typed properties by name, the
// mutation target for PropertyUpdate events (spec.md §4.6).
type PropertyBag map[string]*wiretype.Value

// EntityKind classifies a generic (non-vehicle) entity.
type EntityKind uint8

const (
	EntityKindBuilding EntityKind = iota
	EntityKindSmokeScreen
)

// Entity is a generic, non-vehicle networked object: a capture-point
// building or a deployed smoke screen, tracked only for report completeness
// (spec.md §3 Entity: tagged union Vehicle | Building | SmokeScreen).
type Entity struct {
	EntityID battlecore.EntityID
	Kind     EntityKind
	Pos      battlecore.Vector3
}

// CapturePointState mirrors one map capture point's live state, mutated via
// nested property updates on "state.controlPoints[N]".
type CapturePointState struct {
	Index        int
	Team         battlecore.Team
	Progress     [2]float64
	HasInvaders  bool
	IsVisible    bool
	Radius       float64
	InnerRadius  float64
	Position     battlecore.Vector2
}

// TeamScore is one team's running score, mutated via "teamsScore[T]".
type TeamScore struct {
	Team  battlecore.Team
	Score float64
}

// TimelineEvent is one entry in the append-only ground-truth event log.
type TimelineEvent struct {
	Clock   battlecore.Clock
	Payload battlecmd.Event
}

// GameTimeline is the append-only ordered sequence of every semantic event
// the controller has observed.
type GameTimeline struct {
	Events []TimelineEvent
}

func (t *GameTimeline) append(evt battlecmd.Event) {
	t.Events = append(t.Events, TimelineEvent{Clock: evt.Clock(), Payload: evt})
}

// WarningKind classifies a non-fatal state violation recorded during
// processing (spec.md §7).
type WarningKind uint8

const (
	WarningUnknownEntity WarningKind = iota
	WarningPropertyPathInvalid
	WarningMalformedRoster
	WarningDuplicateDeath
	WarningUnknownMethod
)

// String renders a WarningKind's name, for report/CLI display.
func (k WarningKind) String() string {
	switch k {
	case WarningUnknownEntity:
		return "UnknownEntity"
	case WarningPropertyPathInvalid:
		return "PropertyPathInvalid"
	case WarningMalformedRoster:
		return "MalformedRoster"
	case WarningDuplicateDeath:
		return "DuplicateDeath"
	case WarningUnknownMethod:
		return "UnknownMethod"
	default:
		return fmt.Sprintf("WarningKind(%d)", uint8(k))
	}
}

// Warning is one tolerated state violation, retained on the final Report so
// a partial replay still surfaces what was dropped (spec.md §7).
type Warning struct {
	Clock   battlecore.Clock
	Kind    WarningKind
	Message string
}

// Report is the sealed record produced by Controller.Finish: a
// alias-free snapshot of all battle state (spec.md §3 Ownership).
type Report struct {
	Players        []Player
	Vehicles       []VehicleEntity
	Buildings      []Entity
	SmokeScreens   []Entity
	CapturePoints  []CapturePointState
	TeamScores     []TeamScore
	Timeline       GameTimeline
	Chat           []battlecmd.Chat
	WinningTeam    battlecore.Team
	BattleEndReason int32
	Warnings       []Warning
	SchemaVersion  string
}
