// Package battlecmd implements the semantic decoder: translating framed
// wire.Packets into the closed set of SemanticEvent variants named in
// spec.md §3/§4.5, via schema-resolved method-name dispatch.
package battlecmd

import (
	"github.com/navalreplay/analyzer/battlecore"
	"github.com/navalreplay/analyzer/wire/wiretype"
)

// Event is the closed sum of semantic events a Decoder can produce. Unknown
// method/property indices never panic; they fall through to EntityMethod or
// PropertyUpdate passthrough, preserving raw args (spec.md §9).
type Event interface {
	Clock() battlecore.Clock
	isEvent()
}

type base struct {
	clock battlecore.Clock
}

func (b base) Clock() battlecore.Clock { return b.clock }

// Chat is produced by the onChatMessage dispatch.
type Chat struct {
	base
	SenderID battlecore.EntityID
	Audience *battlecore.Audience
	Text     string
}

func (Chat) isEvent() {}

// VoiceLine is produced by the receive_CommonCMD dispatch.
type VoiceLine struct {
	base
	Kind   *battlecore.VoiceLineKind
	Target *battlecore.EntityID
}

func (VoiceLine) isEvent() {}

// Ribbon is produced by the onRibbon dispatch.
type Ribbon struct {
	base
	Kind *battlecore.RibbonKind
}

func (Ribbon) isEvent() {}

// ShipDestroyed is produced by the receiveVehicleDeath dispatch.
type ShipDestroyed struct {
	base
	Victim   battlecore.EntityID
	Attacker battlecore.EntityID
	Cause    *battlecore.DeathCause
}

func (ShipDestroyed) isEvent() {}

// DamageSource is one attacker's contribution within a DamageReceived event.
type DamageSource struct {
	Attacker battlecore.EntityID
	Amount   float64
}

// DamageReceived is produced by the receiveDamagesOnShip dispatch.
type DamageReceived struct {
	base
	Target  battlecore.EntityID
	Sources []DamageSource
}

func (DamageReceived) isEvent() {}

// DamageStat is produced by the receiveDamageStat dispatch. Buckets are
// keyed by the schema-opaque numeric bucket id the client assigns to each
// damage category; the decoder does not attempt to name them (spec.md §4.5
// names only the event's existence, not a bucket taxonomy).
type DamageStat struct {
	base
	Buckets map[uint32]float64
}

func (DamageStat) isEvent() {}

// MinimapEntry is one unpacked record within a MinimapUpdate.
type MinimapEntry struct {
	EntityID   battlecore.EntityID
	X          uint32
	Y          uint32
	HeadingDeg float64
	Visible    bool
	ShownOnMap bool
}

// MinimapUpdate is produced by the updateMinimapVisionInfo dispatch.
type MinimapUpdate struct {
	base
	Entries []MinimapEntry
}

func (MinimapUpdate) isEvent() {}

// Consumable is produced by the consumableUsed dispatch.
type Consumable struct {
	base
	EntityID battlecore.EntityID
	Kind     *battlecore.ConsumableKind
	Duration float64
}

func (Consumable) isEvent() {}

// RosterEntry is one player record recovered from the pickled arena-state
// blob. Malformed entries are dropped per spec.md §4.7's tolerated state
// violation "out-of-range indices in pickled rosters"; the caller sees only
// the entries that parsed cleanly.
type RosterEntry struct {
	AccountID battlecore.AccountID
	Name      string
	Clan      string
	Team      battlecore.Team
}

// ArenaStateReceived is produced by the onArenaStateReceived dispatch.
type ArenaStateReceived struct {
	base
	Roster []RosterEntry
}

func (ArenaStateReceived) isEvent() {}

// GameRoomStateChanged is produced by the onGameRoomStateChanged dispatch.
// Delta is kept as a raw wiretype.Value: the controller does not interpret
// its shape; it appends one connection-change marker (spec.md §4.7) to
// every tracked player's record and does not attribute the change to a
// single player.
type GameRoomStateChanged struct {
	base
	Delta wiretype.Value
}

func (GameRoomStateChanged) isEvent() {}

// BattleEnd is produced by the onBattleEnd dispatch.
type BattleEnd struct {
	base
	WinningTeam battlecore.Team
	Reason      int32
}

func (BattleEnd) isEvent() {}

// BattleResults is a client-terminal summary event, kept alongside BattleEnd
// per spec.md §3's closed set; retained as a raw Value since its shape is
// large and not otherwise consumed by the battle controller.
type BattleResults struct {
	base
	Results wiretype.Value
}

func (BattleResults) isEvent() {}

// ArtilleryShot is one shot within an ArtilleryShots event.
type ArtilleryShot struct {
	Origin   battlecore.Vector3
	Dest     battlecore.Vector3
	ParamsID uint32
}

// ArtilleryShots is produced by the receiveArtilleryShots dispatch. Per
// spec.md §9's open question, only the literal fields named in §3 are
// decoded. Extra holds the concatenated text of the string-valued
// arguments (see rawArgsFallback); non-string arguments and the original
// wire bytes are not kept.
type ArtilleryShots struct {
	base
	Shots []ArtilleryShot
	Extra []byte
}

func (ArtilleryShots) isEvent() {}

// TorpedoLaunch is one launch within a Torpedoes event.
type TorpedoLaunch struct {
	Pos      battlecore.Vector3
	Dir      battlecore.Vector3
	OwnerID  battlecore.EntityID
	ParamsID uint32
	ShotID   uint32
}

// Torpedoes is produced by the receiveTorpedoes dispatch; see ArtilleryShots
// on the Extra field and the open-question rationale.
type Torpedoes struct {
	base
	Launches []TorpedoLaunch
	Extra    []byte
}

func (Torpedoes) isEvent() {}

// MinimapSquadron is produced by the receive_updateMinimapSquadron dispatch;
// see ArtilleryShots on Extra.
type MinimapSquadron struct {
	base
	SquadronID uint32
	Position   battlecore.Vector2
	Extra      []byte
}

func (MinimapSquadron) isEvent() {}

// TorpedoDirection is produced by the receiveTorpedoDirection dispatch; see
// ArtilleryShots on Extra. Unfinalized per spec.md §9, so only the entity id
// is decoded and the remainder is kept raw.
type TorpedoDirection struct {
	base
	EntityID battlecore.EntityID
	Extra    []byte
}

func (TorpedoDirection) isEvent() {}

// PropertyUpdateEvent is the passthrough for framed PropertyUpdate packets
// that the controller applies directly against live entity state, per
// spec.md §4.6.
type PropertyUpdateEvent struct {
	base
	EntityID   battlecore.EntityID
	PropertyID uint16
	Path       []wiretype.PathLevel
	Action     wiretype.UpdateAction
}

func (PropertyUpdateEvent) isEvent() {}

// EntityCreateEvent is the passthrough for framed EntityCreate/
// BasePlayerCreate/CellPlayerCreate packets, carrying the entity's resolved
// schema type name (empty if the TypeID didn't resolve) so the battle
// controller can decide whether this entity is a vehicle worth tracking.
type EntityCreateEvent struct {
	base
	EntityID   battlecore.EntityID
	TypeName   string
	Pos        battlecore.Vector3
	Properties map[string]wiretype.Value
}

func (EntityCreateEvent) isEvent() {}

// EntityLeaveEvent is the passthrough for framed EntityLeave packets.
type EntityLeaveEvent struct {
	base
	EntityID battlecore.EntityID
}

func (EntityLeaveEvent) isEvent() {}

// PositionEvent is the passthrough for framed Position packets.
type PositionEvent struct {
	base
	EntityID battlecore.EntityID
	Pos      battlecore.Vector3
	Rot      battlecore.Rotation3
}

func (PositionEvent) isEvent() {}

// EntityMethodEvent is the passthrough for any method index that resolves to
// no registered handler in the dispatch table — the "unknown methods yield
// ... EntityMethod passthrough, preserving raw args" behavior from
// spec.md §4.5.
type EntityMethodEvent struct {
	base
	EntityID   battlecore.EntityID
	MethodID   uint16
	MethodName string // empty if the index itself was out of schema range
	Args       []wiretype.Value

	// Unresolved is true when the method could not be resolved against the
	// schema at all — calling entity's type is unknown, or MethodID is out
	// of that type's declared method range (spec.md §8 scenario 6). False
	// for a method that resolved to a known schema name but simply has no
	// registered handler (spec.md §9: "versions unknown to this build are
	// preserved as EntityMethod passthrough"), which is not a state
	// violation and warrants no warning.
	Unresolved bool
}

func (EntityMethodEvent) isEvent() {}
