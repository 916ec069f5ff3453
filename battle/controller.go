// This file implements Controller: the long-lived stateful analyzer that
// reconstructs battle world-state from the semantic event stream and seals
// it into a Report. See spec.md §4.7.

package battle

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/golang/snappy"

	"github.com/navalreplay/analyzer/battlecmd"
	"github.com/navalreplay/analyzer/battlecore"
	"github.com/navalreplay/analyzer/logx"
	"github.com/navalreplay/analyzer/resource"
	"github.com/navalreplay/analyzer/wire/wiretype"
)

// ErrFinished is returned by Process once the controller has been sealed by
// Finish; no further events may be processed.
var ErrFinished = errors.New("battle: controller already finished")

// defaultCheckpointInterval is how many timeline events pass between
// periodic checkpoint-compaction sweeps (SPEC_FULL.md §4.7).
const defaultCheckpointInterval = 2048

// vehicleTypeName is the schema entity type name this build's schema
// documents use for player-controlled ships. EntityCreate events resolving
// to this type register a VehicleEntity; anything else becomes a generic
// Entity (building or smoke screen) tracked only for report completeness.
const vehicleTypeName = "Vehicle"

// Controller reconstructs one battle's world state from its event stream.
// Not safe for concurrent use; exclusively owned by one pipeline instance
// for its lifetime (spec.md §5).
type Controller struct {
	resources resource.Loader
	log       logx.Logger

	checkpointInterval int

	players    map[battlecore.AccountID]*Player
	vehicles   map[battlecore.EntityID]*VehicleEntity
	buildings  map[battlecore.EntityID]*Entity
	smokes     map[battlecore.EntityID]*Entity
	capturePts map[int]*CapturePointState
	scores     map[battlecore.Team]*TeamScore

	deadVictims map[battlecore.EntityID]bool // first-wins ShipDestroyed guard

	timeline GameTimeline
	chat     []battlecmd.Chat
	warnings []Warning

	winningTeam     battlecore.Team
	battleEndReason int32
	schemaVersion   string

	finished bool
}

// NewController constructs a Controller borrowing resources for its
// lifetime. log may be nil, in which case logx's global logger is used.
func NewController(resources resource.Loader, log logx.Logger) *Controller {
	if log == nil {
		log = logx.GetLogger()
	}
	return &Controller{
		resources:          resources,
		log:                log,
		checkpointInterval: defaultCheckpointInterval,
		players:            map[battlecore.AccountID]*Player{},
		vehicles:           map[battlecore.EntityID]*VehicleEntity{},
		buildings:          map[battlecore.EntityID]*Entity{},
		smokes:             map[battlecore.EntityID]*Entity{},
		capturePts:         map[int]*CapturePointState{},
		scores:             map[battlecore.Team]*TeamScore{},
		deadVictims:        map[battlecore.EntityID]bool{},
	}
}

// SetCheckpointInterval overrides the default periodic checkpoint-
// compaction cadence; 0 disables checkpointing. Primarily a test hook.
func (c *Controller) SetCheckpointInterval(n int) {
	c.checkpointInterval = n
}

// SetSchemaVersion records the schema build identifier the packet stream
// was decoded against, carried through onto the final Report so a stored
// report can be traced back to the schema that produced it.
func (c *Controller) SetSchemaVersion(build string) {
	c.schemaVersion = build
}

func (c *Controller) warn(clock battlecore.Clock, kind WarningKind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.warnings = append(c.warnings, Warning{Clock: clock, Kind: kind, Message: msg})
	c.log.Warn(msg, logx.F("clock", float64(clock)), logx.F("kind", int(kind)))
}

// Process advances world state from one semantic event. State violations
// are absorbed as Warnings; Process only returns an error for controller
// misuse (calling it after Finish).
func (c *Controller) Process(evt battlecmd.Event) error {
	if c.finished {
		return ErrFinished
	}
	if evt == nil {
		return nil
	}

	c.timeline.append(evt)

	switch e := evt.(type) {
	case battlecmd.EntityCreateEvent:
		c.processCreate(e)

	case battlecmd.EntityLeaveEvent:
		if v, ok := c.vehicles[e.EntityID]; ok {
			v.alive = false
		}

	case battlecmd.Chat:
		c.chat = append(c.chat, e)

	case battlecmd.ShipDestroyed:
		c.processShipDestroyed(e)

	case battlecmd.DamageReceived:
		c.processDamageReceived(e)

	case battlecmd.ArenaStateReceived:
		c.processArenaState(e)

	case battlecmd.GameRoomStateChanged:
		c.processConnectionChange(e)

	case battlecmd.BattleEnd:
		c.winningTeam = e.WinningTeam
		c.battleEndReason = e.Reason

	case battlecmd.PropertyUpdateEvent:
		c.processPropertyUpdate(e)

	case battlecmd.EntityMethodEvent:
		if e.Unresolved {
			c.warn(e.Clock(), WarningUnknownMethod, "EntityMethod index %d on entity %d could not be resolved against schema", e.MethodID, e.EntityID)
		}
	}

	if c.checkpointInterval > 0 && len(c.timeline.Events)%c.checkpointInterval == 0 {
		c.compactCheckpoint()
	}
	return nil
}

func (c *Controller) processCreate(e battlecmd.EntityCreateEvent) {
	switch e.TypeName {
	case vehicleTypeName:
		v := &VehicleEntity{
			EntityID:   e.EntityID,
			Properties: PropertyBag{},
			alive:      true,
		}
		for name, val := range e.Properties {
			val := val
			v.Properties[name] = &val
		}
		if raw, ok := e.Properties["playerAvatarId"]; ok {
			if id, ok := raw.AsInt(); ok {
				accountID := battlecore.AccountID(id)
				v.PlayerID = accountID
				if p, ok := c.players[accountID]; ok {
					p.VehicleEntityID = e.EntityID
				}
			}
		}
		if raw, ok := e.Properties["shipParamsId"]; ok {
			if id, ok := raw.AsInt(); ok {
				v.ShipParamID = uint32(id)
			}
		}
		c.vehicles[e.EntityID] = v

	case "":
		// TypeID didn't resolve against the schema bundle: neither a
		// programmer error nor a state violation worth warning on — some
		// builds declare entity types this engine doesn't need to track.

	default:
		ent := &Entity{EntityID: e.EntityID, Pos: e.Pos}
		if isSmokeScreenType(e.TypeName) {
			ent.Kind = EntityKindSmokeScreen
			c.smokes[e.EntityID] = ent
		} else {
			ent.Kind = EntityKindBuilding
			c.buildings[e.EntityID] = ent
		}
	}
}

func isSmokeScreenType(name string) bool {
	return name == "SmokeScreen" || name == "SmokeScreenEntity"
}

func (c *Controller) processShipDestroyed(e battlecmd.ShipDestroyed) {
	if c.deadVictims[e.Victim] {
		c.warn(e.Clock(), WarningDuplicateDeath, "duplicate ShipDestroyed for victim %d; keeping first", e.Victim)
		return
	}
	c.deadVictims[e.Victim] = true

	v, ok := c.vehicles[e.Victim]
	if !ok {
		c.warn(e.Clock(), WarningUnknownEntity, "ShipDestroyed references unknown victim entity %d", e.Victim)
		return
	}

	self := e.Victim == e.Attacker || (e.Cause != nil && e.Cause.Self)
	v.Death = &Death{Clock: e.Clock(), Attacker: e.Attacker, Cause: e.Cause, Self: self}

	if !self {
		if attacker, ok := c.vehicles[e.Attacker]; ok {
			attacker.Frags = append(attacker.Frags, FragRecord{Clock: e.Clock(), Victim: e.Victim})
		}
	}
}

func (c *Controller) processDamageReceived(e battlecmd.DamageReceived) {
	target, ok := c.vehicles[e.Target]
	if !ok {
		c.warn(e.Clock(), WarningUnknownEntity, "DamageReceived references unknown target entity %d", e.Target)
		return
	}
	// Post-mortem damage is still recorded (spec.md §4.7): no alive check.
	for _, src := range e.Sources {
		target.DamageTaken += src.Amount
	}
}

func (c *Controller) processArenaState(e battlecmd.ArenaStateReceived) {
	for _, entry := range e.Roster {
		if entry.Name == "" {
			c.warn(e.Clock(), WarningMalformedRoster, "dropping roster entry with empty name for account %d", entry.AccountID)
			continue
		}
		c.players[entry.AccountID] = &Player{
			AccountID: entry.AccountID,
			Name:      entry.Name,
			Clan:      entry.Clan,
			Team:      entry.Team,
		}
	}
}

func (c *Controller) processConnectionChange(e battlecmd.GameRoomStateChanged) {
	kind := "unknown"
	if e.Delta.Kind == wiretype.KindString {
		kind = e.Delta.Str
	}
	for _, p := range c.players {
		p.ConnectionChanges = append(p.ConnectionChanges, ConnectionChange{Clock: e.Clock(), Kind: kind})
	}
}

func (c *Controller) processPropertyUpdate(e battlecmd.PropertyUpdateEvent) {
	if v, ok := c.vehicles[e.EntityID]; ok {
		c.decompactIfNeeded(v)
		c.applyPropertyPath(v.Properties, e)
		return
	}
	c.warn(e.Clock(), WarningUnknownEntity, "PropertyUpdate references unknown entity %d", e.EntityID)
}

// applyPropertyPath resolves the root property named by the path's first
// DictKey step against bag, then delegates the remaining path to
// Value.Apply (spec.md §4.6). It also mirrors "controlPoints[N]" and
// "teamsScore[T]" updates into the controller's dedicated tables so Finish
// doesn't need to re-walk raw property trees.
func (c *Controller) applyPropertyPath(bag PropertyBag, e battlecmd.PropertyUpdateEvent) {
	if len(e.Path) == 0 {
		c.warn(e.Clock(), WarningPropertyPathInvalid, "PropertyUpdate with empty path on entity %d", e.EntityID)
		return
	}
	head := e.Path[0]
	if !head.IsKey {
		c.warn(e.Clock(), WarningPropertyPathInvalid, "PropertyUpdate root path step must be a key on entity %d", e.EntityID)
		return
	}
	root, ok := bag[head.Key]
	if !ok {
		root = &wiretype.Value{Kind: wiretype.KindPickled, Dict: map[string]*wiretype.Value{}}
		bag[head.Key] = root
	}

	rest := e.Path[1:]
	if err := root.Apply(rest, e.Action); err != nil {
		c.warn(e.Clock(), WarningPropertyPathInvalid, "PropertyUpdate on entity %d property %q: %v", e.EntityID, head.Key, err)
		return
	}

	switch head.Key {
	case "controlPoints":
		c.syncCapturePoint(rest, e.Action)
	case "teamsScore":
		c.syncTeamScore(rest, e.Action)
	}
}

// syncCapturePoint mirrors a "controlPoints[N].SetKey{...}" update into a
// dedicated CapturePointState (spec.md §4.6's concrete example).
func (c *Controller) syncCapturePoint(path []wiretype.PathLevel, action wiretype.UpdateAction) {
	if len(path) == 0 || path[0].IsKey || action.Kind != wiretype.ActionSetKey {
		return
	}
	idx := int(path[0].Index)
	cp, ok := c.capturePts[idx]
	if !ok {
		cp = &CapturePointState{Index: idx}
		c.capturePts[idx] = cp
	}
	switch action.Key {
	case "hasInvaders":
		cp.HasInvaders = action.Value.Bool
	case "isVisible":
		cp.IsVisible = action.Value.Bool
	case "team":
		if id, ok := action.Value.AsInt(); ok {
			cp.Team = battlecore.Team(id)
		}
	case "radius":
		cp.Radius = action.Value.Float
	case "innerRadius":
		cp.InnerRadius = action.Value.Float
	case "progress":
		for i, elem := range action.Value.Array {
			if i >= len(cp.Progress) {
				break
			}
			cp.Progress[i] = elem.Float
		}
	case "position":
		cp.Position = action.Value.Vector2
	}
}

// syncTeamScore mirrors a "teamsScore[T].SetKey{score:...}" update into a
// dedicated TeamScore.
func (c *Controller) syncTeamScore(path []wiretype.PathLevel, action wiretype.UpdateAction) {
	if len(path) == 0 || path[0].IsKey || action.Kind != wiretype.ActionSetKey {
		return
	}
	team := battlecore.Team(path[0].Index)
	ts, ok := c.scores[team]
	if !ok {
		ts = &TeamScore{Team: team}
		c.scores[team] = ts
	}
	if action.Key == "score" {
		ts.Score = action.Value.Float
	}
}

// compactCheckpoint snappy-compresses the PropertyBag of every vehicle that
// is no longer alive and has no further bookkeeping need for its live
// property tree, bounding memory on very long replays without changing any
// field the final Report exposes (SPEC_FULL.md §4.7).
func (c *Controller) compactCheckpoint() {
	for _, v := range c.vehicles {
		if v.alive || v.Death == nil || v.compacted != nil || len(v.Properties) == 0 {
			continue
		}
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(v.Properties); err != nil {
			continue // leave uncompacted; not worth failing processing over
		}
		v.compacted = snappy.Encode(nil, buf.Bytes())
		v.Properties = nil
	}
}

// decompactIfNeeded restores a vehicle's PropertyBag before it receives a
// further mutation. Compaction only ever targets dead vehicles, and a dead
// vehicle's properties can still legitimately be referenced by a stray
// PropertyUpdate arriving after death.
func (c *Controller) decompactIfNeeded(v *VehicleEntity) {
	if v.compacted == nil {
		return
	}
	raw, err := snappy.Decode(nil, v.compacted)
	if err != nil {
		v.Properties = PropertyBag{}
		v.compacted = nil
		return
	}
	var bag PropertyBag
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&bag); err != nil {
		bag = PropertyBag{}
	}
	v.Properties = bag
	v.compacted = nil
}
