// This file implements Decoder: the method-name-keyed dispatch table that
// turns a wire.Packet's EntityMethod (and a handful of other) variants into
// typed SemanticEvents, per spec.md §4.5.

package battlecmd

import (
	"fmt"

	"github.com/navalreplay/analyzer/battlecore"
	"github.com/navalreplay/analyzer/schema"
	"github.com/navalreplay/analyzer/wire"
	"github.com/navalreplay/analyzer/wire/wiretype"
)

// Decoder translates framed packets into SemanticEvents against one
// schema.Bundle, resolved once at construction by the container's reported
// build version (ErrVersionUnknown otherwise — see replayparser).
type Decoder struct {
	bundle *schema.Bundle

	// entityTypes tracks entity_id -> schema type name, populated from
	// Create variants and cleared on EntityLeave, so that a later
	// EntityMethod packet (which carries only entity_id + method index)
	// can be resolved back to the EntityTypeDef whose Methods table gives
	// the method its name.
	entityTypes map[battlecore.EntityID]string

	handlers map[string]methodHandler
}

type methodHandler func(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error)

// NewDecoder constructs a Decoder bound to one schema bundle.
func NewDecoder(bundle *schema.Bundle) *Decoder {
	d := &Decoder{
		bundle:      bundle,
		entityTypes: map[battlecore.EntityID]string{},
	}
	d.handlers = map[string]methodHandler{
		"onChatMessage":                 decodeChat,
		"receive_CommonCMD":             decodeVoiceLine,
		"onRibbon":                      decodeRibbon,
		"receiveVehicleDeath":           decodeShipDestroyed,
		"receiveDamagesOnShip":          decodeDamageReceived,
		"receiveDamageStat":             decodeDamageStat,
		"updateMinimapVisionInfo":       decodeMinimapUpdate,
		"consumableUsed":                decodeConsumable,
		"onArenaStateReceived":          decodeArenaStateReceived,
		"onGameRoomStateChanged":        decodeGameRoomStateChanged,
		"onBattleEnd":                   decodeBattleEnd,
		"onBattleResults":               decodeBattleResults,
		"receiveArtilleryShots":         decodeArtilleryShots,
		"receiveTorpedoes":              decodeTorpedoes,
		"receive_updateMinimapSquadron": decodeMinimapSquadron,
		"receiveTorpedoDirection":       decodeTorpedoDirection,
	}
	return d
}

// Decode translates one framed packet into a SemanticEvent.
func (d *Decoder) Decode(pkt *wire.Packet) (Event, error) {
	switch v := pkt.Variant.(type) {
	case wire.EntityCreate:
		typeName := d.rememberType(v.EntityID, v.TypeID)
		return EntityCreateEvent{base: base{pkt.Clock}, EntityID: v.EntityID, TypeName: typeName, Pos: v.Pos, Properties: v.Properties}, nil
	case wire.BasePlayerCreate:
		typeName := d.rememberType(v.EntityID, v.TypeID)
		return EntityCreateEvent{base: base{pkt.Clock}, EntityID: v.EntityID, TypeName: typeName}, nil
	case wire.CellPlayerCreate:
		typeName := d.rememberType(v.EntityID, v.TypeID)
		return EntityCreateEvent{base: base{pkt.Clock}, EntityID: v.EntityID, TypeName: typeName, Properties: v.Properties}, nil
	case wire.EntityLeave:
		delete(d.entityTypes, v.EntityID)
		return EntityLeaveEvent{base: base{pkt.Clock}, EntityID: v.EntityID}, nil

	case wire.EntityMethod:
		return d.decodeMethod(pkt.Clock, v.EntityID, v.MethodID, v.Args)

	case wire.PropertyUpdate:
		return PropertyUpdateEvent{
			base:       base{pkt.Clock},
			EntityID:   v.EntityID,
			PropertyID: v.PropertyID,
			Path:       v.Path,
			Action:     v.Action,
		}, nil

	case wire.Position:
		return PositionEvent{base: base{pkt.Clock}, EntityID: v.EntityID, Pos: v.Pos, Rot: v.Rot}, nil

	case wire.PlayerPosition:
		return PositionEvent{base: base{pkt.Clock}, EntityID: v.EntityID, Pos: v.Pos}, nil

	default:
		// EntityProperty, EntityControl, NestedProperty, Version, Map,
		// PlayerOrientation, CameraMode, Unknown: none of these map to a
		// SemanticEvent of their own per spec.md §3/§4.5; the battle
		// controller consumes them (if at all) directly from the packet
		// stream rather than through battlecmd.
		return nil, nil
	}
}

func (d *Decoder) rememberType(id battlecore.EntityID, typeID uint16) string {
	et, ok := d.bundle.EntityTypeByID(uint32(typeID))
	if !ok {
		return ""
	}
	d.entityTypes[id] = et.Name
	return et.Name
}

// decodeMethod resolves the wire-level method index against the calling
// entity's schema type and dispatches to the matching handler, falling back
// to EntityMethodEvent passthrough per spec.md §4.5/§9.
func (d *Decoder) decodeMethod(clock battlecore.Clock, entityID battlecore.EntityID, methodID uint16, args []wiretype.Value) (Event, error) {
	typeName, ok := d.entityTypes[entityID]
	if !ok {
		return EntityMethodEvent{base: base{clock}, EntityID: entityID, MethodID: methodID, Args: args, Unresolved: true}, nil
	}
	et, ok := d.bundle.EntityType(typeName)
	if !ok {
		return EntityMethodEvent{base: base{clock}, EntityID: entityID, MethodID: methodID, Args: args, Unresolved: true}, nil
	}
	spec, ok := et.Method(int(methodID))
	if !ok {
		return EntityMethodEvent{base: base{clock}, EntityID: entityID, MethodID: methodID, Args: args, Unresolved: true}, nil
	}

	handler, ok := d.handlers[spec.Name]
	if !ok {
		return EntityMethodEvent{
			base: base{clock}, EntityID: entityID, MethodID: methodID,
			MethodName: spec.Name, Args: args,
		}, nil
	}
	return handler(d, clock, entityID, args)
}

func argErr(method string, i int, want string) error {
	return fmt.Errorf("battlecmd: %s: arg %d: expected %s", method, i, want)
}

func decodeChat(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 3 {
		return nil, argErr("onChatMessage", len(args), "3 args")
	}
	senderID, _ := args[0].AsInt()
	return Chat{
		base:     base{clock},
		SenderID: battlecore.EntityID(senderID),
		Audience: battlecore.AudienceByID(args[1].Str),
		Text:     args[2].Str,
	}, nil
}

func decodeVoiceLine(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 1 {
		return nil, argErr("receive_CommonCMD", len(args), "at least 1 arg")
	}
	kindID, _ := args[0].AsInt()
	evt := VoiceLine{base: base{clock}, Kind: battlecore.VoiceLineKindByID(int32(kindID))}
	if len(args) >= 2 {
		t, _ := args[1].AsInt()
		target := battlecore.EntityID(t)
		evt.Target = &target
	}
	return evt, nil
}

func decodeRibbon(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 1 {
		return nil, argErr("onRibbon", len(args), "1 arg")
	}
	kindID, _ := args[0].AsInt()
	return Ribbon{base: base{clock}, Kind: battlecore.RibbonKindByID(int32(kindID))}, nil
}

func decodeShipDestroyed(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 3 {
		return nil, argErr("receiveVehicleDeath", len(args), "3 args")
	}
	victim, _ := args[0].AsInt()
	attacker, _ := args[1].AsInt()
	causeID, _ := args[2].AsInt()
	return ShipDestroyed{
		base:     base{clock},
		Victim:   battlecore.EntityID(victim),
		Attacker: battlecore.EntityID(attacker),
		Cause:    battlecore.DeathCauseByID(uint8(causeID)),
	}, nil
}

func decodeDamageReceived(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 2 {
		return nil, argErr("receiveDamagesOnShip", len(args), "2 args")
	}
	target, _ := args[0].AsInt()
	var sources []DamageSource
	for _, pair := range args[1].Array {
		if pair.Kind != wiretype.KindTuple && pair.Kind != wiretype.KindArray {
			continue
		}
		if len(pair.Array) < 2 {
			continue
		}
		attacker, _ := pair.Array[0].AsInt()
		sources = append(sources, DamageSource{
			Attacker: battlecore.EntityID(attacker),
			Amount:   pair.Array[1].Float,
		})
	}
	return DamageReceived{base: base{clock}, Target: battlecore.EntityID(target), Sources: sources}, nil
}

func decodeDamageStat(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 1 {
		return nil, argErr("receiveDamageStat", len(args), "1 arg")
	}
	buckets := map[uint32]float64{}
	for _, entry := range args[0].Array {
		if len(entry.Array) < 2 {
			continue
		}
		key, _ := entry.Array[0].AsInt()
		buckets[uint32(key)] = entry.Array[1].Float
	}
	return DamageStat{base: base{clock}, Buckets: buckets}, nil
}

// unpackMinimapEntry expands the packed u32 minimap record from spec.md §3:
// 11 bits x, 11 bits y, 8 bits heading, 2 bits flags.
func unpackMinimapEntry(id battlecore.EntityID, packed uint32) MinimapEntry {
	x := packed & 0x7FF
	y := (packed >> 11) & 0x7FF
	heading := (packed >> 22) & 0xFF
	flags := (packed >> 30) & 0x3
	return MinimapEntry{
		EntityID:   id,
		X:          x,
		Y:          y,
		HeadingDeg: float64(heading),
		Visible:    flags&0x1 != 0,
		ShownOnMap: flags&0x2 != 0,
	}
}

func decodeMinimapUpdate(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 1 {
		return nil, argErr("updateMinimapVisionInfo", len(args), "1 arg")
	}
	var entries []MinimapEntry
	for _, entry := range args[0].Array {
		if len(entry.Array) < 2 {
			continue
		}
		id, _ := entry.Array[0].AsInt()
		packed, _ := entry.Array[1].AsInt()
		entries = append(entries, unpackMinimapEntry(battlecore.EntityID(id), uint32(packed)))
	}
	return MinimapUpdate{base: base{clock}, Entries: entries}, nil
}

func decodeConsumable(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 2 {
		return nil, argErr("consumableUsed", len(args), "2 args")
	}
	kindID, _ := args[0].AsInt()
	return Consumable{
		base:     base{clock},
		EntityID: entityID,
		Kind:     battlecore.ConsumableKindByID(int32(kindID)),
		Duration: args[1].Float,
	}, nil
}

func decodeArenaStateReceived(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 1 {
		return nil, argErr("onArenaStateReceived", len(args), "1 arg (pickled roster)")
	}
	pickled := args[0] // already pickle-decoded by wiredecode's PrimPickled read
	var roster []RosterEntry
	for _, entry := range pickled.Array {
		if entry.Dict == nil {
			continue // malformed entry: dropped per spec.md §4.7
		}
		name, ok := entry.Dict["name"]
		if !ok {
			continue
		}
		accountID, _ := dictGet(entry.Dict, "accountId").AsInt()
		teamID, _ := dictGet(entry.Dict, "team").AsInt()
		roster = append(roster, RosterEntry{
			AccountID: battlecore.AccountID(accountID),
			Name:      name.Str,
			Clan:      dictGet(entry.Dict, "clan").Str,
			Team:      battlecore.Team(teamID),
		})
	}
	return ArenaStateReceived{base: base{clock}, Roster: roster}, nil
}

func dictGet(dict map[string]*wiretype.Value, key string) wiretype.Value {
	if v, ok := dict[key]; ok && v != nil {
		return *v
	}
	return wiretype.None()
}

func decodeGameRoomStateChanged(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 1 {
		return nil, argErr("onGameRoomStateChanged", len(args), "1 arg")
	}
	return GameRoomStateChanged{base: base{clock}, Delta: args[0]}, nil
}

func decodeBattleEnd(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 2 {
		return nil, argErr("onBattleEnd", len(args), "2 args")
	}
	team, _ := args[0].AsInt()
	reason, _ := args[1].AsInt()
	return BattleEnd{base: base{clock}, WinningTeam: battlecore.Team(team), Reason: int32(reason)}, nil
}

func decodeBattleResults(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	if len(args) < 1 {
		return nil, argErr("onBattleResults", len(args), "1 arg")
	}
	return BattleResults{base: base{clock}, Results: args[0]}, nil
}

// decodeArtilleryShots, decodeTorpedoes, decodeMinimapSquadron, and
// decodeTorpedoDirection decode only the literal fields spec.md §3 names for
// these unfinalized events (the open question in spec.md §9), and fill
// Extra via rawArgsFallback.
func decodeArtilleryShots(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	var shots []ArtilleryShot
	for _, s := range args {
		if len(s.Array) < 2 {
			continue
		}
		shots = append(shots, ArtilleryShot{
			Origin:   s.Array[0].Vector3,
			Dest:     s.Array[1].Vector3,
			ParamsID: paramsIDOf(s),
		})
	}
	return ArtilleryShots{base: base{clock}, Shots: shots, Extra: rawArgsFallback(args)}, nil
}

func decodeTorpedoes(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	var launches []TorpedoLaunch
	for _, l := range args {
		if len(l.Array) < 2 {
			continue
		}
		owner, _ := l.Array[0].AsInt()
		launches = append(launches, TorpedoLaunch{
			Pos:      l.Array[0].Vector3,
			Dir:      l.Array[1].Vector3,
			OwnerID:  battlecore.EntityID(owner),
			ParamsID: paramsIDOf(l),
			ShotID:   shotIDOf(l),
		})
	}
	return Torpedoes{base: base{clock}, Launches: launches, Extra: rawArgsFallback(args)}, nil
}

func decodeMinimapSquadron(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	evt := MinimapSquadron{base: base{clock}, Extra: rawArgsFallback(args)}
	if len(args) >= 1 {
		id, _ := args[0].AsInt()
		evt.SquadronID = uint32(id)
	}
	if len(args) >= 2 {
		evt.Position = args[1].Vector2
	}
	return evt, nil
}

func decodeTorpedoDirection(d *Decoder, clock battlecore.Clock, entityID battlecore.EntityID, args []wiretype.Value) (Event, error) {
	return TorpedoDirection{base: base{clock}, EntityID: entityID, Extra: rawArgsFallback(args)}, nil
}

func paramsIDOf(v wiretype.Value) uint32 {
	if len(v.Array) < 3 {
		return 0
	}
	id, _ := v.Array[2].AsInt()
	return uint32(id)
}

func shotIDOf(v wiretype.Value) uint32 {
	if len(v.Array) < 4 {
		return 0
	}
	id, _ := v.Array[3].AsInt()
	return uint32(id)
}

// rawArgsFallback builds the Extra field of the unfinalized events: the
// contents of every string-valued argument, concatenated in argument order.
// Arguments of any other kind contribute nothing, and the wire bytes are not
// available at this layer, so Extra does not retain the full argument list.
// It returns nil when there are no arguments.
func rawArgsFallback(args []wiretype.Value) []byte {
	if len(args) == 0 {
		return nil
	}
	var out []byte
	for _, a := range args {
		out = append(out, []byte(a.Str)...)
	}
	return out
}
