// Package wiredecode builds the wireframe.VariantDecoder the framer needs
// to turn raw per-Kind payload bytes into typed wire.PacketVariant values,
// against one schema.Bundle. It is the integration point between the
// packet framer (wire/wireframe), the primitive codec (wire/wiretype), and
// the entity-schema registry (schema) — see spec.md §4.3/§4.4.
package wiredecode

import (
	"github.com/navalreplay/analyzer/battlecore"
	"github.com/navalreplay/analyzer/schema"
	"github.com/navalreplay/analyzer/wire"
	"github.com/navalreplay/analyzer/wire/wireframe"
	"github.com/navalreplay/analyzer/wire/wiretype"
)

// Builder tracks entity_id -> schema type, the same way battlecmd.Decoder
// does, because decoding an EntityMethod/EntityProperty payload's typed
// arguments requires knowing which entity type's method/property table to
// read against — that information only exists once a prior *Create payload
// for the same entity has been seen.
type Builder struct {
	bundle      *schema.Bundle
	entityTypes map[battlecore.EntityID]uint16
}

// NewBuilder constructs a Builder bound to one schema bundle.
func NewBuilder(bundle *schema.Bundle) *Builder {
	return &Builder{bundle: bundle, entityTypes: map[battlecore.EntityID]uint16{}}
}

// Decoder returns a wireframe.VariantDecoder bound to this Builder's state.
func (b *Builder) Decoder() wireframe.VariantDecoder {
	return b.decode
}

func (b *Builder) decode(kind wire.Kind, payload []byte) (wire.PacketVariant, error) {
	c := wiretype.NewCursor(payload)
	switch kind {
	case 1:
		return b.decodePosition(c)
	case 2:
		return b.decodeEntityCreate(c)
	case 3:
		return b.decodeEntityMethod(c)
	case 4:
		return b.decodeEntityProperty(c)
	case 5:
		return b.decodePropertyUpdate(c)
	case 6:
		return b.decodeBasePlayerCreate(c)
	case 7:
		return b.decodeCellPlayerCreate(c)
	case 8:
		return b.decodeEntityControl(c)
	case 9:
		return b.decodeEntityLeave(c)
	case 10:
		return b.decodeNestedProperty(c)
	case 11:
		return b.decodeVersion(c)
	case 12:
		return b.decodeMap(c)
	case 13:
		return b.decodePlayerOrientation(c)
	case 14:
		return b.decodeCameraMode(c)
	case 15:
		return b.decodePlayerPosition(c)
	default:
		return wire.Unknown{Bytes: payload}, nil
	}
}

func readU32(c *wiretype.Cursor) (uint32, error) {
	v, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimUint32})
	if err != nil {
		return 0, err
	}
	u, _ := v.AsInt()
	return uint32(u), nil
}

func readU16(c *wiretype.Cursor) (uint16, error) {
	v, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimUint16})
	if err != nil {
		return 0, err
	}
	u, _ := v.AsInt()
	return uint16(u), nil
}

func readU8(c *wiretype.Cursor) (uint8, error) {
	v, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimUint8})
	if err != nil {
		return 0, err
	}
	u, _ := v.AsInt()
	return uint8(u), nil
}

func readVec3(c *wiretype.Cursor) (battlecore.Vector3, error) {
	v, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimVector3})
	if err != nil {
		return battlecore.Vector3{}, err
	}
	return v.Vector3, nil
}

func readRot3(c *wiretype.Cursor) (battlecore.Rotation3, error) {
	pitch, err := readF32(c)
	if err != nil {
		return battlecore.Rotation3{}, err
	}
	yaw, err := readF32(c)
	if err != nil {
		return battlecore.Rotation3{}, err
	}
	roll, err := readF32(c)
	if err != nil {
		return battlecore.Rotation3{}, err
	}
	return battlecore.Rotation3{Pitch: pitch, Yaw: yaw, Roll: roll}, nil
}

func readF32(c *wiretype.Cursor) (float32, error) {
	v, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimFloat32})
	if err != nil {
		return 0, err
	}
	return float32(v.Float), nil
}

func readCString(c *wiretype.Cursor) (string, error) {
	v, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimVarString, HeaderSize: 2})
	if err != nil {
		return "", err
	}
	return v.Str, nil
}

// readRawBytes reads exactly n bytes without interpreting them as text,
// for payload tails whose content isn't schema-typed at this layer (e.g.
// NestedProperty's pickled remainder).
func readRawBytes(c *wiretype.Cursor, n uint32) ([]byte, error) {
	elem := wiretype.TypeSpec{Prim: wiretype.PrimUint8}
	v, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimFixedArray, FixedLen: n, Elem: &elem})
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v.Array))
	for i, b := range v.Array {
		u, _ := b.AsInt()
		out[i] = byte(u)
	}
	return out, nil
}

func (b *Builder) rememberType(id battlecore.EntityID, typeID uint16) {
	b.entityTypes[id] = typeID
}

func (b *Builder) decodePosition(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	pos, err := readVec3(c)
	if err != nil {
		return nil, err
	}
	rot, err := readRot3(c)
	if err != nil {
		return nil, err
	}
	return wire.Position{EntityID: battlecore.EntityID(id), Pos: pos, Rot: rot}, nil
}

// readProperties reads every declared property of an entity type, in
// schema declaration order, keyed back to its schema-visible name when the
// entity type resolves; unresolved types are read as zero properties
// (the event still carries EntityID/Pos so a passthrough stays useful).
func (b *Builder) readProperties(c *wiretype.Cursor, typeID uint16) map[string]wiretype.Value {
	et, ok := b.bundle.EntityTypeByID(uint32(typeID))
	if !ok {
		return nil
	}
	props := make(map[string]wiretype.Value, len(et.Properties))
	for i, spec := range et.Properties {
		ts := typeSpecFor(spec.TypeName, spec.VariableLenHdrSz)
		v, err := c.ReadValue(ts)
		if err != nil {
			break // short/corrupt tail: keep whatever decoded cleanly so far
		}
		name := spec.Name
		if name == "" {
			name = schemaPropertyKey(i)
		}
		props[name] = v
	}
	return props
}

// schemaPropertyKey synthesizes a stable key for a property whose schema
// document didn't carry a name (wire-level property identity is its index,
// not its name — spec.md §4.2), so the property bag still round-trips.
func schemaPropertyKey(index int) string {
	const hex = "0123456789abcdef"
	if index < 16 {
		return "prop_" + string(hex[index])
	}
	return "prop_" + string(hex[(index/16)%16]) + string(hex[index%16])
}

func (b *Builder) decodeEntityCreate(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	typeID, err := readU16(c)
	if err != nil {
		return nil, err
	}
	pos, err := readVec3(c)
	if err != nil {
		return nil, err
	}
	b.rememberType(battlecore.EntityID(id), typeID)
	props := b.readProperties(c, typeID)
	return wire.EntityCreate{EntityID: battlecore.EntityID(id), TypeID: typeID, Pos: pos, Properties: props}, nil
}

func (b *Builder) decodeEntityMethod(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	methodID, err := readU16(c)
	if err != nil {
		return nil, err
	}
	var args []wiretype.Value
	if typeID, ok := b.entityTypes[battlecore.EntityID(id)]; ok {
		if et, ok := b.bundle.EntityTypeByID(uint32(typeID)); ok {
			if spec, ok := et.Method(int(methodID)); ok {
				for _, argSpec := range spec.Args {
					ts := typeSpecFor(argSpec.TypeName, argSpec.VariableLenHdrSz)
					v, err := c.ReadValue(ts)
					if err != nil {
						break
					}
					args = append(args, v)
				}
			}
		}
	}
	return wire.EntityMethod{EntityID: battlecore.EntityID(id), MethodID: methodID, Args: args}, nil
}

func (b *Builder) decodeEntityProperty(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	propertyID, err := readU16(c)
	if err != nil {
		return nil, err
	}
	var val wiretype.Value
	if typeID, ok := b.entityTypes[battlecore.EntityID(id)]; ok {
		if et, ok := b.bundle.EntityTypeByID(uint32(typeID)); ok {
			if spec, ok := et.Property(int(propertyID)); ok {
				ts := typeSpecFor(spec.TypeName, spec.VariableLenHdrSz)
				if v, err := c.ReadValue(ts); err == nil {
					val = v
				}
			}
		}
	}
	return wire.EntityProperty{EntityID: battlecore.EntityID(id), PropertyID: propertyID, Value: val}, nil
}

func (b *Builder) decodePropertyUpdate(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	propertyID, err := readU16(c)
	if err != nil {
		return nil, err
	}
	path, err := readPath(c)
	if err != nil {
		return nil, err
	}
	action, err := readAction(c)
	if err != nil {
		return nil, err
	}
	return wire.PropertyUpdate{EntityID: battlecore.EntityID(id), PropertyID: propertyID, Path: path, Action: action}, nil
}

func (b *Builder) decodeBasePlayerCreate(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	typeID, err := readU16(c)
	if err != nil {
		return nil, err
	}
	b.rememberType(battlecore.EntityID(id), typeID)
	return wire.BasePlayerCreate{EntityID: battlecore.EntityID(id), TypeID: typeID}, nil
}

func (b *Builder) decodeCellPlayerCreate(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	typeID, err := readU16(c)
	if err != nil {
		return nil, err
	}
	b.rememberType(battlecore.EntityID(id), typeID)
	props := b.readProperties(c, typeID)
	return wire.CellPlayerCreate{EntityID: battlecore.EntityID(id), TypeID: typeID, Properties: props}, nil
}

func (b *Builder) decodeEntityControl(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	flag, err := readU8(c)
	if err != nil {
		return nil, err
	}
	return wire.EntityControl{EntityID: battlecore.EntityID(id), IsControlled: flag != 0}, nil
}

func (b *Builder) decodeEntityLeave(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	delete(b.entityTypes, battlecore.EntityID(id))
	return wire.EntityLeave{EntityID: battlecore.EntityID(id)}, nil
}

func (b *Builder) decodeNestedProperty(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	propertyID, err := readU16(c)
	if err != nil {
		return nil, err
	}
	path, err := readPath(c)
	if err != nil {
		return nil, err
	}
	rest := c.Remaining()
	tail, err := readRawBytes(c, rest)
	if err != nil {
		return nil, err
	}
	return wire.NestedProperty{EntityID: battlecore.EntityID(id), PropertyID: propertyID, Path: path, Payload: tail}, nil
}

func (b *Builder) decodeVersion(c *wiretype.Cursor) (wire.PacketVariant, error) {
	s, err := readCString(c)
	if err != nil {
		return nil, err
	}
	return wire.Version{Version: s}, nil
}

func (b *Builder) decodeMap(c *wiretype.Cursor) (wire.PacketVariant, error) {
	s, err := readCString(c)
	if err != nil {
		return nil, err
	}
	return wire.Map{Name: s}, nil
}

func (b *Builder) decodePlayerOrientation(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	heading, err := readF32(c)
	if err != nil {
		return nil, err
	}
	return wire.PlayerOrientation{EntityID: battlecore.EntityID(id), Heading: heading}, nil
}

func (b *Builder) decodeCameraMode(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	mode, err := readU8(c)
	if err != nil {
		return nil, err
	}
	return wire.CameraMode{EntityID: battlecore.EntityID(id), Mode: mode}, nil
}

func (b *Builder) decodePlayerPosition(c *wiretype.Cursor) (wire.PacketVariant, error) {
	id, err := readU32(c)
	if err != nil {
		return nil, err
	}
	pos, err := readVec3(c)
	if err != nil {
		return nil, err
	}
	return wire.PlayerPosition{EntityID: battlecore.EntityID(id), Pos: pos}, nil
}

// readPath decodes a property path: u8 count, then per level a u8
// discriminant (0 = array index, 1 = dict key) followed by a u32 index or a
// length-prefixed (1-byte header) UTF-8 key.
func readPath(c *wiretype.Cursor) ([]wiretype.PathLevel, error) {
	count, err := readU8(c)
	if err != nil {
		return nil, err
	}
	path := make([]wiretype.PathLevel, 0, count)
	for i := uint8(0); i < count; i++ {
		tag, err := readU8(c)
		if err != nil {
			return nil, err
		}
		if tag == 0 {
			idx, err := readU32(c)
			if err != nil {
				return nil, err
			}
			path = append(path, wiretype.ArrayIndex(idx))
			continue
		}
		key, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimVarString, HeaderSize: 1})
		if err != nil {
			return nil, err
		}
		path = append(path, wiretype.DictKey(key.Str))
	}
	return path, nil
}

// readAction decodes an UpdateAction: u8 kind discriminant, then kind-
// specific fields, with values themselves always read as Pickled blobs
// (u16-length-prefixed opaque object graphs) since a PropertyUpdate's
// value type isn't separately schema-declared at this layer.
func readAction(c *wiretype.Cursor) (wiretype.UpdateAction, error) {
	kind, err := readU8(c)
	if err != nil {
		return wiretype.UpdateAction{}, err
	}
	switch kind {
	case 0: // SetKey
		key, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimVarString, HeaderSize: 1})
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		val, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimPickled})
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		return wiretype.SetKeyAction(key.Str, val), nil

	case 1: // SetRange
		begin, err := readU32(c)
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		end, err := readU32(c)
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		n, err := readU32(c)
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		vals := make([]wiretype.Value, n)
		for i := range vals {
			v, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimPickled})
			if err != nil {
				return wiretype.UpdateAction{}, err
			}
			vals[i] = v
		}
		return wiretype.SetRangeAction(begin, end, vals), nil

	case 2: // SetElement
		idx, err := readU32(c)
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		val, err := c.ReadValue(wiretype.TypeSpec{Prim: wiretype.PrimPickled})
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		return wiretype.SetElementAction(idx, val), nil

	case 3: // RemoveRange
		begin, err := readU32(c)
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		end, err := readU32(c)
		if err != nil {
			return wiretype.UpdateAction{}, err
		}
		return wiretype.RemoveRangeAction(begin, end), nil

	default:
		return wiretype.UpdateAction{}, wiretype.ErrPropertyPathInvalid
	}
}

// typeSpecFor resolves a schema-declared primitive type name to the
// TypeSpec the cursor needs. Composite type names (schema.Bundle's
// transitively-resolved types) aren't representable as a flat TypeSpec at
// this layer; values of those properties fall back to the opaque Pickled
// decode, which is always structurally valid for this codec's wire shape.
func typeSpecFor(typeName string, hdrSize uint8) wiretype.TypeSpec {
	switch typeName {
	case "INT8":
		return wiretype.TypeSpec{Prim: wiretype.PrimInt8}
	case "INT16":
		return wiretype.TypeSpec{Prim: wiretype.PrimInt16}
	case "INT32":
		return wiretype.TypeSpec{Prim: wiretype.PrimInt32}
	case "INT64":
		return wiretype.TypeSpec{Prim: wiretype.PrimInt64}
	case "UINT8":
		return wiretype.TypeSpec{Prim: wiretype.PrimUint8}
	case "UINT16":
		return wiretype.TypeSpec{Prim: wiretype.PrimUint16}
	case "UINT32":
		return wiretype.TypeSpec{Prim: wiretype.PrimUint32}
	case "UINT64":
		return wiretype.TypeSpec{Prim: wiretype.PrimUint64}
	case "FLOAT32":
		return wiretype.TypeSpec{Prim: wiretype.PrimFloat32}
	case "FLOAT64":
		return wiretype.TypeSpec{Prim: wiretype.PrimFloat64}
	case "BOOL":
		return wiretype.TypeSpec{Prim: wiretype.PrimBool}
	case "STRING":
		return wiretype.TypeSpec{Prim: wiretype.PrimVarString, HeaderSize: orDefault(hdrSize, 1)}
	case "UNICODE_STRING":
		return wiretype.TypeSpec{Prim: wiretype.PrimVarStringUTF16, HeaderSize: orDefault(hdrSize, 1)}
	case "VECTOR2":
		return wiretype.TypeSpec{Prim: wiretype.PrimVector2}
	case "VECTOR3":
		return wiretype.TypeSpec{Prim: wiretype.PrimVector3}
	case "MAILBOX":
		return wiretype.TypeSpec{Prim: wiretype.PrimMailbox}
	case "PICKLE":
		return wiretype.TypeSpec{Prim: wiretype.PrimPickled}
	case "ARRAY":
		elem := wiretype.TypeSpec{Prim: wiretype.PrimPickled}
		return wiretype.TypeSpec{Prim: wiretype.PrimVarArray, HeaderSize: orDefault(hdrSize, 1), Elem: &elem}
	default:
		// FIXED_DICT, TUPLE, and any composite name: read as an opaque
		// pickled blob rather than guess a member layout this layer
		// doesn't have visibility into.
		return wiretype.TypeSpec{Prim: wiretype.PrimPickled}
	}
}

func orDefault(v, def uint8) uint8 {
	if v == 0 {
		return def
	}
	return v
}
