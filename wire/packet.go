// This file contains the Packet type and the closed set of PacketVariant
// payloads produced by the packet framer (wire/wireframe) and consumed by
// the semantic decoder (battlecmd).

package wire

import (
	"github.com/navalreplay/analyzer/battlecore"
	"github.com/navalreplay/analyzer/wire/wiretype"
)

// Kind identifies which PacketVariant a Packet carries.
type Kind uint32

// Packet is one framed unit of the decompressed replay stream.
//
// Payload is a sub-slice of the framer's underlying buffer and is only
// guaranteed valid until the next call to Framer.Next — see
// wire/wireframe.Framer for the full contract.
type Packet struct {
	Clock   battlecore.Clock
	Kind    Kind
	Payload []byte

	// Variant is the decoded payload. It is the Unknown variant for a
	// Kind the framer has no decoder for; the raw bytes remain available
	// via Payload either way.
	Variant PacketVariant
}

// PacketVariant is the closed sum of decoded packet payloads.
type PacketVariant interface {
	isPacketVariant()
}

type Position struct {
	EntityID battlecore.EntityID
	Pos      battlecore.Vector3
	Rot      battlecore.Rotation3
}

type EntityCreate struct {
	EntityID   battlecore.EntityID
	TypeID     uint16
	Pos        battlecore.Vector3
	Properties map[string]wiretype.Value
}

type EntityMethod struct {
	EntityID battlecore.EntityID
	MethodID uint16
	Args     []wiretype.Value
}

type EntityProperty struct {
	EntityID   battlecore.EntityID
	PropertyID uint16
	Value      wiretype.Value
}

type PropertyUpdate struct {
	EntityID   battlecore.EntityID
	PropertyID uint16
	Path       []wiretype.PathLevel
	Action     wiretype.UpdateAction
}

type BasePlayerCreate struct {
	EntityID battlecore.EntityID
	TypeID   uint16
	Args     []wiretype.Value
}

type CellPlayerCreate struct {
	EntityID   battlecore.EntityID
	TypeID     uint16
	Properties map[string]wiretype.Value
}

type EntityControl struct {
	EntityID     battlecore.EntityID
	IsControlled bool
}

type EntityLeave struct {
	EntityID battlecore.EntityID
}

type NestedProperty struct {
	EntityID   battlecore.EntityID
	PropertyID uint16
	Path       []wiretype.PathLevel
	Payload    []byte
}

type Version struct {
	Version string
}

type Map struct {
	Name string
}

type PlayerOrientation struct {
	EntityID battlecore.EntityID
	Heading  float32
}

type CameraMode struct {
	EntityID battlecore.EntityID
	Mode     uint8
}

type PlayerPosition struct {
	EntityID battlecore.EntityID
	Pos      battlecore.Vector3
}

// Unknown preserves the raw bytes of a packet whose Kind has no registered
// decoder, so downstream tooling can still mine it without forcing a
// schema/framer update (spec.md §4.3, §9).
type Unknown struct {
	Bytes []byte
}

func (Position) isPacketVariant()          {}
func (EntityCreate) isPacketVariant()      {}
func (EntityMethod) isPacketVariant()      {}
func (EntityProperty) isPacketVariant()    {}
func (PropertyUpdate) isPacketVariant()    {}
func (BasePlayerCreate) isPacketVariant()  {}
func (CellPlayerCreate) isPacketVariant()  {}
func (EntityControl) isPacketVariant()     {}
func (EntityLeave) isPacketVariant()       {}
func (NestedProperty) isPacketVariant()    {}
func (Version) isPacketVariant()           {}
func (Map) isPacketVariant()               {}
func (PlayerOrientation) isPacketVariant() {}
func (CameraMode) isPacketVariant()        {}
func (PlayerPosition) isPacketVariant()    {}
func (Unknown) isPacketVariant()           {}

// KnownKinds enumerates the wire-level packet kinds this framer recognizes,
// mapping each to the PacketVariant it decodes into. Unrecognized kinds
// fall back to Unknown. Kept as a package-level table (rather than a type
// switch scattered through the framer) so the set of supported kinds is
// visible at a glance, the way the teacher keeps repcmd.Types as a single
// enumeration table.
var KnownKinds = []struct {
	ID   Kind
	Name string
}{
	{1, "Position"},
	{2, "EntityCreate"},
	{3, "EntityMethod"},
	{4, "EntityProperty"},
	{5, "PropertyUpdate"},
	{6, "BasePlayerCreate"},
	{7, "CellPlayerCreate"},
	{8, "EntityControl"},
	{9, "EntityLeave"},
	{10, "NestedProperty"},
	{11, "Version"},
	{12, "Map"},
	{13, "PlayerOrientation"},
	{14, "CameraMode"},
	{15, "PlayerPosition"},
}

// KindName returns the human-readable name of a Kind, or "Unknown" if the
// kind isn't in KnownKinds.
func KindName(k Kind) string {
	for _, kk := range KnownKinds {
		if kk.ID == k {
			return kk.Name
		}
	}
	return "Unknown"
}
