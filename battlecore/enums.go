// This file contains the closed enumerations shared by the semantic event
// and battle-controller layers: death causes, chat audiences, ribbon and
// voice-line kinds, consumable kinds, and game modes.

package battlecore

// DeathCause classifies how a ShipDestroyed event's victim died.
type DeathCause struct {
	Enum

	// ID as it appears on the wire.
	ID uint8

	// Self tells if this cause implies the attacker is the victim
	// (self-destruction); used to classify Death.Attacker = Self per
	// spec.md §4.7.
	Self bool
}

// DeathCauses is an enumeration of the possible death causes.
var DeathCauses = []*DeathCause{
	{Enum{"Artillery"}, 0x00, false},
	{Enum{"Torpedo"}, 0x01, false},
	{Enum{"DiveBomber"}, 0x02, false},
	{Enum{"AerialTorpedo"}, 0x03, false},
	{Enum{"Fire"}, 0x04, false},
	{Enum{"Ramming"}, 0x05, false},
	{Enum{"Flooding"}, 0x06, false},
	{Enum{"Detonation"}, 0x07, true},
	{Enum{"SecondaryBattery"}, 0x08, false},
	{Enum{"DepthCharge"}, 0x09, false},
	{Enum{"SeaMine"}, 0x0A, false},
}

// DeathCauseByID returns the DeathCause for a given wire ID, or an Unknown
// placeholder preserving the ID if it isn't recognized.
func DeathCauseByID(id uint8) *DeathCause {
	for _, dc := range DeathCauses {
		if dc.ID == id {
			return dc
		}
	}
	return &DeathCause{UnknownEnum(id), id, false}
}

// Audience classifies who a Chat event's text is visible to.
type Audience struct {
	Enum

	// ID as it appears on the wire (schema-visible string tag).
	ID string
}

// Audiences is an enumeration of the possible chat audiences.
var Audiences = []*Audience{
	{Enum{"Battle"}, "battle"},
	{Enum{"Team"}, "team"},
	{Enum{"Squad"}, "div"},
	{Enum{"PreBattle"}, "prebattle"},
}

// AudienceByID returns the Audience for a given wire tag, or an Unknown
// placeholder preserving the tag if it isn't recognized.
func AudienceByID(id string) *Audience {
	for _, a := range Audiences {
		if a.ID == id {
			return a
		}
	}
	return &Audience{UnknownEnum(id), id}
}

// RibbonKind classifies an on-screen achievement ribbon.
type RibbonKind struct {
	Enum
	ID int32
}

// RibbonKinds is an enumeration of the possible ribbon kinds.
var RibbonKinds = []*RibbonKind{
	{Enum{"PlaneShotDown"}, 1},
	{Enum{"Incapacitation"}, 2},
	{Enum{"Destroyed"}, 3},
	{Enum{"SetFire"}, 4},
	{Enum{"Flooding"}, 5},
	{Enum{"Citadel"}, 6},
	{Enum{"Defended"}, 7},
	{Enum{"Captured"}, 8},
	{Enum{"AssistedInCapture"}, 9},
	{Enum{"SuppressedDefender"}, 10},
	{Enum{"SecondaryHit"}, 11},
	{Enum{"OverPenetration"}, 12},
	{Enum{"Penetration"}, 13},
	{Enum{"NonPenetration"}, 14},
	{Enum{"Ricochet"}, 15},
	{Enum{"TorpedoProtectionHit"}, 16},
	{Enum{"Spotted"}, 17},
}

// RibbonKindByID returns the RibbonKind for a given wire ID.
func RibbonKindByID(id int32) *RibbonKind {
	for _, r := range RibbonKinds {
		if r.ID == id {
			return r
		}
	}
	return &RibbonKind{UnknownEnum(id), id}
}

// VoiceLineKind classifies a quick-chat voice line.
type VoiceLineKind struct {
	Enum
	ID int32
}

// VoiceLineKinds is an enumeration of the possible voice-line kinds.
var VoiceLineKinds = []*VoiceLineKind{
	{Enum{"Affirmative"}, 0},
	{Enum{"Negative"}, 1},
	{Enum{"FollowMe"}, 2},
	{Enum{"NeedHelp"}, 3},
	{Enum{"UnderFire"}, 4},
	{Enum{"WellDone"}, 5},
	{Enum{"SetSmoke"}, 6},
	{Enum{"Retreat"}, 7},
	{Enum{"CurseYou"}, 8},
}

// VoiceLineKindByID returns the VoiceLineKind for a given wire ID.
func VoiceLineKindByID(id int32) *VoiceLineKind {
	for _, v := range VoiceLineKinds {
		if v.ID == id {
			return v
		}
	}
	return &VoiceLineKind{UnknownEnum(id), id}
}

// ConsumableKind classifies a consumable a ship activated.
type ConsumableKind struct {
	Enum
	ID int32
}

// ConsumableKinds is an enumeration of the possible consumable kinds.
var ConsumableKinds = []*ConsumableKind{
	{Enum{"DamageControl"}, 0},
	{Enum{"SpottingAircraft"}, 1},
	{Enum{"DefensiveAAFire"}, 2},
	{Enum{"SpeedBoost"}, 3},
	{Enum{"RepairParty"}, 4},
	{Enum{"CatapultFighter"}, 5},
	{Enum{"SmokeScreen"}, 6},
	{Enum{"MainBatteryReloadBooster"}, 7},
	{Enum{"TorpedoReloadBooster"}, 8},
	{Enum{"Hydrophone"}, 9},
	{Enum{"RadioLocation"}, 10},
	{Enum{"EngineBoost"}, 11},
	{Enum{"ReserveBattery"}, 12},
}

// ConsumableKindByID returns the ConsumableKind for a given wire ID.
func ConsumableKindByID(id int32) *ConsumableKind {
	for _, c := range ConsumableKinds {
		if c.ID == id {
			return c
		}
	}
	return &ConsumableKind{UnknownEnum(id), id}
}
