// This file contains the Value type: the schema-typed tagged union that
// the primitive/composite codec reads from the wire, and that nested
// property updates mutate in place.

package wiretype

import (
	"encoding/json"
	"fmt"

	"github.com/navalreplay/analyzer/battlecore"
)

// Kind identifies which alternative of Value is populated.
type Kind uint8

const (
	KindInt Kind = iota
	KindUint
	KindFloat
	KindBool
	KindArray
	KindTuple
	KindString
	KindVector2
	KindVector3
	KindMailbox
	KindPickled
	KindNone
)

// Value is a schema-typed decoded value. Only the field matching Kind is
// meaningful. Composite kinds (Array, Tuple, Pickled-with-dict) nest further
// Values, forming a tree that the nested-property applier (apply.go) walks
// and mutates in place.
type Value struct {
	Kind Kind

	Int     int64
	Uint    uint64
	Float   float64
	Bool    bool
	Str     string
	Vector2 battlecore.Vector2
	Vector3 battlecore.Vector3

	// Array holds elements for KindArray and KindTuple.
	Array []Value

	// Dict holds keyed elements for a Pickled class-tagged object's state,
	// or for any composite value whose TypeSpec names string keys. Most
	// Values never use this; it is nil unless needed.
	//
	// Entries are pointers (rather than map[string]Value) so a nested
	// property path can resolve to a stable, mutable node: Go map
	// elements aren't addressable, but the *Value each entry points to
	// is, which is what Value.Walk/Apply need to mutate state in place
	// without a map read-modify-write at every path level.
	Dict map[string]*Value

	// ClassName is set for KindPickled values that decoded a class-tagged
	// object ({class_name, state} per spec.md §4.4); Dict then holds the
	// object's state.
	ClassName string

	// Mailbox holds the raw bytes of a MAILBOX value; the format is
	// opaque to this codec (an entity/cell addressing token understood
	// only by the game's own runtime).
	Mailbox []byte
}

// Int64 constructs a signed-integer Value.
func Int64(v int64) Value { return Value{Kind: KindInt, Int: v} }

// Uint64 constructs an unsigned-integer Value.
func Uint64(v uint64) Value { return Value{Kind: KindUint, Uint: v} }

// Float64 constructs a float Value.
func Float64(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Bool constructs a bool Value.
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// String constructs a string Value.
func String(v string) Value { return Value{Kind: KindString, Str: v} }

// None constructs the None/null Value.
func None() Value { return Value{Kind: KindNone} }

// AsInt returns the Value as an int64 regardless of whether it was decoded
// as signed or unsigned, for callers that only care about the numeric
// value (e.g. entity/method argument unpacking).
func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindUint:
		return int64(v.Uint), true
	default:
		return 0, false
	}
}

// MarshalJSON marshals the Value as a tagged object: {"kind": "...", ...}.
// This keeps report consumers from needing a Go type switch over the
// internal tagged-union representation (SPEC_FULL.md §3).
func (v Value) MarshalJSON() ([]byte, error) {
	type tagged struct {
		Kind      string            `json:"kind"`
		Int       *int64            `json:"int,omitempty"`
		Uint      *uint64           `json:"uint,omitempty"`
		Float     *float64          `json:"float,omitempty"`
		Bool      *bool             `json:"bool,omitempty"`
		Str       *string           `json:"str,omitempty"`
		Vector2   *battlecore.Vector2 `json:"vector2,omitempty"`
		Vector3   *battlecore.Vector3 `json:"vector3,omitempty"`
		Array     []Value           `json:"array,omitempty"`
		Dict      map[string]*Value `json:"dict,omitempty"`
		ClassName string            `json:"class_name,omitempty"`
	}

	t := tagged{Dict: v.Dict, Array: v.Array, ClassName: v.ClassName}
	switch v.Kind {
	case KindInt:
		t.Kind, t.Int = "int", &v.Int
	case KindUint:
		t.Kind, t.Uint = "uint", &v.Uint
	case KindFloat:
		t.Kind, t.Float = "float", &v.Float
	case KindBool:
		t.Kind, t.Bool = "bool", &v.Bool
	case KindArray:
		t.Kind = "array"
	case KindTuple:
		t.Kind = "tuple"
	case KindString:
		t.Kind, t.Str = "string", &v.Str
	case KindVector2:
		t.Kind, t.Vector2 = "vector2", &v.Vector2
	case KindVector3:
		t.Kind, t.Vector3 = "vector3", &v.Vector3
	case KindMailbox:
		t.Kind = "mailbox"
	case KindPickled:
		t.Kind = "pickled"
	case KindNone:
		t.Kind = "none"
	default:
		return nil, fmt.Errorf("wiretype: Value.MarshalJSON: unknown kind %d", v.Kind)
	}
	return json.Marshal(t)
}
