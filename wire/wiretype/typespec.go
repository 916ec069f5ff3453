// This file contains TypeSpec, the schema-declared description of how to
// read one Value from the wire, and the errors the codec can raise.

package wiretype

import "errors"

// Prim identifies a primitive or composite wire encoding.
type Prim uint8

const (
	PrimInt8 Prim = iota
	PrimInt16
	PrimInt32
	PrimInt64
	PrimUint8
	PrimUint16
	PrimUint32
	PrimUint64
	PrimFloat32
	PrimFloat64
	PrimBool
	PrimFixedArray
	PrimVarArray
	PrimTuple
	PrimFixedString
	PrimVarString
	PrimVarStringUTF16
	PrimVector2
	PrimVector3
	PrimMailbox
	PrimPickled
)

// TypeSpec describes how to decode one Value from the wire, per the
// versioned entity-schema documents (schema package).
type TypeSpec struct {
	Prim Prim

	// FixedLen is the element count for PrimFixedArray / the byte length
	// for PrimFixedString.
	FixedLen uint32

	// HeaderSize selects the length-prefix width (1 or 2 bytes) for
	// PrimVarArray / PrimVarString / PrimVarStringUTF16, per the
	// <VariableLengthHeaderSize> schema directive.
	HeaderSize uint8

	// Elem is the element TypeSpec for PrimFixedArray / PrimVarArray.
	Elem *TypeSpec

	// Tuple is the ordered list of member TypeSpecs for PrimTuple.
	Tuple []TypeSpec
}

var (
	// ErrShortRead is returned when the cursor runs out of bytes before a
	// declared value is fully read.
	ErrShortRead = errors.New("wiretype: short read")

	// ErrOutOfRange is returned when a declared array length exceeds what
	// the remaining cursor bytes could hold. A string length that overruns
	// the buffer yields ErrShortRead instead.
	ErrOutOfRange = errors.New("wiretype: value out of range")

	// ErrUnknownHeaderSize is returned for a HeaderSize other than 1 or 2.
	ErrUnknownHeaderSize = errors.New("wiretype: unknown variable-length header size")

	// ErrPickleOpcode is returned by DecodePickle for an opcode this
	// sub-decoder doesn't support.
	ErrPickleOpcode = errors.New("wiretype: unsupported pickle opcode")

	// ErrPickleCycle is returned by DecodePickle when a memo id is
	// revisited, which the format forbids (spec.md §9).
	ErrPickleCycle = errors.New("wiretype: cyclic reference in pickled data")

	// ErrPropertyPathInvalid is returned by Value.Walk / Value.Apply when
	// a path step doesn't resolve against the current node.
	ErrPropertyPathInvalid = errors.New("wiretype: property path invalid")
)
