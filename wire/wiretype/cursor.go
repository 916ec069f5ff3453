// This file contains Cursor, the schema-typed reader over a byte slice.
// It plays the same role the teacher's repparser.sliceReader plays for
// fixed command layouts, generalized to read any TypeSpec.

package wiretype

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/navalreplay/analyzer/battlecore"
)

// Cursor reads schema-typed Values from a byte slice.
type Cursor struct {
	b   []byte
	pos uint32
}

// NewCursor creates a Cursor over b, starting at offset 0.
func NewCursor(b []byte) *Cursor {
	return &Cursor{b: b}
}

// Pos returns the current read offset.
func (c *Cursor) Pos() uint32 { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() uint32 {
	if c.pos >= uint32(len(c.b)) {
		return 0
	}
	return uint32(len(c.b)) - c.pos
}

func (c *Cursor) need(n uint32) error {
	if c.Remaining() < n {
		return ErrShortRead
	}
	return nil
}

func (c *Cursor) bytes(n uint32) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.b[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadValue reads one Value per spec, dispatching on spec.Prim.
func (c *Cursor) ReadValue(spec TypeSpec) (Value, error) {
	switch spec.Prim {
	case PrimInt8:
		b, err := c.bytes(1)
		if err != nil {
			return Value{}, err
		}
		return Int64(int64(int8(b[0]))), nil
	case PrimInt16:
		b, err := c.bytes(2)
		if err != nil {
			return Value{}, err
		}
		return Int64(int64(int16(binary.LittleEndian.Uint16(b)))), nil
	case PrimInt32:
		b, err := c.bytes(4)
		if err != nil {
			return Value{}, err
		}
		return Int64(int64(int32(binary.LittleEndian.Uint32(b)))), nil
	case PrimInt64:
		b, err := c.bytes(8)
		if err != nil {
			return Value{}, err
		}
		return Int64(int64(binary.LittleEndian.Uint64(b))), nil
	case PrimUint8:
		b, err := c.bytes(1)
		if err != nil {
			return Value{}, err
		}
		return Uint64(uint64(b[0])), nil
	case PrimUint16:
		b, err := c.bytes(2)
		if err != nil {
			return Value{}, err
		}
		return Uint64(uint64(binary.LittleEndian.Uint16(b))), nil
	case PrimUint32:
		b, err := c.bytes(4)
		if err != nil {
			return Value{}, err
		}
		return Uint64(uint64(binary.LittleEndian.Uint32(b))), nil
	case PrimUint64:
		b, err := c.bytes(8)
		if err != nil {
			return Value{}, err
		}
		return Uint64(binary.LittleEndian.Uint64(b)), nil
	case PrimFloat32:
		b, err := c.bytes(4)
		if err != nil {
			return Value{}, err
		}
		bits := binary.LittleEndian.Uint32(b)
		return Float64(float64(float32FromBits(bits))), nil
	case PrimFloat64:
		b, err := c.bytes(8)
		if err != nil {
			return Value{}, err
		}
		bits := binary.LittleEndian.Uint64(b)
		return Float64(float64FromBits(bits)), nil
	case PrimBool:
		b, err := c.bytes(1)
		if err != nil {
			return Value{}, err
		}
		return Bool(b[0] != 0), nil

	case PrimFixedArray:
		return c.readArray(spec, spec.FixedLen, KindArray)

	case PrimVarArray:
		n, err := c.readHeaderLen(spec.HeaderSize)
		if err != nil {
			return Value{}, err
		}
		return c.readArray(spec, n, KindArray)

	case PrimTuple:
		vals := make([]Value, len(spec.Tuple))
		for i, member := range spec.Tuple {
			v, err := c.ReadValue(member)
			if err != nil {
				return Value{}, err
			}
			vals[i] = v
		}
		return Value{Kind: KindTuple, Array: vals}, nil

	case PrimFixedString:
		b, err := c.bytes(spec.FixedLen)
		if err != nil {
			return Value{}, err
		}
		return String(cStringTrim(b)), nil

	case PrimVarString:
		n, err := c.readHeaderLen(spec.HeaderSize)
		if err != nil {
			return Value{}, err
		}
		b, err := c.bytes(n)
		if err != nil {
			return Value{}, err
		}
		return String(string(b)), nil

	case PrimVarStringUTF16:
		n, err := c.readHeaderLen(spec.HeaderSize) // n = code unit count
		if err != nil {
			return Value{}, err
		}
		b, err := c.bytes(n * 2)
		if err != nil {
			return Value{}, err
		}
		s, err := decodeUTF16LE(b)
		if err != nil {
			return Value{}, err
		}
		return String(s), nil

	case PrimVector2:
		b, err := c.bytes(8)
		if err != nil {
			return Value{}, err
		}
		x := float32FromBits(binary.LittleEndian.Uint32(b[0:4]))
		y := float32FromBits(binary.LittleEndian.Uint32(b[4:8]))
		return Value{Kind: KindVector2, Vector2: battlecore.Vector2{X: x, Y: y}}, nil

	case PrimVector3:
		b, err := c.bytes(12)
		if err != nil {
			return Value{}, err
		}
		x := float32FromBits(binary.LittleEndian.Uint32(b[0:4]))
		y := float32FromBits(binary.LittleEndian.Uint32(b[4:8]))
		z := float32FromBits(binary.LittleEndian.Uint32(b[8:12]))
		return Value{Kind: KindVector3, Vector3: battlecore.Vector3{X: x, Y: y, Z: z}}, nil

	case PrimMailbox:
		// Mailbox values are a fixed-size opaque addressing token; the
		// format is game-proprietary and intentionally left opaque
		// (spec.md Non-goals: "decoding every game-proprietary
		// mini-protocol").
		b, err := c.bytes(16)
		if err != nil {
			return Value{}, err
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return Value{Kind: KindMailbox, Mailbox: cp}, nil

	case PrimPickled:
		n, err := c.readHeaderLen(2)
		if err != nil {
			return Value{}, err
		}
		b, err := c.bytes(n)
		if err != nil {
			return Value{}, err
		}
		return DecodePickle(b)

	default:
		return Value{}, fmt.Errorf("wiretype: unknown TypeSpec.Prim %d", spec.Prim)
	}
}

func (c *Cursor) readArray(spec TypeSpec, n uint32, kind Kind) (Value, error) {
	if spec.Elem == nil {
		return Value{}, fmt.Errorf("wiretype: array TypeSpec missing Elem")
	}
	if n > c.Remaining() {
		// Cheap sanity bound: can't possibly have n elements left even at
		// zero bytes per element overstates capacity, but catches the
		// common corrupt-length case before allocating.
		return Value{}, ErrOutOfRange
	}
	vals := make([]Value, n)
	for i := uint32(0); i < n; i++ {
		v, err := c.ReadValue(*spec.Elem)
		if err != nil {
			return Value{}, err
		}
		vals[i] = v
	}
	return Value{Kind: kind, Array: vals}, nil
}

func (c *Cursor) readHeaderLen(headerSize uint8) (uint32, error) {
	switch headerSize {
	case 1:
		b, err := c.bytes(1)
		if err != nil {
			return 0, err
		}
		return uint32(b[0]), nil
	case 2:
		b, err := c.bytes(2)
		if err != nil {
			return 0, err
		}
		return uint32(binary.LittleEndian.Uint16(b)), nil
	default:
		return 0, ErrUnknownHeaderSize
	}
}

func cStringTrim(b []byte) string {
	for i, ch := range b {
		if ch == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// utf16Decoder backs every UTF-16 string field this codec reads
// (PrimVarStringUTF16 in ReadValue, and the equivalent pickle string path),
// the same golang.org/x/text/encoding/unicode machinery the teacher's own
// koreanString/cString helpers use for non-ASCII client strings.
var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// decodeUTF16LE decodes b (an even-length little-endian UTF-16 byte run,
// no BOM) via the x/text UTF-16 transformer.
func decodeUTF16LE(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("wiretype: odd UTF-16 byte length %d", len(b))
	}
	out, _, err := transform.Bytes(utf16Decoder, b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func float32FromBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func float64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}
