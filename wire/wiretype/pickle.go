// This file implements the Pickled sub-decoder: an opaque serialized
// object graph produced by the source game's scripting runtime, decoded
// into a nested Value. See spec.md §4.4 and §9.

package wiretype

import (
	"encoding/binary"
	"fmt"
)

// Pickle opcodes. The subset supported mirrors spec.md §4.4: integers,
// booleans, strings (bytes and UTF), tuples, lists, dicts, None, and
// class-tagged objects.
const (
	opInt     = 0x01
	opLong    = 0x02
	opBool    = 0x03
	opBytes   = 0x04
	opUnicode = 0x05
	opTuple   = 0x06
	opList    = 0x07
	opDict    = 0x08
	opNone    = 0x09
	opObject  = 0x0A // class-tagged object: {class_name, state}
	opMemoGet = 0x0B // back-reference to a previously decoded memo id
	opMemoPut = 0x0C // marks the following value with a memo id
)

type pickleReader struct {
	b   []byte
	pos int

	// memo maps memo id -> already-decoded Value, for back-references.
	memo map[uint32]Value

	// visiting tracks memo ids currently being decoded, to detect the
	// cyclic references the format forbids (spec.md §9).
	visiting map[uint32]bool
}

// DecodePickle decodes one opaque pickled object graph into a Value.
func DecodePickle(b []byte) (Value, error) {
	pr := &pickleReader{b: b, memo: map[uint32]Value{}, visiting: map[uint32]bool{}}
	return pr.readValue()
}

func (pr *pickleReader) need(n int) error {
	if pr.pos+n > len(pr.b) {
		return ErrShortRead
	}
	return nil
}

func (pr *pickleReader) u8() (byte, error) {
	if err := pr.need(1); err != nil {
		return 0, err
	}
	b := pr.b[pr.pos]
	pr.pos++
	return b, nil
}

func (pr *pickleReader) u32() (uint32, error) {
	if err := pr.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(pr.b[pr.pos:])
	pr.pos += 4
	return v, nil
}

func (pr *pickleReader) i64() (int64, error) {
	if err := pr.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(pr.b[pr.pos:])
	pr.pos += 8
	return int64(v), nil
}

func (pr *pickleReader) bytesN(n uint32) ([]byte, error) {
	if err := pr.need(int(n)); err != nil {
		return nil, err
	}
	out := pr.b[pr.pos : pr.pos+int(n)]
	pr.pos += int(n)
	return out, nil
}

func (pr *pickleReader) readValue() (Value, error) {
	op, err := pr.u8()
	if err != nil {
		return Value{}, err
	}
	return pr.readOp(op)
}

func (pr *pickleReader) readOp(op byte) (Value, error) {
	switch op {
	case opNone:
		return None(), nil

	case opBool:
		b, err := pr.u8()
		if err != nil {
			return Value{}, err
		}
		return Bool(b != 0), nil

	case opInt:
		n, err := pr.u32()
		if err != nil {
			return Value{}, err
		}
		return Int64(int64(int32(n))), nil

	case opLong:
		n, err := pr.i64()
		if err != nil {
			return Value{}, err
		}
		return Int64(n), nil

	case opBytes:
		n, err := pr.u32()
		if err != nil {
			return Value{}, err
		}
		b, err := pr.bytesN(n)
		if err != nil {
			return Value{}, err
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return String(string(cp)), nil

	case opUnicode:
		n, err := pr.u32()
		if err != nil {
			return Value{}, err
		}
		b, err := pr.bytesN(n * 2)
		if err != nil {
			return Value{}, err
		}
		s, err := decodeUTF16LE(b)
		if err != nil {
			return Value{}, err
		}
		return String(s), nil

	case opTuple, opList:
		n, err := pr.u32()
		if err != nil {
			return Value{}, err
		}
		vals := make([]Value, n)
		for i := range vals {
			v, err := pr.readValue()
			if err != nil {
				return Value{}, err
			}
			vals[i] = v
		}
		kind := KindArray
		if op == opTuple {
			kind = KindTuple
		}
		return Value{Kind: kind, Array: vals}, nil

	case opDict:
		n, err := pr.u32()
		if err != nil {
			return Value{}, err
		}
		dict := make(map[string]*Value, n)
		for i := uint32(0); i < n; i++ {
			keyOp, err := pr.u8()
			if err != nil {
				return Value{}, err
			}
			keyVal, err := pr.readOp(keyOp)
			if err != nil {
				return Value{}, err
			}
			valVal, err := pr.readValue()
			if err != nil {
				return Value{}, err
			}
			v := valVal
			dict[keyVal.Str] = &v
		}
		return Value{Kind: KindPickled, Dict: dict}, nil

	case opObject:
		className, err := pr.readValue()
		if err != nil {
			return Value{}, err
		}
		state, err := pr.readValue()
		if err != nil {
			return Value{}, err
		}
		result := Value{Kind: KindPickled, ClassName: className.Str}
		if state.Kind == KindPickled {
			result.Dict = state.Dict
		} else {
			s := state
			result.Dict = map[string]*Value{"state": &s}
		}
		return result, nil

	case opMemoPut:
		id, err := pr.u32()
		if err != nil {
			return Value{}, err
		}
		if pr.visiting[id] {
			return Value{}, ErrPickleCycle
		}
		pr.visiting[id] = true
		v, err := pr.readValue()
		if err != nil {
			return Value{}, err
		}
		delete(pr.visiting, id)
		pr.memo[id] = v
		return v, nil

	case opMemoGet:
		id, err := pr.u32()
		if err != nil {
			return Value{}, err
		}
		if pr.visiting[id] {
			return Value{}, ErrPickleCycle
		}
		v, ok := pr.memo[id]
		if !ok {
			return Value{}, fmt.Errorf("wiretype: pickle memo id %d not found", id)
		}
		return v, nil

	default:
		return Value{}, ErrPickleOpcode
	}
}
