// This file implements the packet framer: splitting the decompressed
// container payload into typed Packets. It plays the role the teacher's
// repparser.sliceReader plays for one command block, generalized into a
// lazy, finite, non-restartable iterator over frame-prefixed packets
// (spec.md §4.3).

package wireframe

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/navalreplay/analyzer/battlecore"
	"github.com/navalreplay/analyzer/wire"
)

// ErrTruncated is returned by Next when a trailing, incomplete frame is
// encountered: a fatal-at-framer condition per spec.md §7, but one that
// leaves every prior successfully-framed Packet valid.
var ErrTruncated = errors.New("wireframe: truncated trailing frame")

const frameHeaderSize = 4 + 4 + 4 // u32 size, u32 kind, f32 clock

// Framer splits a decompressed byte stream into Packets. It is not safe
// for concurrent use and is not restartable: once exhausted (Next returns
// io.EOF or ErrTruncated), it has no further packets to give.
type Framer struct {
	b       []byte
	pos     int
	lastClk battlecore.Clock
	decoder VariantDecoder
}

// VariantDecoder decodes a Kind+payload into a wire.PacketVariant. The
// semantic layer supplies this so wireframe itself stays schema-agnostic;
// a nil decoder leaves every packet as wire.Unknown.
type VariantDecoder func(kind wire.Kind, payload []byte) (wire.PacketVariant, error)

// New creates a Framer over the fully decompressed payload b.
func New(b []byte, decoder VariantDecoder) *Framer {
	return &Framer{b: b, decoder: decoder}
}

// Next returns the next Packet, io.EOF when the stream is exhausted, or
// ErrTruncated if a trailing incomplete frame is found.
func (f *Framer) Next() (*wire.Packet, error) {
	remaining := len(f.b) - f.pos
	if remaining == 0 {
		return nil, io.EOF
	}
	if remaining < frameHeaderSize {
		return nil, ErrTruncated
	}

	hdr := f.b[f.pos : f.pos+frameHeaderSize]
	size := binary.LittleEndian.Uint32(hdr[0:4])
	kind := wire.Kind(binary.LittleEndian.Uint32(hdr[4:8]))
	clockBits := binary.LittleEndian.Uint32(hdr[8:12])
	clock := battlecore.Clock(math.Float32frombits(clockBits))

	bodyStart := f.pos + frameHeaderSize
	bodyEnd := bodyStart + int(size)
	if bodyEnd > len(f.b) {
		return nil, ErrTruncated
	}

	// Payload is a sub-slice: never copied here. Valid until the next
	// call to Next, which is the only thing that can advance f.pos and
	// thus invalidate any assumption that this window won't be reused.
	payload := f.b[bodyStart:bodyEnd]
	f.pos = bodyEnd

	var variant wire.PacketVariant
	var err error
	if f.decoder != nil {
		variant, err = f.decoder(kind, payload)
	}
	if variant == nil || err != nil {
		variant = wire.Unknown{Bytes: payload}
	}

	if clock < f.lastClk {
		// Invariant violated (spec.md §3: "Every packet's clock >= clock
		// of all previously ingested packets"). The framer still yields
		// the packet, but with its clock raised to the last clock seen,
		// so yielded clocks never decrease; the regression is not
		// reported to the caller.
		clock = f.lastClk
	}
	f.lastClk = clock

	return &wire.Packet{Clock: clock, Kind: kind, Payload: payload, Variant: variant}, nil
}

