// Package container implements the container decoder: authenticating the
// replay file header, decrypting the payload, and decompressing it into
// the raw packet stream the framer consumes. See spec.md §4.1, §6.
package container

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/crypto/blowfish"
)

var (
	// ErrBadMagic indicates the fixed magic prefix is absent or doesn't
	// match any known replay magic.
	ErrBadMagic = errors.New("container: bad magic header")

	// ErrShortHeader indicates the input ends before the declared header
	// sections could be fully read.
	ErrShortHeader = errors.New("container: short header")

	// ErrJSONParse indicates a metadata block's bytes aren't valid JSON.
	ErrJSONParse = errors.New("container: metadata JSON parse error")

	// ErrCrypto indicates the encrypted payload's length isn't a multiple
	// of the cipher's 8-byte block size.
	ErrCrypto = errors.New("container: payload not a multiple of block size")

	// ErrCompression indicates the decompression stream is corrupt.
	ErrCompression = errors.New("container: decompression error")
)

// knownMagics enumerates the accepted file magics, in the style of the
// teacher's repIDs table (repparser.repIDs) rather than a single fixed
// constant, so a future client build that changes the magic is a one-line
// table edit.
var knownMagics = [][4]byte{
	{'R', 'P', 'L', '1'},
	{'R', 'P', 'L', '2'},
}

// Metadata is the authoritative match metadata parsed from the container's
// first JSON block (spec.md §3 ReplayContainer).
type Metadata struct {
	Build       string          `json:"clientVersionFromExe"`
	Map         string          `json:"mapName"`
	GameMode    string          `json:"gameMode"`
	DateTime    string          `json:"dateTime"`
	PlayerName  string          `json:"playerName"`
	PlayerID    int64           `json:"playerID"`
	VehicleName string          `json:"playerVehicle"`
	Scenario    string          `json:"scenario"`
	Extra       map[string]any  `json:"-"`
	Raw         json.RawMessage `json:"-"`

	// ReservedBlocks holds metadata blocks beyond the first, undecoded,
	// per spec.md §4.1 "subsequent blocks are reserved".
	ReservedBlocks []json.RawMessage `json:"-"`
}

// buildKey derives the fixed symmetric cipher key for a given client build.
// The real container format ties the key to the build; this distillation
// keeps one fixed key (matching spec.md §4.1 "a fixed key derived per game
// build" — derivation here is the identity function over a single constant,
// since only one build family's key is in scope for this engine).
var cipherKey = []byte{0x29, 0xB7, 0xC9, 0x09, 0x38, 0x3F, 0x84, 0x88,
	0xFA, 0x98, 0xEC, 0x4E, 0x13, 0x19, 0x79, 0xFB}

func buildKey(build string) []byte {
	_ = build // single fixed key for now; kept as a hook for multi-build keys
	return cipherKey
}

// Decode authenticates, decrypts, and decompresses a replay container,
// returning the parsed Metadata and the decompressed packet stream.
func Decode(r io.Reader) (*Metadata, []byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("container: reading input: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory byte slice.
func DecodeBytes(data []byte) (*Metadata, []byte, error) {
	if len(data) < 8 {
		return nil, nil, ErrShortHeader
	}

	var magic [4]byte
	copy(magic[:], data[:4])
	if !magicKnown(magic) {
		return nil, nil, ErrBadMagic
	}

	pos := 4
	if len(data) < pos+4 {
		return nil, nil, ErrShortHeader
	}
	blockCount := binary.LittleEndian.Uint32(data[pos:])
	pos += 4

	var meta *Metadata
	var reserved []json.RawMessage
	for i := uint32(0); i < blockCount; i++ {
		if len(data) < pos+4 {
			return nil, nil, ErrShortHeader
		}
		blockLen := binary.LittleEndian.Uint32(data[pos:])
		pos += 4
		if len(data) < pos+int(blockLen) {
			return nil, nil, ErrShortHeader
		}
		block := data[pos : pos+int(blockLen)]
		pos += int(blockLen)

		if i == 0 {
			m := &Metadata{}
			if err := json.Unmarshal(block, m); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrJSONParse, err)
			}
			if err := json.Unmarshal(block, &m.Extra); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrJSONParse, err)
			}
			cp := make(json.RawMessage, len(block))
			copy(cp, block)
			m.Raw = cp
			meta = m
		} else {
			cp := make(json.RawMessage, len(block))
			copy(cp, block)
			reserved = append(reserved, cp)
		}
	}
	if meta == nil {
		return nil, nil, ErrShortHeader
	}
	meta.ReservedBlocks = reserved

	payload := data[pos:]
	plain, err := decrypt(payload, buildKey(meta.Build))
	if err != nil {
		return nil, nil, err
	}

	decompressed, err := decompress(plain)
	if err != nil {
		return nil, nil, err
	}

	return meta, decompressed, nil
}

func magicKnown(m [4]byte) bool {
	for _, km := range knownMagics {
		if km == m {
			return true
		}
	}
	return false
}

const blockSize = 8

// decrypt implements spec.md §4.1's fixed 64-bit-block symmetric cipher
// with CBC-like ciphertext chaining: each plaintext block is produced by
// ECB-decrypting the ciphertext block and XORing in the *previous*
// ciphertext block — i.e. chaining happens on the ciphertext side rather
// than feeding the previous plaintext block in as an IV the way textbook
// CBC does, which is why this is hand-rolled over blowfish.Cipher.Decrypt
// instead of cipher.NewCBCDecrypter. decrypt itself drops the first
// plaintext block and returns only the bytes after it (spec.md: "the first
// 8 bytes of plaintext are discarded").
func decrypt(payload, key []byte) ([]byte, error) {
	if len(payload)%blockSize != 0 || len(payload) == 0 {
		return nil, ErrCrypto
	}
	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	out := make([]byte, len(payload))
	prevCipher := make([]byte, blockSize) // zero IV
	for off := 0; off < len(payload); off += blockSize {
		ct := payload[off : off+blockSize]
		var pt [blockSize]byte
		block.Decrypt(pt[:], ct)
		for i := 0; i < blockSize; i++ {
			pt[i] ^= prevCipher[i]
		}
		copy(out[off:off+blockSize], pt[:])
		prevCipher = ct
	}

	if len(out) < blockSize {
		return nil, ErrCrypto
	}
	return out[blockSize:], nil // discard first plaintext block
}

// encrypt is the inverse of decrypt, used by tests to exercise the
// round-trip property required by spec.md §8.
func encrypt(plain, key []byte) ([]byte, error) {
	padded := append(make([]byte, blockSize), plain...) // leading discarded block
	if len(padded)%blockSize != 0 {
		return nil, ErrCrypto
	}
	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	out := make([]byte, len(padded))
	prevCipher := make([]byte, blockSize)
	for off := 0; off < len(padded); off += blockSize {
		var pt [blockSize]byte
		copy(pt[:], padded[off:off+blockSize])
		for i := 0; i < blockSize; i++ {
			pt[i] ^= prevCipher[i]
		}
		var ct [blockSize]byte
		block.Encrypt(ct[:], pt[:])
		copy(out[off:off+blockSize], ct[:])
		prevCipher = ct[:]
	}
	return out, nil
}

func decompress(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	return out, nil
}

func compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
