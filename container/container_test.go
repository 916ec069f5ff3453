package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCryptoRoundTrip exercises spec.md §8's container round-trip property:
// decrypt(encrypt(x, key), key) == x.
func TestCryptoRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("12345678"),                 // exactly one block
		[]byte("shipshipshipshipwardsss!"), // three blocks
		make([]byte, 64),                   // all zero
	}

	for _, plain := range cases {
		ct, err := encrypt(plain, cipherKey)
		require.NoError(t, err)

		pt, err := decrypt(ct, cipherKey)
		require.NoError(t, err)

		assert.Equal(t, plain, pt)
	}
}

// TestCompressionRoundTrip exercises spec.md §8's container round-trip
// property: decompress(compress(x)) == x.
func TestCompressionRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("a naval battle replay packet stream"),
		{},
		make([]byte, 4096),
	}

	for _, plain := range cases {
		compressed, err := compress(plain)
		require.NoError(t, err)

		out, err := decompress(compressed)
		require.NoError(t, err)

		assert.Equal(t, plain, out)
	}
}

func TestDecodeBytesBadMagic(t *testing.T) {
	_, _, err := DecodeBytes([]byte("XXXX0000"))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeBytesShortHeader(t *testing.T) {
	_, _, err := DecodeBytes([]byte("RPL1"))
	assert.ErrorIs(t, err, ErrShortHeader)
}

// TestDecodeBytesFullRoundTrip builds a minimal valid container (one JSON
// metadata block, an encrypted+compressed short packet stream) and confirms
// Decode reassembles it.
func TestDecodeBytesFullRoundTrip(t *testing.T) {
	packets := []byte("packet-stream-bytes")
	compressed, err := compress(packets)
	require.NoError(t, err)
	// encrypt operates on whole 8-byte blocks; a real writer pads the
	// compressed stream to the cipher's block size before encrypting, and
	// zlib's reader ignores the trailing zero padding past its own stream end.
	if rem := len(compressed) % blockSize; rem != 0 {
		compressed = append(compressed, make([]byte, blockSize-rem)...)
	}
	ciphertext, err := encrypt(compressed, cipherKey)
	require.NoError(t, err)

	metaJSON := []byte(`{"clientVersionFromExe":"1.0.0","mapName":"Shatter","gameMode":"Standard"}`)

	data := buildContainer(metaJSON, ciphertext)

	meta, payload, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", meta.Build)
	assert.Equal(t, "Shatter", meta.Map)
	assert.Equal(t, packets, payload)
}

// buildContainer assembles a well-formed container byte stream for tests:
// magic, block count, one metadata block, then the encrypted payload.
func buildContainer(metaBlock, payload []byte) []byte {
	var out []byte
	out = append(out, 'R', 'P', 'L', '1')
	out = append(out, le32(1)...)
	out = append(out, le32(uint32(len(metaBlock)))...)
	out = append(out, metaBlock...)
	out = append(out, payload...)
	return out
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
