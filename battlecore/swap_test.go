package battlecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSwapNonNegativeIdentity exercises spec.md §8's replay-owner-swap
// companion property: swapping two non-negative tuples twice is identity.
func TestSwapNonNegativeIdentity(t *testing.T) {
	cases := []struct {
		a, b int
	}{
		{0, 0},
		{1, 2},
		{42, 7},
		{0, 99},
	}

	for _, c := range cases {
		a1, b1, err := SwapNonNegative(c.a, c.b)
		require.NoError(t, err)
		assert.Equal(t, c.b, a1)
		assert.Equal(t, c.a, b1)

		a2, b2, err := SwapNonNegative(a1, b1)
		require.NoError(t, err)
		assert.Equal(t, c.a, a2)
		assert.Equal(t, c.b, b2)
	}
}

func TestSwapNonNegativeRejectsNegative(t *testing.T) {
	_, _, err := SwapNonNegative(-1, 3)
	assert.Error(t, err)

	_, _, err = SwapNonNegative(3, -1)
	assert.Error(t, err)
}
