package wiretype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSetRangeRoundTrip exercises spec.md §8's nested-property applier
// property: applying SetRange{begin,end,values} then
// SetRange{begin,begin+len(values),old} restores the prior array.
func TestSetRangeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		arr    []Value
		begin  uint32
		end    uint32
		values []Value
	}{
		{
			name:   "same length replace",
			arr:    []Value{Int64(1), Int64(2), Int64(3)},
			begin:  1,
			end:    2,
			values: []Value{Float64(9.5)},
		},
		{
			name:   "grow",
			arr:    []Value{Int64(1), Int64(2)},
			begin:  1,
			end:    1,
			values: []Value{String("a"), String("b")},
		},
		{
			name:   "shrink",
			arr:    []Value{Int64(1), Int64(2), Int64(3), Int64(4)},
			begin:  0,
			end:    3,
			values: []Value{Bool(true)},
		},
		{
			name:   "whole array",
			arr:    []Value{Int64(7)},
			begin:  0,
			end:    1,
			values: []Value{},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			original := &Value{Kind: KindArray, Array: append([]Value(nil), c.arr...)}
			old := append([]Value(nil), c.arr[c.begin:c.end]...)

			v := &Value{Kind: KindArray, Array: append([]Value(nil), c.arr...)}
			err := v.Apply(nil, SetRangeAction(c.begin, c.end, c.values))
			require.NoError(t, err)

			err = v.Apply(nil, SetRangeAction(c.begin, c.begin+uint32(len(c.values)), old))
			require.NoError(t, err)

			assert.Equal(t, original.Array, v.Array)
		})
	}
}

// TestPathWalkDeterminism exercises spec.md §8's path-walk determinism
// property: two applications of Walk(value, path) yield the same terminus.
func TestPathWalkDeterminism(t *testing.T) {
	tree := &Value{
		Kind: KindArray,
		Array: []Value{
			{Kind: KindPickled, Dict: map[string]*Value{
				"progress": {Kind: KindArray, Array: []Value{Float64(0), Float64(0.3)}},
			}},
			Int64(42),
		},
	}

	path := []PathLevel{ArrayIndex(0), DictKey("progress"), ArrayIndex(1)}

	first, err := tree.Walk(path)
	require.NoError(t, err)
	second, err := tree.Walk(path)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.Equal(t, float64(0.3), first.Float)
}

func TestWalkInvalidPath(t *testing.T) {
	v := &Value{Kind: KindArray, Array: []Value{Int64(1)}}

	_, err := v.Walk([]PathLevel{ArrayIndex(5)})
	assert.ErrorIs(t, err, ErrPropertyPathInvalid)

	_, err = v.Walk([]PathLevel{DictKey("missing")})
	assert.ErrorIs(t, err, ErrPropertyPathInvalid)
}

func TestApplySetKeyOnPickled(t *testing.T) {
	v := &Value{Kind: KindPickled, Dict: map[string]*Value{}}
	err := v.Apply(nil, SetKeyAction("team", Int64(2)))
	require.NoError(t, err)
	require.NotNil(t, v.Dict["team"])
	assert.Equal(t, int64(2), v.Dict["team"].Int)
}

func TestApplyRemoveRange(t *testing.T) {
	v := &Value{Kind: KindArray, Array: []Value{Int64(1), Int64(2), Int64(3), Int64(4)}}
	err := v.Apply(nil, RemoveRangeAction(1, 3))
	require.NoError(t, err)
	assert.Equal(t, []Value{Int64(1), Int64(4)}, v.Array)
}
