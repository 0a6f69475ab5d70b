package partitioner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangePartitioner_CoversRangeWithoutOverlap(t *testing.T) {
	p := NewRangePartitioner()

	ranges, err := p.Partition(1, 10, 3)
	require.NoError(t, err)

	assert.Equal(t, []Range{
		{Index: 0, Start: 1, End: 4},
		{Index: 1, Start: 5, End: 7},
		{Index: 2, Start: 8, End: 10},
	}, ranges)
}

func TestRangePartitioner_Contiguous(t *testing.T) {
	p := NewRangePartitioner()

	for _, grid := range []int{1, 2, 7, 16} {
		ranges, err := p.Partition(100, 1099, grid)
		require.NoError(t, err)
		require.Len(t, ranges, grid)

		var covered int64
		next := int64(100)
		for _, r := range ranges {
			assert.Equal(t, next, r.Start, "grid %d", grid)
			assert.GreaterOrEqual(t, r.End, r.Start)
			covered += r.Size()
			next = r.End + 1
		}
		assert.Equal(t, int64(1000), covered)
		assert.Equal(t, int64(1099), ranges[len(ranges)-1].End)
	}
}

func TestRangePartitioner_GridLargerThanRange(t *testing.T) {
	ranges, err := NewRangePartitioner().Partition(5, 6, 8)
	require.NoError(t, err)

	assert.Equal(t, []Range{{Index: 0, Start: 5, End: 5}, {Index: 1, Start: 6, End: 6}}, ranges)
	assert.Equal(t, "partition1", ranges[1].Name())
}

func TestRangePartitioner_EmptyAndInvalid(t *testing.T) {
	p := NewRangePartitioner()

	ranges, err := p.Partition(10, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, ranges)

	_, err = p.Partition(1, 10, 0)
	assert.Error(t, err)
}
