package partitioner

import (
	"fmt"

	logger "github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// Range is a closed interval of primary-key values handled by one partition.
type Range struct {
	Index int
	Start int64
	End   int64
}

// Name returns the partition name used in logs and checkpoints.
func (r Range) Name() string {
	return fmt.Sprintf("partition%d", r.Index)
}

// Size returns the number of ids covered by the range.
func (r Range) Size() int64 {
	return r.End - r.Start + 1
}

// RangePartitioner splits an id range into contiguous partitions of near-equal size.
type RangePartitioner struct{}

// NewRangePartitioner creates a new instance of [RangePartitioner].
func NewRangePartitioner() *RangePartitioner {
	return &RangePartitioner{}
}

// Partition splits [min, max] into at most gridSize contiguous, non-overlapping ranges that
// together cover the interval. The first (max-min+1) % gridSize ranges get one extra id.
// An empty interval (max < min) yields no ranges; a grid larger than the interval yields
// one range per id.
func (p *RangePartitioner) Partition(min, max int64, gridSize int) ([]Range, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %d", gridSize)
	}
	if max < min {
		logger.Debugf("RangePartitioner: empty range [%d, %d], nothing to partition.", min, max)
		return nil, nil
	}

	total := max - min + 1
	grid := int64(gridSize)
	if grid > total {
		grid = total
	}
	base := total / grid
	extra := total % grid

	ranges := make([]Range, 0, grid)
	start := min
	for i := int64(0); i < grid; i++ {
		size := base
		if i < extra {
			size++
		}
		ranges = append(ranges, Range{Index: int(i), Start: start, End: start + size - 1})
		start += size
	}
	logger.Debugf("RangePartitioner: split [%d, %d] into %d partitions.", min, max, len(ranges))
	return ranges, nil
}
