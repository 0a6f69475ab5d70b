package partition

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/buildmeta/pkg/batch/component/partitioner"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
)

func ranges(t *testing.T, grid int) []partitioner.Range {
	t.Helper()
	rs, err := partitioner.NewRangePartitioner().Partition(1, 100, grid)
	require.NoError(t, err)
	return rs
}

func TestConcurrentExecutor_RunsEveryPartition(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]partitioner.Range{}

	err := NewConcurrentExecutor().Execute(context.Background(), ranges(t, 4), func(_ context.Context, r partitioner.Range) error {
		mu.Lock()
		defer mu.Unlock()
		seen[r.Name()] = r
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, seen, 4)
	assert.Equal(t, int64(26), seen["partition1"].Start)
}

func TestConcurrentExecutor_AggregatesFailures(t *testing.T) {
	var calls int32
	boom := errors.New("boom")

	err := NewConcurrentExecutor().Execute(context.Background(), ranges(t, 3), func(_ context.Context, r partitioner.Range) error {
		atomic.AddInt32(&calls, 1)
		if r.Index != 1 {
			return boom
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, exception.IsBatchError(err))
	assert.ErrorIs(t, err, boom)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
}

func TestConcurrentExecutor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := NewConcurrentExecutor().Execute(ctx, ranges(t, 2), func(context.Context, partitioner.Range) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestConcurrentExecutor_RecoversPanic(t *testing.T) {
	err := NewConcurrentExecutor().Execute(context.Background(), ranges(t, 1), func(context.Context, partitioner.Range) error {
		panic("bad row")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "partition0 panicked: bad row")
}

func TestConcurrentExecutor_NoPartitions(t *testing.T) {
	assert.NoError(t, NewConcurrentExecutor().Execute(context.Background(), nil, nil))
}
