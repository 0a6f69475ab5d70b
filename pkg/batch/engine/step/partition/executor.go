// Package partition runs one worker per id partition concurrently and aggregates their failures.
package partition

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/buildmeta/pkg/batch/component/partitioner"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// Worker processes a single partition. It must return promptly once ctx is done.
type Worker func(ctx context.Context, r partitioner.Range) error

// Executor runs workers for a set of partitions.
type Executor interface {
	Execute(ctx context.Context, partitions []partitioner.Range, worker Worker) error
}

// ConcurrentExecutor starts one goroutine per partition and waits for all of them.
// A failing partition does not stop the others; their errors are joined.
type ConcurrentExecutor struct {
	id string
}

// NewConcurrentExecutor creates a new instance of [ConcurrentExecutor].
func NewConcurrentExecutor() *ConcurrentExecutor {
	return &ConcurrentExecutor{id: "partition_executor"}
}

// Execute runs worker for every partition and returns a BatchError wrapping every partition
// failure, or nil when all partitions completed.
func (e *ConcurrentExecutor) Execute(ctx context.Context, partitions []partitioner.Range, worker Worker) error {
	if len(partitions) == 0 {
		logger.Infof("%s: no partitions to execute.", e.id)
		return nil
	}
	logger.Infof("%s: starting %d partitions.", e.id, len(partitions))

	var wg sync.WaitGroup
	errChan := make(chan error, len(partitions))

	for _, r := range partitions {
		if err := ctx.Err(); err != nil {
			errChan <- fmt.Errorf("%s not started: %w", r.Name(), err)
			continue
		}
		wg.Add(1)
		go func(r partitioner.Range) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					errChan <- fmt.Errorf("%s panicked: %v", r.Name(), p)
				}
			}()

			logger.Debugf("%s: worker '%s' started on [%d, %d].", e.id, r.Name(), r.Start, r.End)
			if err := worker(ctx, r); err != nil {
				logger.Errorf("%s: worker '%s' failed: %v", e.id, r.Name(), err)
				errChan <- fmt.Errorf("%s [%d, %d]: %w", r.Name(), r.Start, r.End, err)
				return
			}
			logger.Infof("%s: worker '%s' completed.", e.id, r.Name())
		}(r)
	}

	wg.Wait()
	close(errChan)

	var combined *multierror.Error
	for err := range errChan {
		combined = multierror.Append(combined, err)
	}
	if err := combined.ErrorOrNil(); err != nil {
		return exception.NewBatchError(e.id, fmt.Sprintf("%d of %d partitions failed", combined.Len(), len(partitions)), err, false, exception.IsTemporary(combined.Errors[0]))
	}
	return nil
}

var _ Executor = (*ConcurrentExecutor)(nil)
