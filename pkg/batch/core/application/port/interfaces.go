// Package port defines the callbacks the migration job offers to observers.
package port

import (
	"context"

	model "github.com/tigerroll/buildmeta/pkg/batch/core/domain/model"
)

// JobExecutionListener is an interface for handling job execution events.
type JobExecutionListener interface {
	// BeforeJob is called once the id range is resolved, before any partition starts.
	BeforeJob(ctx context.Context, jobExecution *model.JobExecution)
	// AfterJob is called after the run ends, regardless of success or failure.
	AfterJob(ctx context.Context, jobExecution *model.JobExecution)
}

// SubBatchListener is an interface for handling sub-batch events.
// Listeners are called concurrently from every partition and must be safe for that.
type SubBatchListener interface {
	// AfterSubBatch is called after every attempt, failed ones included.
	AfterSubBatch(ctx context.Context, execution *model.SubBatchExecution)
}
