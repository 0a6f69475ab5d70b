package metrics

import (
	"context"
)

// Tracer is an abstract interface for distributed tracing of the migration job.
type Tracer interface {
	// StartJobSpan starts the root span of a job run.
	// Returns a context carrying the span and a function that ends it.
	StartJobSpan(ctx context.Context, jobName string, executionID string) (context.Context, func())

	// StartSubBatchSpan starts a child span covering the ids [startID, endID].
	StartSubBatchSpan(ctx context.Context, jobName string, startID, endID int64) (context.Context, func())

	// RecordError records an error in the current span.
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
