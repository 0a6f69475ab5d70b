package metrics

import (
	"context"
	"time"
)

// NoOpMigrationRecorder is an implementation of MigrationRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMigrationRecorder struct{}

// NewNoOpMigrationRecorder creates a new instance of NoOpMigrationRecorder.
func NewNoOpMigrationRecorder() MigrationRecorder {
	return &NoOpMigrationRecorder{}
}

func (r *NoOpMigrationRecorder) RecordSubBatch(context.Context, string, time.Duration, error) {}

func (r *NoOpMigrationRecorder) RecordRows(context.Context, string, Stage, int64) {}

func (r *NoOpMigrationRecorder) Flush(context.Context) error { return nil }

var _ MigrationRecorder = (*NoOpMigrationRecorder)(nil)

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartJobSpan(ctx context.Context, _ string, _ string) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartSubBatchSpan(ctx context.Context, _ string, _, _ int64) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(context.Context, string, error) {}

func (t *NoOpTracer) RecordEvent(context.Context, string, map[string]interface{}) {}

var _ Tracer = (*NoOpTracer)(nil)
