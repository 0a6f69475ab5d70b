package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	metrics "github.com/tigerroll/buildmeta/pkg/batch/core/metrics"
)

const instrumentationName = "github.com/tigerroll/buildmeta"

// flusher is implemented by the SDK meter provider.
type flusher interface {
	ForceFlush(ctx context.Context) error
}

// OpenTelemetryRecorder records migration metrics through an OpenTelemetry meter.
type OpenTelemetryRecorder struct {
	provider         otelmetric.MeterProvider
	subBatchDuration otelmetric.Float64Histogram
	rows             otelmetric.Int64Counter
}

// NewOpenTelemetryRecorder creates the instruments on the given provider.
func NewOpenTelemetryRecorder(provider otelmetric.MeterProvider) (*OpenTelemetryRecorder, error) {
	meter := provider.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"batched_migration.sub_batch.duration",
		otelmetric.WithDescription("Duration of batched migration sub-batches."),
		otelmetric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sub-batch histogram: %w", err)
	}
	rows, err := meter.Int64Counter(
		"batched_migration.rows",
		otelmetric.WithDescription("Rows touched by each stage of the migration."),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rows counter: %w", err)
	}
	return &OpenTelemetryRecorder{provider: provider, subBatchDuration: duration, rows: rows}, nil
}

// RecordSubBatch implements metrics.MigrationRecorder.
func (r *OpenTelemetryRecorder) RecordSubBatch(ctx context.Context, jobName string, duration time.Duration, err error) {
	r.subBatchDuration.Record(ctx, duration.Seconds(), otelmetric.WithAttributes(
		attribute.String("job_name", jobName),
		attribute.String("status", metrics.Outcome(err)),
	))
}

// RecordRows implements metrics.MigrationRecorder.
func (r *OpenTelemetryRecorder) RecordRows(ctx context.Context, jobName string, stage metrics.Stage, n int64) {
	if n <= 0 {
		return
	}
	r.rows.Add(ctx, n, otelmetric.WithAttributes(
		attribute.String("job_name", jobName),
		attribute.String("stage", string(stage)),
	))
}

// Flush forces the SDK provider to export, if it supports it.
func (r *OpenTelemetryRecorder) Flush(ctx context.Context) error {
	if f, ok := r.provider.(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

var _ metrics.MigrationRecorder = (*OpenTelemetryRecorder)(nil)
