package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	metrics "github.com/tigerroll/buildmeta/pkg/batch/core/metrics"
)

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer from the given provider.
func NewOpenTelemetryTracer(provider trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: provider.Tracer(instrumentationName)}
}

// StartJobSpan implements metrics.Tracer.
func (t *OpenTelemetryTracer) StartJobSpan(ctx context.Context, jobName string, executionID string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "job "+jobName, trace.WithAttributes(
		attribute.String("job.name", jobName),
		attribute.String("job.execution_id", executionID),
	))
	return ctx, func() { span.End() }
}

// StartSubBatchSpan implements metrics.Tracer.
func (t *OpenTelemetryTracer) StartSubBatchSpan(ctx context.Context, jobName string, startID, endID int64) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "sub_batch", trace.WithAttributes(
		attribute.String("job.name", jobName),
		attribute.Int64("batch.start_id", startID),
		attribute.Int64("batch.end_id", endID),
	))
	return ctx, func() { span.End() }
}

// RecordError marks the current span as failed.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("module", module)))
	span.SetStatus(codes.Error, module)
}

// RecordEvent adds an event to the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
