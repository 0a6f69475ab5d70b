package metrics

import (
	"context"

	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
	metrics "github.com/tigerroll/buildmeta/pkg/batch/core/metrics"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// NewMigrationRecorder selects the recorder named by metrics.backend.
func NewMigrationRecorder(lc fx.Lifecycle, cfg *config.Config, meterProvider otelmetric.MeterProvider) (metrics.MigrationRecorder, error) {
	var recorder metrics.MigrationRecorder
	switch cfg.Buildmeta.Metrics.Backend {
	case "prometheus":
		recorder = NewPrometheusRecorder(cfg.Buildmeta.Batch.JobName, cfg.Buildmeta.Metrics.PushgatewayURL)
	case "otel":
		r, err := NewOpenTelemetryRecorder(meterProvider)
		if err != nil {
			return nil, err
		}
		recorder = r
	default:
		return metrics.NewNoOpMigrationRecorder(), nil
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := recorder.Flush(ctx); err != nil {
				logger.Warnf("Metrics: flush at shutdown failed: %v", err)
			}
			return nil
		},
	})
	logger.Debugf("Metrics: using '%s' recorder.", cfg.Buildmeta.Metrics.Backend)
	return recorder, nil
}

// NewTracer returns an OpenTelemetry tracer when tracing is enabled, otherwise a no-op.
func NewTracer(cfg *config.Config, provider trace.TracerProvider) metrics.Tracer {
	if !cfg.Buildmeta.Tracing.Enabled {
		return metrics.NewNoOpTracer()
	}
	return NewOpenTelemetryTracer(provider)
}

// Module provides the configured MigrationRecorder and Tracer.
var Module = fx.Options(
	fx.Provide(NewMigrationRecorder),
	fx.Provide(NewTracer),
)
