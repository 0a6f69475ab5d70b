package telemetry

import (
	"context"

	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
)

// ProvideTracerProvider registers the provider's shutdown with the Fx lifecycle.
func ProvideTracerProvider(lc fx.Lifecycle, cfg *config.Config) (trace.TracerProvider, error) {
	tp, shutdown, err := NewTracerProvider(context.Background(), cfg.Buildmeta.Tracing)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return tp, nil
}

// ProvideMeterProvider registers the provider's shutdown with the Fx lifecycle.
func ProvideMeterProvider(lc fx.Lifecycle, cfg *config.Config) (otelmetric.MeterProvider, error) {
	mp, shutdown, err := NewMeterProvider(context.Background(), cfg.Buildmeta.Tracing, cfg.Buildmeta.Metrics.Backend)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return mp, nil
}

// Module provides the OpenTelemetry trace and meter providers.
var Module = fx.Options(
	fx.Provide(ProvideTracerProvider),
	fx.Provide(ProvideMeterProvider),
)
