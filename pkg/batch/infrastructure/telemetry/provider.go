// Package telemetry builds the OpenTelemetry trace and meter providers and their OTLP exporters.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
)

// Resource describes this process to the collector.
func Resource(cfg config.TracingConfig) *resource.Resource {
	return resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
}

// NewSpanExporter builds the OTLP span exporter named by cfg.Exporter.
func NewSpanExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "grpc":
		opts := []otlptracegrpc.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
}

// NewMetricExporter builds the OTLP metric exporter named by cfg.Exporter.
func NewMetricExporter(ctx context.Context, cfg config.TracingConfig) (sdkmetric.Exporter, error) {
	switch cfg.Exporter {
	case "grpc":
		opts := []otlpmetricgrpc.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case "http":
		opts := []otlpmetrichttp.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported metric exporter: %s", cfg.Exporter)
	}
}

// NewTracerProvider returns an SDK provider batching spans to the OTLP exporter.
// When tracing is disabled the no-op provider is returned and shutdown does nothing.
func NewTracerProvider(ctx context.Context, cfg config.TracingConfig) (trace.TracerProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		return tracenoop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}
	exporter, err := NewSpanExporter(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(Resource(cfg)),
	)
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}

// NewMeterProvider returns an SDK provider exporting periodically over OTLP.
// Metrics over OTLP are only wired when the otel backend is selected.
func NewMeterProvider(ctx context.Context, cfg config.TracingConfig, backend string) (otelmetric.MeterProvider, func(context.Context) error, error) {
	if backend != "otel" {
		return metricnoop.NewMeterProvider(), func(context.Context) error { return nil }, nil
	}
	exporter, err := NewMetricExporter(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(Resource(cfg)),
	)
	otel.SetMeterProvider(mp)
	return mp, mp.Shutdown, nil
}
