// Package metrics implements the migration recorder and tracer on Prometheus and OpenTelemetry.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"

	metrics "github.com/tigerroll/buildmeta/pkg/batch/core/metrics"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of metrics.MigrationRecorder.
// The job is short-lived, so values are pushed to a Pushgateway on Flush instead of scraped.
type PrometheusRecorder struct {
	registry       *prometheus.Registry
	pushgatewayURL string
	jobName        string

	subBatchDurationSeconds *prometheus.HistogramVec
	subBatchTotal           *prometheus.CounterVec
	rowsTotal               *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder with its own registry.
// An empty pushgatewayURL makes Flush a no-op.
func NewPrometheusRecorder(jobName, pushgatewayURL string) *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry:       registry,
		pushgatewayURL: pushgatewayURL,
		jobName:        jobName,
		subBatchDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batched_migration_sub_batch_duration_seconds",
			Help:    "Duration of batched migration sub-batches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status"}),
		subBatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batched_migration_sub_batch_total",
			Help: "Total number of sub-batches by status.",
		}, []string{"job_name", "status"}),
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batched_migration_rows_total",
			Help: "Total rows touched by each stage of the migration.",
		}, []string{"job_name", "stage"}),
	}

	registry.MustRegister(r.subBatchDurationSeconds)
	registry.MustRegister(r.subBatchTotal)
	registry.MustRegister(r.rowsTotal)
	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordSubBatch implements metrics.MigrationRecorder.
func (r *PrometheusRecorder) RecordSubBatch(_ context.Context, jobName string, duration time.Duration, err error) {
	status := metrics.Outcome(err)
	r.subBatchDurationSeconds.WithLabelValues(jobName, status).Observe(duration.Seconds())
	r.subBatchTotal.WithLabelValues(jobName, status).Inc()
}

// RecordRows implements metrics.MigrationRecorder.
func (r *PrometheusRecorder) RecordRows(_ context.Context, jobName string, stage metrics.Stage, n int64) {
	if n <= 0 {
		return
	}
	r.rowsTotal.WithLabelValues(jobName, string(stage)).Add(float64(n))
}

// Flush pushes the registry to the configured Pushgateway.
func (r *PrometheusRecorder) Flush(ctx context.Context) error {
	if r.pushgatewayURL == "" {
		return nil
	}
	if err := push.New(r.pushgatewayURL, r.jobName).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", r.pushgatewayURL, err)
	}
	logger.Debugf("Metrics: pushed registry to %s (job %s).", r.pushgatewayURL, r.jobName)
	return nil
}

var _ metrics.MigrationRecorder = (*PrometheusRecorder)(nil)
