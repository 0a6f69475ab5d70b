package metrics

import (
	"context"
	"time"
)

// Stage names the unit a row count is reported for.
type Stage string

const (
	StageColumnBackfill     Stage = "column_backfill"
	StageArtifactBackfill   Stage = "artifact_backfill"
	StageDefinitionsBuilt   Stage = "definitions_built"
	StageDefinitionsCreated Stage = "definitions_created"
	StageDefinitionLinks    Stage = "definition_links"
	StageEnvironmentLinks   Stage = "environment_links"
)

// MigrationRecorder is an abstract interface for recording metrics of a batched migration.
// Implementations exist for Prometheus and OpenTelemetry metrics.
type MigrationRecorder interface {
	// RecordSubBatch records the outcome and duration of one sub-batch. err is nil on success.
	RecordSubBatch(ctx context.Context, jobName string, duration time.Duration, err error)

	// RecordRows adds n to the number of rows a stage touched.
	RecordRows(ctx context.Context, jobName string, stage Stage, n int64)

	// Flush exports buffered values, e.g. by pushing to a Pushgateway. Called once at job end.
	Flush(ctx context.Context) error
}

// Outcome maps a sub-batch error to the status label used by recorders.
func Outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "succeeded"
}
