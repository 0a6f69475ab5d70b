// Package config holds the configuration of the build metadata migration job and
// the loader that assembles it from embedded YAML, a .env file and the environment.
package config

import (
	"fmt"
	"time"
)

// EmbeddedConfig holds the raw bytes of the application YAML, usually embedded by main.go.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelTrace  LogLevel = "TRACE"
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelFatal  LogLevel = "FATAL"
	LogLevelSilent LogLevel = "SILENT"
)

// BatchConfig controls how the primary-key range of the source table is walked.
type BatchConfig struct {
	// JobName identifies the job in logs, metrics and checkpoints.
	JobName string `yaml:"job_name"`
	// StartID and EndID bound the id range. Zero means "resolve from the source table".
	StartID int64 `yaml:"start_id"`
	EndID   int64 `yaml:"end_id"`
	// SubBatchSize is the number of ids handed to one pipeline invocation.
	SubBatchSize int64 `yaml:"sub_batch_size"`
	// GridSize is the number of partitions processed concurrently.
	GridSize int `yaml:"grid_size"`
	// PauseMillis is slept between two sub-batches of the same partition.
	PauseMillis int `yaml:"pause_millis"`
	// Resume makes partitions continue after their last recorded checkpoint.
	Resume bool `yaml:"resume"`
	// RetryMaxAttempts bounds how often a sub-batch failing with a temporary error is run.
	RetryMaxAttempts int `yaml:"retry_max_attempts"`
	// RetryBackoffMillis is the first wait between attempts; it doubles after each one.
	RetryBackoffMillis int `yaml:"retry_backoff_millis"`
}

// Pause returns PauseMillis as a duration.
func (b BatchConfig) Pause() time.Duration {
	return time.Duration(b.PauseMillis) * time.Millisecond
}

// RetryBackoff returns RetryBackoffMillis as a duration.
func (b BatchConfig) RetryBackoff() time.Duration {
	return time.Duration(b.RetryBackoffMillis) * time.Millisecond
}

// MigrationConfig toggles the optional stages of the pipeline and names the cutoff variables.
type MigrationConfig struct {
	MigrationCutoffEnv  string `yaml:"migration_cutoff_env"`
	ProcessingCutoffEnv string `yaml:"processing_cutoff_env"`
	// BackfillArtifacts enables the job-artifact variant of the column backfill.
	BackfillArtifacts bool `yaml:"backfill_artifacts"`
	// ExtractEnvironments enables the job-to-environment link extraction.
	ExtractEnvironments bool `yaml:"extract_environments"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// SQLLevel is handed to GORM's logger (SILENT, ERROR, WARN, INFO).
	SQLLevel string `yaml:"sql_level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// InfrastructureConfig names the logical database connection the job runs against.
type InfrastructureConfig struct {
	DBRef string `yaml:"db_ref"`
}

// MetricsConfig selects the metric backend.
type MetricsConfig struct {
	// Backend is one of "prometheus", "otel" or "noop".
	Backend string `yaml:"backend"`
	// PushgatewayURL, when set, receives the Prometheus registry once the job ends.
	PushgatewayURL string `yaml:"pushgateway_url"`
}

// TracingConfig configures the OpenTelemetry exporters.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Exporter    string `yaml:"exporter"` // "grpc" or "http"
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// SchemaConfig controls the embedded schema migrations.
type SchemaConfig struct {
	AutoMigrate     bool   `yaml:"auto_migrate"`
	MigrationsTable string `yaml:"migrations_table"`
}

// BuildmetaConfig holds everything under the "buildmeta" top-level key.
type BuildmetaConfig struct {
	Batch          BatchConfig          `yaml:"batch"`
	Migration      MigrationConfig      `yaml:"migration"`
	System         SystemConfig         `yaml:"system"`
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Tracing        TracingConfig        `yaml:"tracing"`
	Schema         SchemaConfig         `yaml:"schema"`
	// Databases holds named connection settings, decoded later into dbconfig.DatabaseConfig.
	Databases map[string]interface{} `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Buildmeta BuildmetaConfig `yaml:"buildmeta"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Buildmeta: BuildmetaConfig{
			Batch: BatchConfig{
				JobName:      "move_ci_builds_metadata",
				SubBatchSize: 100,
				GridSize:     1,
				Resume:       true,

				RetryMaxAttempts:   3,
				RetryBackoffMillis: 500,
			},
			Migration: MigrationConfig{
				MigrationCutoffEnv:  "MIGRATION_CUTOFF",
				ProcessingCutoffEnv: "PROCESSING_DATA_CUTOFF",
				BackfillArtifacts:   true,
				ExtractEnvironments: true,
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO", SQLLevel: string(LogLevelSilent)},
			},
			Infrastructure: InfrastructureConfig{DBRef: "main"},
			Metrics:        MetricsConfig{Backend: "prometheus"},
			Tracing: TracingConfig{
				Exporter:    "grpc",
				ServiceName: "buildmeta",
			},
			Schema: SchemaConfig{MigrationsTable: "buildmeta_schema_migrations"},
			Databases: map[string]interface{}{},
		},
	}
}

// Validate rejects settings the job cannot run with.
func (c *Config) Validate() error {
	b := c.Buildmeta.Batch
	if b.JobName == "" {
		return fmt.Errorf("batch.job_name must not be empty")
	}
	if b.SubBatchSize <= 0 {
		return fmt.Errorf("batch.sub_batch_size must be positive, got %d", b.SubBatchSize)
	}
	if b.GridSize <= 0 {
		return fmt.Errorf("batch.grid_size must be positive, got %d", b.GridSize)
	}
	if b.RetryMaxAttempts < 1 {
		return fmt.Errorf("batch.retry_max_attempts must be at least 1, got %d", b.RetryMaxAttempts)
	}
	if b.StartID < 0 || b.EndID < 0 || (b.EndID != 0 && b.EndID < b.StartID) {
		return fmt.Errorf("batch id range [%d, %d] is invalid", b.StartID, b.EndID)
	}
	switch c.Buildmeta.Metrics.Backend {
	case "prometheus", "otel", "noop":
	default:
		return fmt.Errorf("metrics.backend %q is not one of prometheus, otel, noop", c.Buildmeta.Metrics.Backend)
	}
	if c.Buildmeta.Tracing.Enabled {
		switch c.Buildmeta.Tracing.Exporter {
		case "grpc", "http":
		default:
			return fmt.Errorf("tracing.exporter %q is not one of grpc, http", c.Buildmeta.Tracing.Exporter)
		}
	}
	return nil
}
