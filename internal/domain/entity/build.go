// Package entity maps the tables read and written by the build metadata migration.
package entity

import "time"

// BuildKey identifies a row of the partitioned builds table.
type BuildKey struct {
	ID          int64
	PartitionID int64
}

// Build is a legacy job row of p_ci_builds. Only the columns the migration reads or
// backfills are mapped.
type Build struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	PartitionID       int64     `gorm:"column:partition_id;primaryKey;autoIncrement:false"`
	ProjectID         int64     `gorm:"column:project_id"`
	CommitID          *int64    `gorm:"column:commit_id"`
	ExecutionConfigID *int64    `gorm:"column:execution_config_id"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	// Options and YamlVariables hold the legacy serialized (YAML) text.
	Options           *string `gorm:"column:options"`
	YamlVariables     *string `gorm:"column:yaml_variables"`
	ScopedUserID      *int64  `gorm:"column:scoped_user_id"`
	Timeout           *int32  `gorm:"column:timeout"`
	TimeoutSource     *int16  `gorm:"column:timeout_source"`
	ExitCode          *int32  `gorm:"column:exit_code"`
	DebugTraceEnabled *bool   `gorm:"column:debug_trace_enabled"`
}

// TableName specifies the table name for Build.
func (Build) TableName() string {
	return "p_ci_builds"
}

// Key returns the composite identifier of the row.
func (b Build) Key() BuildKey {
	return BuildKey{ID: b.ID, PartitionID: b.PartitionID}
}

// Keys returns the composite identifiers of builds, in order.
func Keys(builds []Build) []BuildKey {
	keys := make([]BuildKey, 0, len(builds))
	for _, b := range builds {
		keys = append(keys, b.Key())
	}
	return keys
}

// BuildMetadata is the side-table row of p_ci_builds_metadata, 1:1 with a Build.
type BuildMetadata struct {
	ID                      int64   `gorm:"column:id;primaryKey"`
	BuildID                 int64   `gorm:"column:build_id"`
	PartitionID             int64   `gorm:"column:partition_id"`
	ProjectID               int64   `gorm:"column:project_id"`
	ConfigOptions           JSONB   `gorm:"column:config_options"`
	ConfigVariables         JSONB   `gorm:"column:config_variables"`
	IDTokens                JSONB   `gorm:"column:id_tokens"`
	Secrets                 JSONB   `gorm:"column:secrets"`
	Interruptible           *bool   `gorm:"column:interruptible"`
	ExpandedEnvironmentName *string `gorm:"column:expanded_environment_name"`
	Timeout                 *int32  `gorm:"column:timeout"`
	TimeoutSource           *int16  `gorm:"column:timeout_source"`
	ExitCode                *int32  `gorm:"column:exit_code"`
	DebugTraceEnabled       *bool   `gorm:"column:debug_trace_enabled"`
}

// TableName specifies the table name for BuildMetadata.
func (BuildMetadata) TableName() string {
	return "p_ci_builds_metadata"
}

// Key returns the identifier of the build the metadata belongs to.
func (m BuildMetadata) Key() BuildKey {
	return BuildKey{ID: m.BuildID, PartitionID: m.PartitionID}
}

// Tag is a runner tag name.
type Tag struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

// TableName specifies the table name for Tag.
func (Tag) TableName() string {
	return "tags"
}

// BuildTag links a build to a tag.
type BuildTag struct {
	ID          int64 `gorm:"column:id;primaryKey"`
	BuildID     int64 `gorm:"column:build_id"`
	TagID       int64 `gorm:"column:tag_id"`
	PartitionID int64 `gorm:"column:partition_id"`
	ProjectID   int64 `gorm:"column:project_id"`
}

// TableName specifies the table name for BuildTag.
func (BuildTag) TableName() string {
	return "p_ci_build_tags"
}

// ExecutionConfig holds the run steps shared by the builds of a pipeline.
type ExecutionConfig struct {
	ID          int64 `gorm:"column:id;primaryKey"`
	PartitionID int64 `gorm:"column:partition_id"`
	ProjectID   int64 `gorm:"column:project_id"`
	PipelineID  int64 `gorm:"column:pipeline_id"`
	RunSteps    JSONB `gorm:"column:run_steps"`
}

// TableName specifies the table name for ExecutionConfig.
func (ExecutionConfig) TableName() string {
	return "p_ci_builds_execution_configs"
}
