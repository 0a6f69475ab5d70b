package entity

// JobEnvironment links a job to the environment it deploys to.
type JobEnvironment struct {
	ID                      int64  `gorm:"column:id;primaryKey"`
	ProjectID               int64  `gorm:"column:project_id"`
	EnvironmentID           int64  `gorm:"column:environment_id"`
	CIPipelineID            int64  `gorm:"column:ci_pipeline_id"`
	CIJobID                 int64  `gorm:"column:ci_job_id"`
	DeploymentID            *int64 `gorm:"column:deployment_id"`
	ExpandedEnvironmentName string `gorm:"column:expanded_environment_name"`
	Options                 JSONB  `gorm:"column:options"`
}

// TableName specifies the table name for JobEnvironment.
func (JobEnvironment) TableName() string {
	return "job_environments"
}

// ArtifactFileTypeMetadata is the file_type of metadata artifacts.
const ArtifactFileTypeMetadata int16 = 2

// JobArtifact is a row of p_ci_job_artifacts. Only the columns backfilled are mapped;
// they are written by raw UPDATE statements.
type JobArtifact struct {
	ID           int64    `gorm:"column:id;primaryKey"`
	JobID        int64    `gorm:"column:job_id"`
	PartitionID  int64    `gorm:"column:partition_id"`
	ProjectID    int64    `gorm:"column:project_id"`
	FileType     int16    `gorm:"column:file_type"`
	ExposedAs    *string  `gorm:"column:exposed_as"`
	ExposedPaths []string `gorm:"column:exposed_paths;type:text[]"`
}

// TableName specifies the table name for JobArtifact.
func (JobArtifact) TableName() string {
	return "p_ci_job_artifacts"
}

// ApplicationSetting holds the instance-wide settings the migration reads.
type ApplicationSetting struct {
	ID                     int64  `gorm:"column:id;primaryKey"`
	ArchiveBuildsInSeconds *int64 `gorm:"column:archive_builds_in_seconds"`
}

// TableName specifies the table name for ApplicationSetting.
func (ApplicationSetting) TableName() string {
	return "application_settings"
}
