package entity

import (
	"fmt"
	"time"
)

// GlobalIdentifier is the unique key of a job definition. It correlates candidates built
// in memory with their persisted rows.
type GlobalIdentifier struct {
	ProjectID   int64
	PartitionID int64
	Checksum    string
}

// String renders the identifier for logs.
func (g GlobalIdentifier) String() string {
	return fmt.Sprintf("%d/%d/%s", g.ProjectID, g.PartitionID, g.Checksum)
}

// JobDefinition is a content-addressed job configuration. Rows are created once per
// (project_id, partition_id, checksum) and never updated.
type JobDefinition struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	PartitionID   int64     `gorm:"column:partition_id"`
	ProjectID     int64     `gorm:"column:project_id"`
	Checksum      string    `gorm:"column:checksum"`
	Config        JSONB     `gorm:"column:config"`
	Interruptible bool      `gorm:"column:interruptible"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for JobDefinition.
func (JobDefinition) TableName() string {
	return "p_ci_job_definitions"
}

// GlobalIdentifier returns the unique key of the definition.
func (d JobDefinition) GlobalIdentifier() GlobalIdentifier {
	return GlobalIdentifier{ProjectID: d.ProjectID, PartitionID: d.PartitionID, Checksum: d.Checksum}
}

// JobDefinitionInstance links one build to its definition.
type JobDefinitionInstance struct {
	JobID           int64 `gorm:"column:job_id;primaryKey;autoIncrement:false"`
	PartitionID     int64 `gorm:"column:partition_id;primaryKey;autoIncrement:false"`
	JobDefinitionID int64 `gorm:"column:job_definition_id"`
	ProjectID       int64 `gorm:"column:project_id"`
}

// TableName specifies the table name for JobDefinitionInstance.
func (JobDefinitionInstance) TableName() string {
	return "p_ci_job_definition_instances"
}
