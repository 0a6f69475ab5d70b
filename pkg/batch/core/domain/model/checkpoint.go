// Package model holds the state the batch driver persists about its own progress.
package model

import "time"

// CheckpointTableName is the table written by the checkpoint repository.
const CheckpointTableName = "batched_migration_checkpoints"

// Checkpoint records the last id a partition has fully processed.
// A partition is identified by the job, its index and its id range, so changing the grid
// size or the range starts a fresh set of checkpoints.
type Checkpoint struct {
	JobName     string    `gorm:"column:job_name;primaryKey"`
	Partition   int       `gorm:"column:partition;primaryKey;autoIncrement:false"`
	RangeStart  int64     `gorm:"column:range_start;primaryKey;autoIncrement:false"`
	RangeEnd    int64     `gorm:"column:range_end;primaryKey;autoIncrement:false"`
	LastID      int64     `gorm:"column:last_id"`
	ExecutionID string    `gorm:"column:execution_id;type:uuid"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for Checkpoint.
func (Checkpoint) TableName() string {
	return CheckpointTableName
}

// ResumeFrom returns the first id still to process in the checkpoint's range.
// A nil checkpoint resumes from rangeStart.
func (c *Checkpoint) ResumeFrom(rangeStart int64) int64 {
	if c == nil || c.LastID < rangeStart {
		return rangeStart
	}
	return c.LastID + 1
}

// Done reports whether the checkpoint covers its whole range.
func (c *Checkpoint) Done() bool {
	return c != nil && c.LastID >= c.RangeEnd
}
