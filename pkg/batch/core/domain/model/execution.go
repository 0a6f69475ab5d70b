package model

import "time"

// JobExecution describes one run of a batch job over an id range.
// EndedAt, SubBatches and Err are only meaningful once the run has ended.
type JobExecution struct {
	JobName     string
	ExecutionID string
	StartID     int64
	EndID       int64
	Partitions  int
	SubBatches  int
	StartedAt   time.Time
	EndedAt     time.Time
	Err         error
}

// Duration returns the wall time of the run, or zero while it is running.
func (e *JobExecution) Duration() time.Duration {
	if e.EndedAt.IsZero() {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}

// Failed reports whether the run ended with an error.
func (e *JobExecution) Failed() bool {
	return e.Err != nil
}

// SubBatchExecution describes one attempt at a sub-batch.
type SubBatchExecution struct {
	JobName     string
	ExecutionID string
	Partition   string
	StartID     int64
	EndID       int64
	// Attempt starts at 1.
	Attempt  int
	Duration time.Duration
	// Rows maps a stage name to the number of rows it touched. Stages that touched nothing are absent.
	Rows map[string]int64
	Err  error
}
