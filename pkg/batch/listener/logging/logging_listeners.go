package logging

import (
	"context"

	port "github.com/tigerroll/buildmeta/pkg/batch/core/application/port"
	model "github.com/tigerroll/buildmeta/pkg/batch/core/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// --- Job Execution Listener ---

type LoggingJobListener struct{}

func NewLoggingJobListener() port.JobExecutionListener {
	return &LoggingJobListener{}
}

func (l *LoggingJobListener) BeforeJob(ctx context.Context, e *model.JobExecution) {
	logger.Infow("JobExecutionListener: BeforeJob",
		"job_name", e.JobName,
		"execution_id", e.ExecutionID,
		"start_id", e.StartID,
		"end_id", e.EndID,
		"partitions", e.Partitions,
	)
}

func (l *LoggingJobListener) AfterJob(ctx context.Context, e *model.JobExecution) {
	if e.Failed() {
		logger.Errorf("JobExecutionListener: AfterJob - JobName: %s, ID: %s, SubBatches: %d, Duration: %s, Error: %v",
			e.JobName, e.ExecutionID, e.SubBatches, e.Duration(), e.Err)
		return
	}
	logger.Infow("JobExecutionListener: AfterJob",
		"job_name", e.JobName,
		"execution_id", e.ExecutionID,
		"sub_batches", e.SubBatches,
		"duration", e.Duration().String(),
	)
}

var _ port.JobExecutionListener = (*LoggingJobListener)(nil)

// --- Sub-batch Listener ---

type LoggingSubBatchListener struct{}

func NewLoggingSubBatchListener() port.SubBatchListener {
	return &LoggingSubBatchListener{}
}

func (l *LoggingSubBatchListener) AfterSubBatch(ctx context.Context, e *model.SubBatchExecution) {
	if e.Err != nil {
		logger.Warnw("SubBatchListener: attempt failed",
			"partition", e.Partition,
			"start_id", e.StartID,
			"end_id", e.EndID,
			"attempt", e.Attempt,
			"error", e.Err.Error(),
		)
		return
	}
	logger.Debugw("SubBatchListener: AfterSubBatch",
		"partition", e.Partition,
		"start_id", e.StartID,
		"end_id", e.EndID,
		"duration", e.Duration.String(),
		"rows", e.Rows,
	)
}

var _ port.SubBatchListener = (*LoggingSubBatchListener)(nil)
