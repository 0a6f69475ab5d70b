package metrics

import (
	"context"

	port "github.com/tigerroll/buildmeta/pkg/batch/core/application/port"
	model "github.com/tigerroll/buildmeta/pkg/batch/core/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/core/metrics"
)

// MetricsSubBatchListener reports every sub-batch attempt and the rows it touched.
type MetricsSubBatchListener struct {
	recorder metrics.MigrationRecorder
}

func NewMetricsSubBatchListener(recorder metrics.MigrationRecorder) port.SubBatchListener {
	return &MetricsSubBatchListener{recorder: recorder}
}

func (l *MetricsSubBatchListener) AfterSubBatch(ctx context.Context, e *model.SubBatchExecution) {
	l.recorder.RecordSubBatch(ctx, e.JobName, e.Duration, e.Err)
	for stage, n := range e.Rows {
		if n > 0 {
			l.recorder.RecordRows(ctx, e.JobName, metrics.Stage(stage), n)
		}
	}
}

var _ port.SubBatchListener = (*MetricsSubBatchListener)(nil)
