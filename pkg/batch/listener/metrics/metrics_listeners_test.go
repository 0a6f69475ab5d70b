package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	model "github.com/tigerroll/buildmeta/pkg/batch/core/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/core/metrics"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordSubBatch(ctx context.Context, jobName string, d time.Duration, err error) {
	m.Called(ctx, jobName, d, err)
}

func (m *mockRecorder) RecordRows(ctx context.Context, jobName string, stage metrics.Stage, n int64) {
	m.Called(ctx, jobName, stage, n)
}

func (m *mockRecorder) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestMetricsSubBatchListener_AfterSubBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Succeeded", func(t *testing.T) {
		rec := new(mockRecorder)
		rec.On("RecordSubBatch", ctx, "move", 2*time.Second, nil).Return()
		rec.On("RecordRows", ctx, "move", metrics.StageDefinitionLinks, int64(4)).Return()
		rec.On("RecordRows", ctx, "move", metrics.StageColumnBackfill, int64(2)).Return()

		NewMetricsSubBatchListener(rec).AfterSubBatch(ctx, &model.SubBatchExecution{
			JobName:  "move",
			Duration: 2 * time.Second,
			Rows: map[string]int64{
				string(metrics.StageDefinitionLinks):  4,
				string(metrics.StageColumnBackfill):   2,
				string(metrics.StageEnvironmentLinks): 0,
			},
		})
		rec.AssertExpectations(t)
		rec.AssertNotCalled(t, "RecordRows", ctx, "move", metrics.StageEnvironmentLinks, mock.Anything)
	})

	t.Run("Failed", func(t *testing.T) {
		boom := errors.New("boom")
		rec := new(mockRecorder)
		rec.On("RecordSubBatch", ctx, "move", time.Second, boom).Return()

		NewMetricsSubBatchListener(rec).AfterSubBatch(ctx, &model.SubBatchExecution{JobName: "move", Duration: time.Second, Err: boom})
		rec.AssertExpectations(t)
		rec.AssertNumberOfCalls(t, "RecordRows", 0)
	})
}
