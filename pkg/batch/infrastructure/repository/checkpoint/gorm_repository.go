// Package checkpoint stores partition checkpoints in PostgreSQL through GORM.
package checkpoint

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	model "github.com/tigerroll/buildmeta/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/buildmeta/pkg/batch/core/domain/repository"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

const moduleName = "checkpoint_repository"

var (
	conflictColumns = []string{"job_name", "partition", "range_start", "range_end"}
	updateColumns   = []string{"last_id", "execution_id", "updated_at"}
)

// GormCheckpointRepository implements repository.CheckpointRepository on a DBConnection.
type GormCheckpointRepository struct {
	conn database.DBConnection
}

// NewGormCheckpointRepository creates a new instance of [GormCheckpointRepository].
func NewGormCheckpointRepository(conn database.DBConnection) *GormCheckpointRepository {
	return &GormCheckpointRepository{conn: conn}
}

// SaveCheckpoint upserts the checkpoint on its partition key.
func (r *GormCheckpointRepository) SaveCheckpoint(ctx context.Context, cp *model.Checkpoint) error {
	if _, err := r.conn.ExecuteUpsert(ctx, cp, model.CheckpointTableName, conflictColumns, updateColumns); err != nil {
		return exception.NewStoreError(moduleName, "failed to save checkpoint", err)
	}
	logger.Debugf("%s: saved checkpoint %s/%d at id %d.", moduleName, cp.JobName, cp.Partition, cp.LastID)
	return nil
}

// FindCheckpoint loads the checkpoint of one partition.
func (r *GormCheckpointRepository) FindCheckpoint(ctx context.Context, jobName string, partition int, rangeStart, rangeEnd int64) (*model.Checkpoint, error) {
	var cp model.Checkpoint
	err := r.conn.GormDB().WithContext(ctx).
		Where("job_name = ? AND partition = ? AND range_start = ? AND range_end = ?", jobName, partition, rangeStart, rangeEnd).
		Take(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, exception.NewStoreError(moduleName, "failed to load checkpoint", err)
	}
	return &cp, nil
}

var _ repository.CheckpointRepository = (*GormCheckpointRepository)(nil)
