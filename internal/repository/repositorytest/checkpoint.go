package repositorytest

import (
	"context"
	"sync"

	model "github.com/tigerroll/buildmeta/pkg/batch/core/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/core/domain/repository"
)

type checkpointKey struct {
	jobName    string
	partition  int
	rangeStart int64
	rangeEnd   int64
}

// CheckpointRepository keeps partition checkpoints in memory.
type CheckpointRepository struct {
	mu          sync.RWMutex
	checkpoints map[checkpointKey]model.Checkpoint
}

// NewCheckpointRepository creates an empty CheckpointRepository.
func NewCheckpointRepository() *CheckpointRepository {
	return &CheckpointRepository{checkpoints: map[checkpointKey]model.Checkpoint{}}
}

// SaveCheckpoint overwrites any checkpoint of the same partition.
func (r *CheckpointRepository) SaveCheckpoint(_ context.Context, cp *model.Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkpoints[checkpointKey{cp.JobName, cp.Partition, cp.RangeStart, cp.RangeEnd}] = *cp
	return nil
}

// FindCheckpoint returns a copy of the stored checkpoint, or repository.ErrCheckpointNotFound.
func (r *CheckpointRepository) FindCheckpoint(_ context.Context, jobName string, partition int, rangeStart, rangeEnd int64) (*model.Checkpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp, ok := r.checkpoints[checkpointKey{jobName, partition, rangeStart, rangeEnd}]
	if !ok {
		return nil, repository.ErrCheckpointNotFound
	}
	return &cp, nil
}

var _ repository.CheckpointRepository = (*CheckpointRepository)(nil)
