// Package repository defines the persistence contracts of the batch driver.
package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/buildmeta/pkg/batch/core/domain/model"
)

// ErrCheckpointNotFound is returned when a partition has no recorded checkpoint.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// CheckpointRepository persists the progress of each partition of a job.
type CheckpointRepository interface {
	// SaveCheckpoint inserts the checkpoint or updates the existing one of the same partition.
	SaveCheckpoint(ctx context.Context, cp *model.Checkpoint) error

	// FindCheckpoint returns the checkpoint of one partition, or ErrCheckpointNotFound.
	FindCheckpoint(ctx context.Context, jobName string, partition int, rangeStart, rangeEnd int64) (*model.Checkpoint, error)
}
