// Package step implements the stages of the per-sub-batch build metadata pipeline.
package step

import (
	"context"
	"strconv"
	"time"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/internal/repository"
)

// RowFilter derives the three working sets of one sub-batch. Results are cached per cutoff
// value, so a store query runs at most once per distinct cutoff. A RowFilter serves a
// single sub-batch and is not safe for concurrent use.
type RowFilter struct {
	builds  repository.BuildRepository
	batch   model.SubBatch
	cutoffs model.Cutoffs

	unlinked     map[string][]entity.Build
	createdSince map[string][]entity.Build
}

// NewRowFilter creates a RowFilter for one sub-batch.
func NewRowFilter(builds repository.BuildRepository, batch model.SubBatch, cutoffs model.Cutoffs) *RowFilter {
	return &RowFilter{
		builds:       builds,
		batch:        batch,
		cutoffs:      cutoffs,
		unlinked:     map[string][]entity.Build{},
		createdSince: map[string][]entity.Build{},
	}
}

// RowsForColumnBackfill returns the keys of unlinked builds created at or after the
// migration cutoff.
func (f *RowFilter) RowsForColumnBackfill(ctx context.Context) ([]entity.BuildKey, error) {
	builds, err := f.unlinkedSince(ctx, f.cutoffs.Migration)
	if err != nil {
		return nil, err
	}
	return entity.Keys(builds), nil
}

// RowsForDefinitionBuild returns the unlinked builds created at or after the processing cutoff.
func (f *RowFilter) RowsForDefinitionBuild(ctx context.Context) ([]entity.Build, error) {
	return f.unlinkedSince(ctx, f.cutoffs.Processing)
}

// RowsForEnvironmentExtraction returns every build created at or after the migration
// cutoff, linked or not.
func (f *RowFilter) RowsForEnvironmentExtraction(ctx context.Context) ([]entity.Build, error) {
	key := cutoffKey(f.cutoffs.Migration)
	if builds, ok := f.createdSince[key]; ok {
		return builds, nil
	}
	builds, err := f.builds.FindCreatedSince(ctx, f.batch, f.cutoffs.Migration)
	if err != nil {
		return nil, err
	}
	f.createdSince[key] = builds
	return builds, nil
}

func (f *RowFilter) unlinkedSince(ctx context.Context, cutoff *time.Time) ([]entity.Build, error) {
	key := cutoffKey(cutoff)
	if builds, ok := f.unlinked[key]; ok {
		return builds, nil
	}
	builds, err := f.builds.FindUnlinked(ctx, f.batch, cutoff)
	if err != nil {
		return nil, err
	}
	f.unlinked[key] = builds
	return builds, nil
}

func cutoffKey(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}
