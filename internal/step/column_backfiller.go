package step

import (
	"context"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/repository"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
)

// BackfillResult counts the rows updated by a backfill.
type BackfillResult struct {
	Builds    int64
	Artifacts int64
}

// ColumnBackfiller fills null legacy columns of builds, and optionally of their metadata
// artifacts, from the metadata table. Both updates commit together.
type ColumnBackfiller struct {
	repo      repository.BackfillRepository
	txManager tx.TransactionManager
	artifacts bool
}

// NewColumnBackfiller creates a new instance of [ColumnBackfiller].
func NewColumnBackfiller(repo repository.BackfillRepository, txManager tx.TransactionManager, artifacts bool) *ColumnBackfiller {
	return &ColumnBackfiller{repo: repo, txManager: txManager, artifacts: artifacts}
}

// Backfill updates the given builds. It does nothing for an empty key set.
func (b *ColumnBackfiller) Backfill(ctx context.Context, keys []entity.BuildKey) (BackfillResult, error) {
	var result BackfillResult
	if len(keys) == 0 {
		return result, nil
	}
	err := tx.RunInTx(ctx, b.txManager, func(t tx.Tx) error {
		n, err := b.repo.BackfillBuilds(ctx, t, keys)
		if err != nil {
			return err
		}
		result.Builds = n
		if !b.artifacts {
			return nil
		}
		n, err = b.repo.BackfillArtifacts(ctx, t, keys)
		if err != nil {
			return err
		}
		result.Artifacts = n
		return nil
	})
	if err != nil {
		return BackfillResult{}, err
	}
	return result, nil
}
