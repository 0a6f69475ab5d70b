package step

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/repository/repositorytest"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
	"github.com/tigerroll/buildmeta/pkg/batch/test"
)

func int32Ptr(v int32) *int32 { return &v }

type failingArtifacts struct {
	*repositorytest.Store
}

func (failingArtifacts) BackfillArtifacts(context.Context, tx.TxExecutor, []entity.BuildKey) (int64, error) {
	return 0, errors.New("artifact update failed")
}

func TestColumnBackfiller_FillsOnlyNullColumns(t *testing.T) {
	store := repositorytest.NewStore()
	kept := entity.Build{ID: 1, PartitionID: 100, ExitCode: int32Ptr(1)}
	filled := entity.Build{ID: 2, PartitionID: 100}
	md := entity.BuildMetadata{
		ConfigOptions: entity.JSONB(`{"scoped_user_id": 77, "artifacts": {"expose_as": "report", "paths": ["out/report.html"]}}`),
		ExitCode:      int32Ptr(137),
		Timeout:       int32Ptr(3600),
	}
	store.AddBuild(kept, &md)
	store.AddBuild(filled, &md)
	store.AddArtifact(entity.JobArtifact{ID: 10, JobID: 2, PartitionID: 100, FileType: entity.ArtifactFileTypeMetadata})
	store.AddArtifact(entity.JobArtifact{ID: 11, JobID: 2, PartitionID: 100, FileType: 1})

	mockTx := new(test.MockTx)
	tm := new(test.MockTransactionManager)
	tm.On("Begin", mock.Anything).Return(mockTx, nil)
	tm.On("Commit", mockTx).Return(nil)

	result, err := NewColumnBackfiller(store, tm, true).Backfill(context.Background(), []entity.BuildKey{kept.Key(), filled.Key()})

	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Builds: 2, Artifacts: 1}, result)
	tm.AssertExpectations(t)

	b1, _ := store.Build(kept.Key())
	assert.Equal(t, int32(1), *b1.ExitCode)
	b2, _ := store.Build(filled.Key())
	assert.Equal(t, int32(137), *b2.ExitCode)
	assert.Equal(t, int32(3600), *b2.Timeout)
	assert.Equal(t, int64(77), *b2.ScopedUserID)

	artifacts := store.Artifacts()
	require.NotNil(t, artifacts[0].ExposedAs)
	assert.Equal(t, "report", *artifacts[0].ExposedAs)
	assert.Equal(t, []string{"out/report.html"}, artifacts[0].ExposedPaths)
	assert.Nil(t, artifacts[1].ExposedAs)
}

func TestColumnBackfiller_ArtifactsDisabled(t *testing.T) {
	store := repositorytest.NewStore()
	store.AddBuild(entity.Build{ID: 2, PartitionID: 100}, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"artifacts":{"expose_as":"r"}}`)})
	store.AddArtifact(entity.JobArtifact{ID: 10, JobID: 2, PartitionID: 100, FileType: entity.ArtifactFileTypeMetadata})

	mockTx := new(test.MockTx)
	tm := new(test.MockTransactionManager)
	tm.On("Begin", mock.Anything).Return(mockTx, nil)
	tm.On("Commit", mockTx).Return(nil)

	result, err := NewColumnBackfiller(store, tm, false).Backfill(context.Background(), []entity.BuildKey{{ID: 2, PartitionID: 100}})

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Builds)
	assert.Zero(t, result.Artifacts)
	assert.Nil(t, store.Artifacts()[0].ExposedAs)
}

func TestColumnBackfiller_RollsBackOnError(t *testing.T) {
	store := repositorytest.NewStore()
	store.AddBuild(entity.Build{ID: 2, PartitionID: 100}, &entity.BuildMetadata{})

	mockTx := new(test.MockTx)
	tm := new(test.MockTransactionManager)
	tm.On("Begin", mock.Anything).Return(mockTx, nil)
	tm.On("Rollback", mockTx).Return(nil)

	result, err := NewColumnBackfiller(failingArtifacts{store}, tm, true).Backfill(context.Background(), []entity.BuildKey{{ID: 2, PartitionID: 100}})

	assert.EqualError(t, err, "artifact update failed")
	assert.Equal(t, BackfillResult{}, result)
	tm.AssertExpectations(t)
	tm.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestColumnBackfiller_EmptyInputStartsNoTransaction(t *testing.T) {
	tm := new(test.MockTransactionManager)

	result, err := NewColumnBackfiller(repositorytest.NewStore(), tm, true).Backfill(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, BackfillResult{}, result)
	tm.AssertNotCalled(t, "Begin", mock.Anything)
}
