package step

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/internal/repository/repositorytest"
)

func TestLinkPersister_SharedDefinition(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	builder := NewDefinitionBuilder()
	views := make([]*model.JobPresenter, 0, 3)
	for id := int64(1); id <= 3; id++ {
		views = append(views, presenter(id, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"image":"same"}`)}))
	}

	candidates, err := builder.BuildAll(views)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	persisted, created, err := NewDefinitionPersister(store.DefinitionRepository()).Persist(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	links := NewLinkPersister(store.DefinitionInstanceRepository())
	require.NoError(t, links.Assign(views, persisted))
	n, err := links.Link(ctx, views)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	instances := store.Instances()
	require.Len(t, instances, 3)
	for _, i := range instances {
		assert.Equal(t, store.Definitions()[0].ID, i.JobDefinitionID)
		assert.Equal(t, int64(42), i.ProjectID)
		assert.Equal(t, int64(5), i.PartitionID)
	}

	n, err = links.Link(ctx, views)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, store.Instances(), 3)
}

func TestLinkPersister_Errors(t *testing.T) {
	store := repositorytest.NewStore()
	links := NewLinkPersister(store.DefinitionInstanceRepository())

	t.Run("NoCandidate", func(t *testing.T) {
		err := links.Assign([]*model.JobPresenter{presenter(1, nil)}, nil)
		assert.ErrorContains(t, err, "has no candidate definition")
	})

	t.Run("CandidateNotPersisted", func(t *testing.T) {
		view := presenter(1, nil)
		view.Candidate = &entity.JobDefinition{ProjectID: 42, PartitionID: 5, Checksum: "x"}
		err := links.Assign([]*model.JobPresenter{view}, map[entity.GlobalIdentifier]entity.JobDefinition{})
		assert.ErrorContains(t, err, "no persisted definition")
	})

	t.Run("NoAssignedDefinition", func(t *testing.T) {
		_, err := links.Link(context.Background(), []*model.JobPresenter{presenter(1, nil)})
		assert.ErrorContains(t, err, "has no assigned definition")
		assert.Empty(t, store.Instances())
	})

	t.Run("EmptyInput", func(t *testing.T) {
		n, err := links.Link(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
