package step

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/repository/repositorytest"
)

func TestRecordAssembler_Assemble(t *testing.T) {
	store := repositorytest.NewStore()
	b1 := entity.Build{ID: 1, PartitionID: 100, ProjectID: 9}
	b2 := entity.Build{ID: 2, PartitionID: 100, ProjectID: 9}
	store.AddBuild(b1, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"image":"ruby"}`)})
	store.AddBuild(b2, nil)
	store.SetTags(b1.Key(), "docker", "linux")
	store.SetRunSteps(b2.Key(), entity.JSONB(`[{"name":"s"}]`))
	a := NewRecordAssembler(store, store, store)

	views, err := a.Assemble(context.Background(), []entity.Build{b2, b1})

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(2), views[0].Build.ID)
	assert.Nil(t, views[0].Metadata)
	assert.Empty(t, views[0].TagList)
	assert.JSONEq(t, `[{"name":"s"}]`, string(views[0].RunSteps))

	assert.Equal(t, int64(1), views[1].Build.ID)
	require.NotNil(t, views[1].Metadata)
	assert.JSONEq(t, `{"image":"ruby"}`, string(views[1].Metadata.ConfigOptions))
	assert.Equal(t, []string{"docker", "linux"}, views[1].TagList)
	assert.Nil(t, views[1].RunSteps)

	assert.Equal(t, 3, store.Queries())
}

func TestRecordAssembler_EmptyInputIssuesNoLookup(t *testing.T) {
	store := repositorytest.NewStore()

	views, err := NewRecordAssembler(store, store, store).Assemble(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Zero(t, store.Queries())
}
