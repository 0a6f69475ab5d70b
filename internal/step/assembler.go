package step

import (
	"context"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/internal/repository"
)

// RecordAssembler attaches metadata, tags and run steps to builds with one bulk lookup each.
type RecordAssembler struct {
	metadata repository.MetadataRepository
	tags     repository.TagRepository
	runSteps repository.RunStepRepository
}

// NewRecordAssembler creates a new instance of [RecordAssembler].
func NewRecordAssembler(metadata repository.MetadataRepository, tags repository.TagRepository, runSteps repository.RunStepRepository) *RecordAssembler {
	return &RecordAssembler{metadata: metadata, tags: tags, runSteps: runSteps}
}

// Assemble returns one presenter per build, in input order. No lookup runs for an empty input.
func (a *RecordAssembler) Assemble(ctx context.Context, builds []entity.Build) ([]*model.JobPresenter, error) {
	if len(builds) == 0 {
		return nil, nil
	}
	keys := entity.Keys(builds)

	metadataRows, err := a.metadata.FindByBuilds(ctx, keys)
	if err != nil {
		return nil, err
	}
	tagLists, err := a.tags.FindTagLists(ctx, keys)
	if err != nil {
		return nil, err
	}
	runSteps, err := a.runSteps.FindRunSteps(ctx, keys)
	if err != nil {
		return nil, err
	}

	metadataByKey := make(map[entity.BuildKey]*entity.BuildMetadata, len(metadataRows))
	for i := range metadataRows {
		metadataByKey[metadataRows[i].Key()] = &metadataRows[i]
	}

	views := make([]*model.JobPresenter, 0, len(builds))
	for _, b := range builds {
		view := model.NewJobPresenter(b)
		key := b.Key()
		view.Metadata = metadataByKey[key]
		view.TagList = tagLists[key]
		view.RunSteps = runSteps[key]
		views = append(views, view)
	}
	return views, nil
}
