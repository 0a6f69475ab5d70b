package step

import (
	"context"
	"fmt"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/internal/repository"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
)

// LinkPersister links builds to their persisted definitions.
type LinkPersister struct {
	instances repository.DefinitionInstanceRepository
}

// NewLinkPersister creates a new instance of [LinkPersister].
func NewLinkPersister(instances repository.DefinitionInstanceRepository) *LinkPersister {
	return &LinkPersister{instances: instances}
}

// Assign sets view.Definition from the persisted set, using the candidate's identifier.
func (p *LinkPersister) Assign(views []*model.JobPresenter, persisted map[entity.GlobalIdentifier]entity.JobDefinition) error {
	for _, view := range views {
		if view.Candidate == nil {
			return exception.NewBatchError("link_persister", fmt.Sprintf("build %d has no candidate definition", view.Build.ID), nil, false, false)
		}
		def, ok := persisted[view.Candidate.GlobalIdentifier()]
		if !ok {
			return exception.NewBatchError("link_persister", fmt.Sprintf("no persisted definition %s for build %d", view.Candidate.GlobalIdentifier(), view.Build.ID), nil, false, true)
		}
		view.Definition = &def
	}
	return nil
}

// Link inserts one definition instance per presenter in a single statement. Builds that
// are already linked are skipped by the store.
func (p *LinkPersister) Link(ctx context.Context, views []*model.JobPresenter) (int64, error) {
	if len(views) == 0 {
		return 0, nil
	}
	links := make([]entity.JobDefinitionInstance, 0, len(views))
	for _, view := range views {
		if view.Definition == nil {
			return 0, exception.NewBatchError("link_persister", fmt.Sprintf("build %d has no assigned definition", view.Build.ID), nil, false, false)
		}
		links = append(links, entity.JobDefinitionInstance{
			JobID:           view.Build.ID,
			PartitionID:     view.Build.PartitionID,
			JobDefinitionID: view.Definition.ID,
			ProjectID:       view.Build.ProjectID,
		})
	}
	return p.instances.InsertIgnoringConflicts(ctx, links)
}
