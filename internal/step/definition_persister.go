package step

import (
	"context"
	"fmt"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/repository"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// DefinitionPersister finds or creates job definitions by their global identifier.
// Concurrent invocations may race to create the same definition: the insert skips
// conflicting rows and the rows are re-read, so both sides observe the stored id.
type DefinitionPersister struct {
	definitions repository.DefinitionRepository
}

// NewDefinitionPersister creates a new instance of [DefinitionPersister].
func NewDefinitionPersister(definitions repository.DefinitionRepository) *DefinitionPersister {
	return &DefinitionPersister{definitions: definitions}
}

// Persist returns the stored definition of every candidate, keyed by global identifier,
// and the number of rows this call inserted.
func (p *DefinitionPersister) Persist(ctx context.Context, candidates []entity.JobDefinition) (map[entity.GlobalIdentifier]entity.JobDefinition, int64, error) {
	persisted := make(map[entity.GlobalIdentifier]entity.JobDefinition, len(candidates))
	if len(candidates) == 0 {
		return persisted, 0, nil
	}

	existing, err := p.definitions.FindByIdentifiers(ctx, identifiersOf(candidates))
	if err != nil {
		return nil, 0, err
	}
	for _, def := range existing {
		persisted[def.GlobalIdentifier()] = def
	}

	missing := make([]entity.JobDefinition, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := persisted[c.GlobalIdentifier()]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return persisted, 0, nil
	}

	created, err := p.definitions.InsertIgnoringConflicts(ctx, missing)
	if err != nil {
		return nil, 0, err
	}
	refetched, err := p.definitions.FindByIdentifiers(ctx, identifiersOf(missing))
	if err != nil {
		return nil, 0, err
	}
	for _, def := range refetched {
		persisted[def.GlobalIdentifier()] = def
	}

	for _, c := range missing {
		if _, ok := persisted[c.GlobalIdentifier()]; !ok {
			return nil, 0, exception.NewBatchError("definition_persister",
				fmt.Sprintf("job definition %s not found after insert", c.GlobalIdentifier()), nil, false, true)
		}
	}
	logger.Debugf("definition_persister: %d candidates, %d existing, %d inserted.", len(candidates), len(existing), created)
	return persisted, created, nil
}

func identifiersOf(defs []entity.JobDefinition) []entity.GlobalIdentifier {
	ids := make([]entity.GlobalIdentifier, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.GlobalIdentifier())
	}
	return ids
}
