package repositorytest

import (
	"context"
	"time"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/repository"
)

// DefinitionRepository is the job definitions table of a Store.
type DefinitionRepository struct {
	s *Store
}

// DefinitionRepository returns the job definitions table.
func (s *Store) DefinitionRepository() *DefinitionRepository {
	return &DefinitionRepository{s: s}
}

// FindByIdentifiers implements repository.DefinitionRepository.
func (r *DefinitionRepository) FindByIdentifiers(_ context.Context, ids []entity.GlobalIdentifier) ([]entity.JobDefinition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.queries++
	out := make([]entity.JobDefinition, 0, len(ids))
	seen := make(map[entity.GlobalIdentifier]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if d, ok := r.s.definitions[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

// InsertIgnoringConflicts implements repository.DefinitionRepository. A definition whose
// global identifier is already stored is skipped.
func (r *DefinitionRepository) InsertIgnoringConflicts(_ context.Context, defs []entity.JobDefinition) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for _, d := range defs {
		id := d.GlobalIdentifier()
		if _, exists := r.s.definitions[id]; exists {
			continue
		}
		r.s.nextDefinitionID++
		stored := d
		stored.ID = r.s.nextDefinitionID
		stored.CreatedAt, stored.UpdatedAt = now, now
		r.s.definitions[id] = &stored
		n++
	}
	return n, nil
}

// DefinitionInstanceRepository is the definition instances table of a Store.
type DefinitionInstanceRepository struct {
	s *Store
}

// DefinitionInstanceRepository returns the definition instances table.
func (s *Store) DefinitionInstanceRepository() *DefinitionInstanceRepository {
	return &DefinitionInstanceRepository{s: s}
}

// InsertIgnoringConflicts implements repository.DefinitionInstanceRepository. A build
// that already has a link keeps it.
func (r *DefinitionInstanceRepository) InsertIgnoringConflicts(_ context.Context, links []entity.JobDefinitionInstance) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, l := range links {
		key := entity.BuildKey{ID: l.JobID, PartitionID: l.PartitionID}
		if _, exists := r.s.instances[key]; exists {
			continue
		}
		r.s.instances[key] = l
		n++
	}
	return n, nil
}

var (
	_ repository.DefinitionRepository         = (*DefinitionRepository)(nil)
	_ repository.DefinitionInstanceRepository = (*DefinitionInstanceRepository)(nil)
)
