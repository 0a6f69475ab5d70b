package repository

import (
	"context"
	"encoding/json"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
)

var definitionUniqueKey = []string{"project_id", "partition_id", "checksum"}

// GormDefinitionRepository implements DefinitionRepository.
type GormDefinitionRepository struct {
	conn database.DBConnection
}

// NewGormDefinitionRepository creates a new instance of [GormDefinitionRepository].
func NewGormDefinitionRepository(conn database.DBConnection) *GormDefinitionRepository {
	return &GormDefinitionRepository{conn: conn}
}

// FindByIdentifiers implements DefinitionRepository.
func (r *GormDefinitionRepository) FindByIdentifiers(ctx context.Context, ids []entity.GlobalIdentifier) ([]entity.JobDefinition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	triples := make([][]interface{}, 0, len(ids))
	for _, id := range ids {
		triples = append(triples, []interface{}{id.ProjectID, id.PartitionID, id.Checksum})
	}
	var defs []entity.JobDefinition
	err := r.conn.GormDB().WithContext(ctx).
		Where("(project_id, partition_id, checksum) IN ?", triples).
		Find(&defs).Error
	if err != nil {
		return nil, exception.NewStoreError("definition_repository", "failed to load job definitions", err)
	}
	return defs, nil
}

// InsertIgnoringConflicts implements DefinitionRepository. The insert runs on a copy:
// with rows skipped by the conflict clause, returned ids cannot be matched to inputs.
func (r *GormDefinitionRepository) InsertIgnoringConflicts(ctx context.Context, defs []entity.JobDefinition) (int64, error) {
	if len(defs) == 0 {
		return 0, nil
	}
	rows := make([]entity.JobDefinition, len(defs))
	copy(rows, defs)
	n, err := r.conn.ExecuteUpsert(ctx, &rows, entity.JobDefinition{}.TableName(), definitionUniqueKey, nil)
	if err != nil && !exception.IsUniqueViolation(err) {
		return 0, exception.NewStoreError("definition_repository", "failed to insert job definitions", err)
	}
	return n, nil
}

// GormDefinitionInstanceRepository implements DefinitionInstanceRepository.
type GormDefinitionInstanceRepository struct {
	conn database.DBConnection
}

// NewGormDefinitionInstanceRepository creates a new instance of [GormDefinitionInstanceRepository].
func NewGormDefinitionInstanceRepository(conn database.DBConnection) *GormDefinitionInstanceRepository {
	return &GormDefinitionInstanceRepository{conn: conn}
}

// InsertIgnoringConflicts implements DefinitionInstanceRepository.
func (r *GormDefinitionInstanceRepository) InsertIgnoringConflicts(ctx context.Context, links []entity.JobDefinitionInstance) (int64, error) {
	if len(links) == 0 {
		return 0, nil
	}
	n, err := r.conn.ExecuteUpsert(ctx, &links, entity.JobDefinitionInstance{}.TableName(), []string{"job_id", "partition_id"}, nil)
	if err != nil {
		return 0, exception.NewStoreError("definition_instance_repository", "failed to insert job definition instances", err)
	}
	return n, nil
}

func decodeStrings(raw entity.JSONB) ([]string, error) {
	if raw.IsNull() {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var (
	_ DefinitionRepository         = (*GormDefinitionRepository)(nil)
	_ DefinitionInstanceRepository = (*GormDefinitionInstanceRepository)(nil)
)
