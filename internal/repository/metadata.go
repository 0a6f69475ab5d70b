package repository

import (
	"context"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
)

// GormMetadataRepository implements MetadataRepository, TagRepository and RunStepRepository,
// the three lookups that assemble a build's side data.
type GormMetadataRepository struct {
	conn database.DBConnection
}

// NewGormMetadataRepository creates a new instance of [GormMetadataRepository].
func NewGormMetadataRepository(conn database.DBConnection) *GormMetadataRepository {
	return &GormMetadataRepository{conn: conn}
}

// FindByBuilds implements MetadataRepository.
func (r *GormMetadataRepository) FindByBuilds(ctx context.Context, keys []entity.BuildKey) ([]entity.BuildMetadata, error) {
	return r.findMetadata(ctx, keys, false)
}

// FindWithEnvironment implements MetadataRepository.
func (r *GormMetadataRepository) FindWithEnvironment(ctx context.Context, keys []entity.BuildKey) ([]entity.BuildMetadata, error) {
	return r.findMetadata(ctx, keys, true)
}

func (r *GormMetadataRepository) findMetadata(ctx context.Context, keys []entity.BuildKey, withEnvironment bool) ([]entity.BuildMetadata, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	q := r.conn.GormDB().WithContext(ctx).Where("(build_id, partition_id) IN ?", compositeKeys(keys))
	if withEnvironment {
		q = q.Where("expanded_environment_name IS NOT NULL")
	}
	var rows []entity.BuildMetadata
	if err := q.Find(&rows).Error; err != nil {
		return nil, exception.NewStoreError("metadata_repository", "failed to load build metadata", err)
	}
	return rows, nil
}

const tagListQuery = `SELECT p_ci_build_tags.build_id, p_ci_build_tags.partition_id, ` +
	`json_agg(tags.name ORDER BY tags.name) AS tag_list ` +
	`FROM p_ci_build_tags INNER JOIN tags ON tags.id = p_ci_build_tags.tag_id ` +
	`WHERE (p_ci_build_tags.build_id, p_ci_build_tags.partition_id) IN ? ` +
	`GROUP BY p_ci_build_tags.build_id, p_ci_build_tags.partition_id`

type tagListRow struct {
	BuildID     int64
	PartitionID int64
	TagList     entity.JSONB
}

// FindTagLists implements TagRepository.
func (r *GormMetadataRepository) FindTagLists(ctx context.Context, keys []entity.BuildKey) (map[entity.BuildKey][]string, error) {
	result := map[entity.BuildKey][]string{}
	if len(keys) == 0 {
		return result, nil
	}
	var rows []tagListRow
	if err := r.conn.GormDB().WithContext(ctx).Raw(tagListQuery, compositeKeys(keys)).Scan(&rows).Error; err != nil {
		return nil, exception.NewStoreError("tag_repository", "failed to load tag lists", err)
	}
	for _, row := range rows {
		tags, err := decodeStrings(row.TagList)
		if err != nil {
			return nil, exception.NewBatchError("tag_repository", "malformed tag list", err, false, false)
		}
		result[entity.BuildKey{ID: row.BuildID, PartitionID: row.PartitionID}] = tags
	}
	return result, nil
}

const runStepsQuery = `SELECT p_ci_builds.id AS build_id, p_ci_builds.partition_id, ` +
	`p_ci_builds_execution_configs.run_steps ` +
	`FROM p_ci_builds INNER JOIN p_ci_builds_execution_configs ` +
	`ON p_ci_builds_execution_configs.id = p_ci_builds.execution_config_id ` +
	`AND p_ci_builds_execution_configs.partition_id = p_ci_builds.partition_id ` +
	`WHERE (p_ci_builds.id, p_ci_builds.partition_id) IN ?`

type runStepsRow struct {
	BuildID     int64
	PartitionID int64
	RunSteps    entity.JSONB
}

// FindRunSteps implements RunStepRepository.
func (r *GormMetadataRepository) FindRunSteps(ctx context.Context, keys []entity.BuildKey) (map[entity.BuildKey]entity.JSONB, error) {
	result := map[entity.BuildKey]entity.JSONB{}
	if len(keys) == 0 {
		return result, nil
	}
	var rows []runStepsRow
	if err := r.conn.GormDB().WithContext(ctx).Raw(runStepsQuery, compositeKeys(keys)).Scan(&rows).Error; err != nil {
		return nil, exception.NewStoreError("run_step_repository", "failed to load run steps", err)
	}
	for _, row := range rows {
		result[entity.BuildKey{ID: row.BuildID, PartitionID: row.PartitionID}] = row.RunSteps
	}
	return result, nil
}

var (
	_ MetadataRepository = (*GormMetadataRepository)(nil)
	_ TagRepository      = (*GormMetadataRepository)(nil)
	_ RunStepRepository  = (*GormMetadataRepository)(nil)
)
