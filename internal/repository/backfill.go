package repository

import (
	"context"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
)

// Every assignment keeps a non-null target value.
const backfillBuildsStatement = `UPDATE p_ci_builds SET ` +
	`scoped_user_id = COALESCE(p_ci_builds.scoped_user_id, (p_ci_builds_metadata.config_options->>'scoped_user_id')::bigint), ` +
	`timeout = COALESCE(p_ci_builds.timeout, p_ci_builds_metadata.timeout), ` +
	`timeout_source = COALESCE(p_ci_builds.timeout_source, p_ci_builds_metadata.timeout_source::smallint), ` +
	`exit_code = COALESCE(p_ci_builds.exit_code, p_ci_builds_metadata.exit_code), ` +
	`debug_trace_enabled = COALESCE(p_ci_builds.debug_trace_enabled, p_ci_builds_metadata.debug_trace_enabled) ` +
	`FROM p_ci_builds_metadata ` +
	`WHERE p_ci_builds_metadata.build_id = p_ci_builds.id ` +
	`AND p_ci_builds_metadata.partition_id = p_ci_builds.partition_id ` +
	`AND (p_ci_builds.id, p_ci_builds.partition_id) IN ?`

const backfillArtifactsStatement = `UPDATE p_ci_job_artifacts SET ` +
	`exposed_as = COALESCE(p_ci_job_artifacts.exposed_as, p_ci_builds_metadata.config_options->'artifacts'->>'expose_as'), ` +
	`exposed_paths = COALESCE(p_ci_job_artifacts.exposed_paths, ` +
	`CASE WHEN jsonb_typeof(p_ci_builds_metadata.config_options->'artifacts'->'paths') = 'array' ` +
	`THEN ARRAY(SELECT jsonb_array_elements_text(p_ci_builds_metadata.config_options->'artifacts'->'paths')) END) ` +
	`FROM p_ci_builds_metadata ` +
	`WHERE p_ci_builds_metadata.build_id = p_ci_job_artifacts.job_id ` +
	`AND p_ci_builds_metadata.partition_id = p_ci_job_artifacts.partition_id ` +
	`AND p_ci_job_artifacts.file_type = ? ` +
	`AND (p_ci_job_artifacts.job_id, p_ci_job_artifacts.partition_id) IN ?`

// SQLBackfillRepository implements BackfillRepository with UPDATE ... FROM statements.
type SQLBackfillRepository struct{}

// NewSQLBackfillRepository creates a new instance of [SQLBackfillRepository].
func NewSQLBackfillRepository() *SQLBackfillRepository {
	return &SQLBackfillRepository{}
}

// BackfillBuilds implements BackfillRepository.
func (r *SQLBackfillRepository) BackfillBuilds(ctx context.Context, exec tx.TxExecutor, keys []entity.BuildKey) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := exec.ExecuteRaw(ctx, backfillBuildsStatement, compositeKeys(keys))
	if err != nil {
		return 0, exception.NewStoreError("column_backfiller", "failed to backfill build columns", err)
	}
	return n, nil
}

// BackfillArtifacts implements BackfillRepository.
func (r *SQLBackfillRepository) BackfillArtifacts(ctx context.Context, exec tx.TxExecutor, keys []entity.BuildKey) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := exec.ExecuteRaw(ctx, backfillArtifactsStatement, entity.ArtifactFileTypeMetadata, compositeKeys(keys))
	if err != nil {
		return 0, exception.NewStoreError("column_backfiller", "failed to backfill artifact columns", err)
	}
	return n, nil
}

var _ BackfillRepository = (*SQLBackfillRepository)(nil)
