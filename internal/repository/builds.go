package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
)

var buildColumns = []string{
	"p_ci_builds.id",
	"p_ci_builds.partition_id",
	"p_ci_builds.project_id",
	"p_ci_builds.commit_id",
	"p_ci_builds.execution_config_id",
	"p_ci_builds.created_at",
	"p_ci_builds.options",
	"p_ci_builds.yaml_variables",
}

const notLinkedCondition = `NOT EXISTS (SELECT 1 FROM p_ci_job_definition_instances ` +
	`WHERE p_ci_job_definition_instances.job_id = p_ci_builds.id ` +
	`AND p_ci_job_definition_instances.partition_id = p_ci_builds.partition_id)`

// GormBuildRepository implements BuildRepository.
type GormBuildRepository struct {
	conn database.DBConnection
}

// NewGormBuildRepository creates a new instance of [GormBuildRepository].
func NewGormBuildRepository(conn database.DBConnection) *GormBuildRepository {
	return &GormBuildRepository{conn: conn}
}

// IDRange implements BuildRepository.
func (r *GormBuildRepository) IDRange(ctx context.Context) (model.SubBatch, bool, error) {
	var minID, maxID sql.NullInt64
	row := r.conn.GormDB().WithContext(ctx).Raw("SELECT MIN(id), MAX(id) FROM p_ci_builds").Row()
	if err := row.Scan(&minID, &maxID); err != nil {
		return model.SubBatch{}, false, exception.NewStoreError("build_repository", "failed to read id range", err)
	}
	if !minID.Valid || !maxID.Valid {
		return model.SubBatch{}, false, nil
	}
	return model.SubBatch{Start: minID.Int64, End: maxID.Int64}, true, nil
}

// FindUnlinked implements BuildRepository.
func (r *GormBuildRepository) FindUnlinked(ctx context.Context, batch model.SubBatch, createdSince *time.Time) ([]entity.Build, error) {
	return find(r.scope(ctx, batch, createdSince).Where(notLinkedCondition))
}

// FindCreatedSince implements BuildRepository.
func (r *GormBuildRepository) FindCreatedSince(ctx context.Context, batch model.SubBatch, createdSince *time.Time) ([]entity.Build, error) {
	return find(r.scope(ctx, batch, createdSince))
}

func (r *GormBuildRepository) scope(ctx context.Context, batch model.SubBatch, createdSince *time.Time) *gorm.DB {
	q := r.conn.GormDB().WithContext(ctx).
		Model(&entity.Build{}).
		Select(buildColumns).
		Where("p_ci_builds.id BETWEEN ? AND ?", batch.Start, batch.End)
	if createdSince != nil {
		q = q.Where("p_ci_builds.created_at >= ?", *createdSince)
	}
	return q
}

func find(q *gorm.DB) ([]entity.Build, error) {
	var builds []entity.Build
	if err := q.Order("p_ci_builds.id").Find(&builds).Error; err != nil {
		return nil, exception.NewStoreError("build_repository", "failed to load builds", err)
	}
	return builds, nil
}

var _ BuildRepository = (*GormBuildRepository)(nil)
