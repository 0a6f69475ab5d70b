package repository

import (
	"context"
	"strings"

	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
)

const (
	environmentAttrsRow = "(?::bigint, ?::bigint, ?::bigint, ?::text, ?::jsonb)"

	insertJobEnvironmentsPrefix = `WITH attrs (project_id, ci_job_id, ci_pipeline_id, expanded_environment_name, options) AS (VALUES `

	insertJobEnvironmentsSuffix = `) INSERT INTO job_environments ` +
		`(project_id, environment_id, ci_pipeline_id, ci_job_id, deployment_id, expanded_environment_name, options) ` +
		`SELECT attrs.project_id, environments.id, attrs.ci_pipeline_id, attrs.ci_job_id, deployments.id, ` +
		`attrs.expanded_environment_name, attrs.options ` +
		`FROM attrs ` +
		`INNER JOIN environments ON environments.project_id = attrs.project_id ` +
		`AND environments.name = attrs.expanded_environment_name ` +
		`LEFT JOIN deployments ON deployments.deployable_id = attrs.ci_job_id ` +
		`AND deployments.deployable_type = 'CommitStatus' ` +
		`ON CONFLICT DO NOTHING`
)

// GormJobEnvironmentRepository implements JobEnvironmentRepository.
type GormJobEnvironmentRepository struct {
	conn database.DBConnection
}

// NewGormJobEnvironmentRepository creates a new instance of [GormJobEnvironmentRepository].
func NewGormJobEnvironmentRepository(conn database.DBConnection) *GormJobEnvironmentRepository {
	return &GormJobEnvironmentRepository{conn: conn}
}

// InsertResolved implements JobEnvironmentRepository with a single INSERT ... SELECT over a
// VALUES list joined to environments and deployments.
func (r *GormJobEnvironmentRepository) InsertResolved(ctx context.Context, attrs []model.EnvironmentAttributes) (int64, error) {
	if len(attrs) == 0 {
		return 0, nil
	}
	statement, args, err := buildInsertJobEnvironments(attrs)
	if err != nil {
		return 0, exception.NewBatchError("environment_extractor", "failed to encode environment options", err, false, false)
	}
	n, err := r.conn.ExecuteRaw(ctx, statement, args...)
	if err != nil {
		return 0, exception.NewStoreError("environment_extractor", "failed to insert job environments", err)
	}
	return n, nil
}

func buildInsertJobEnvironments(attrs []model.EnvironmentAttributes) (string, []interface{}, error) {
	var b strings.Builder
	args := make([]interface{}, 0, len(attrs)*5)

	b.WriteString(insertJobEnvironmentsPrefix)
	for i, a := range attrs {
		options, err := a.OptionsJSON()
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(environmentAttrsRow)
		args = append(args, a.ProjectID, a.CIJobID, a.CIPipelineID, a.ExpandedEnvironmentName, options)
	}
	b.WriteString(insertJobEnvironmentsSuffix)
	return b.String(), args, nil
}

var _ JobEnvironmentRepository = (*GormJobEnvironmentRepository)(nil)
