package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	dbconfig "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/test"
)

func newConn(t *testing.T) (*gormadapter.GormDBAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := test.NewMockGormDB(t)
	conn, err := gormadapter.NewGormDBAdapter(db, dbconfig.DatabaseConfig{Type: "postgres"}, "main")
	require.NoError(t, err)
	return conn, mock
}

var keys = []entity.BuildKey{{ID: 101, PartitionID: 5}, {ID: 102, PartitionID: 5}}

func TestBuildRepository_IDRange(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormBuildRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(id), MAX(id) FROM p_ci_builds")).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(3, 900))
	r, ok, err := repo.IDRange(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.SubBatch{Start: 3, End: 900}, r)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(id), MAX(id) FROM p_ci_builds")).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(nil, nil))
	_, ok, err = repo.IDRange(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildRepository_FindUnlinked(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormBuildRepository(conn)
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM "p_ci_builds" WHERE .*p_ci_builds.id BETWEEN \$1 AND \$2.*p_ci_builds.created_at >= \$3.*NOT EXISTS \(SELECT 1 FROM p_ci_job_definition_instances WHERE p_ci_job_definition_instances.job_id = p_ci_builds.id AND p_ci_job_definition_instances.partition_id = p_ci_builds.partition_id\).*ORDER BY p_ci_builds.id`).
		WithArgs(int64(100), int64(199), cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "partition_id", "project_id", "created_at"}).
			AddRow(101, 5, 42, cutoff.Add(time.Hour)))

	builds, err := repo.FindUnlinked(context.Background(), model.SubBatch{Start: 100, End: 199}, &cutoff)

	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, entity.BuildKey{ID: 101, PartitionID: 5}, builds[0].Key())
	assert.Equal(t, int64(42), builds[0].ProjectID)
}

func TestBuildRepository_FindCreatedSinceWithoutCutoff(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormBuildRepository(conn)

	mock.ExpectQuery(`FROM "p_ci_builds" WHERE .*BETWEEN \$1 AND \$2 ORDER BY p_ci_builds.id`).
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "partition_id"}))

	builds, err := repo.FindCreatedSince(context.Background(), model.SubBatch{Start: 1, End: 10}, nil)
	require.NoError(t, err)
	assert.Empty(t, builds)
}

func TestMetadataRepository_FindByBuilds(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormMetadataRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "p_ci_builds_metadata" WHERE (build_id, partition_id) IN (($1,$2),($3,$4))`)).
		WithArgs(int64(101), int64(5), int64(102), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "build_id", "partition_id", "config_options", "expanded_environment_name"}).
			AddRow(1, 101, 5, []byte(`{"interruptible":true}`), nil))

	rows, err := repo.FindByBuilds(context.Background(), keys)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"interruptible":true}`, string(rows[0].ConfigOptions))
	assert.Nil(t, rows[0].ExpandedEnvironmentName)
}

func TestMetadataRepository_EmptyKeysIssueNoQuery(t *testing.T) {
	conn, _ := newConn(t)
	repo := NewGormMetadataRepository(conn)
	ctx := context.Background()

	rows, err := repo.FindByBuilds(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	tags, err := repo.FindTagLists(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)

	steps, err := repo.FindRunSteps(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestMetadataRepository_FindWithEnvironment(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormMetadataRepository(conn)

	mock.ExpectQuery(`WHERE \(build_id, partition_id\) IN \(\(\$1,\$2\),\(\$3,\$4\)\) AND expanded_environment_name IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "build_id", "partition_id", "expanded_environment_name"}).
			AddRow(1, 102, 5, "production"))

	rows, err := repo.FindWithEnvironment(context.Background(), keys)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "production", *rows[0].ExpandedEnvironmentName)
}

func TestMetadataRepository_FindTagLists(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormMetadataRepository(conn)

	mock.ExpectQuery(`json_agg\(tags.name ORDER BY tags.name\) AS tag_list FROM p_ci_build_tags INNER JOIN tags ON tags.id = p_ci_build_tags.tag_id WHERE \(p_ci_build_tags.build_id, p_ci_build_tags.partition_id\) IN \(\(\$1,\$2\),\(\$3,\$4\)\) GROUP BY`).
		WillReturnRows(sqlmock.NewRows([]string{"build_id", "partition_id", "tag_list"}).
			AddRow(102, 5, []byte(`["docker","linux"]`)))

	tags, err := repo.FindTagLists(context.Background(), keys)

	require.NoError(t, err)
	assert.Equal(t, map[entity.BuildKey][]string{{ID: 102, PartitionID: 5}: {"docker", "linux"}}, tags)
}

func TestMetadataRepository_FindRunSteps(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormMetadataRepository(conn)

	mock.ExpectQuery(`FROM p_ci_builds INNER JOIN p_ci_builds_execution_configs ON p_ci_builds_execution_configs.id = p_ci_builds.execution_config_id`).
		WillReturnRows(sqlmock.NewRows([]string{"build_id", "partition_id", "run_steps"}).
			AddRow(101, 5, []byte(`[{"name":"build"}]`)))

	steps, err := repo.FindRunSteps(context.Background(), keys)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"build"}]`, string(steps[entity.BuildKey{ID: 101, PartitionID: 5}]))
}

func TestDefinitionRepository_FindByIdentifiers(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormDefinitionRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "p_ci_job_definitions" WHERE (project_id, partition_id, checksum) IN (($1,$2,$3))`)).
		WithArgs(int64(42), int64(5), "abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "partition_id", "checksum"}).AddRow(7, 42, 5, "abc"))

	defs, err := repo.FindByIdentifiers(context.Background(), []entity.GlobalIdentifier{{ProjectID: 42, PartitionID: 5, Checksum: "abc"}})

	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, int64(7), defs[0].ID)
}

func TestDefinitionRepository_InsertIgnoresConflicts(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormDefinitionRepository(conn)

	mock.ExpectQuery(`INSERT INTO "p_ci_job_definitions" .* ON CONFLICT \("project_id","partition_id","checksum"\) DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	defs := []entity.JobDefinition{
		{ProjectID: 42, PartitionID: 5, Checksum: "a", Config: entity.JSONB(`{}`)},
		{ProjectID: 42, PartitionID: 5, Checksum: "b", Config: entity.JSONB(`{}`)},
	}
	_, err := repo.InsertIgnoringConflicts(context.Background(), defs)

	require.NoError(t, err)
	assert.Zero(t, defs[0].ID, "input slice must not receive ids")
	assert.Zero(t, defs[1].ID)
}

func TestDefinitionRepository_InsertToleratesUniqueViolation(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormDefinitionRepository(conn)

	mock.ExpectQuery(`INSERT INTO "p_ci_job_definitions"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.InsertIgnoringConflicts(context.Background(), []entity.JobDefinition{{ProjectID: 1, Checksum: "a"}})
	assert.NoError(t, err)
}

func TestDefinitionInstanceRepository_Insert(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormDefinitionInstanceRepository(conn)

	mock.ExpectExec(`INSERT INTO "p_ci_job_definition_instances" \("job_id","partition_id","job_definition_id","project_id"\) VALUES \(\$1,\$2,\$3,\$4\),\(\$5,\$6,\$7,\$8\) ON CONFLICT \("job_id","partition_id"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.InsertIgnoringConflicts(context.Background(), []entity.JobDefinitionInstance{
		{JobID: 101, PartitionID: 5, JobDefinitionID: 7, ProjectID: 42},
		{JobID: 102, PartitionID: 5, JobDefinitionID: 7, ProjectID: 42},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBackfillRepository_Builds(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewSQLBackfillRepository()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE p_ci_builds SET scoped_user_id = COALESCE(p_ci_builds.scoped_user_id, (p_ci_builds_metadata.config_options->>'scoped_user_id')::bigint), timeout = COALESCE(p_ci_builds.timeout, p_ci_builds_metadata.timeout)`) +
		`.*` + regexp.QuoteMeta(`exit_code = COALESCE(p_ci_builds.exit_code, p_ci_builds_metadata.exit_code)`) +
		`.*` + regexp.QuoteMeta(`FROM p_ci_builds_metadata WHERE p_ci_builds_metadata.build_id = p_ci_builds.id AND p_ci_builds_metadata.partition_id = p_ci_builds.partition_id AND (p_ci_builds.id, p_ci_builds.partition_id) IN (($1,$2),($3,$4))`)).
		WithArgs(int64(101), int64(5), int64(102), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.BackfillBuilds(context.Background(), conn, keys)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBackfillRepository_Artifacts(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewSQLBackfillRepository()

	mock.ExpectExec(`UPDATE p_ci_job_artifacts SET exposed_as = COALESCE\(p_ci_job_artifacts.exposed_as, .*ARRAY\(SELECT jsonb_array_elements_text\(.*p_ci_job_artifacts.file_type = \$1 AND \(p_ci_job_artifacts.job_id, p_ci_job_artifacts.partition_id\) IN \(\(\$2,\$3\)\)`).
		WithArgs(entity.ArtifactFileTypeMetadata, int64(101), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.BackfillArtifacts(context.Background(), conn, keys[:1])

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBackfillRepository_EmptyKeys(t *testing.T) {
	conn, _ := newConn(t)
	n, err := NewSQLBackfillRepository().BackfillBuilds(context.Background(), conn, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJobEnvironmentRepository_InsertResolved(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormJobEnvironmentRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta(`WITH attrs (project_id, ci_job_id, ci_pipeline_id, expanded_environment_name, options) AS (VALUES ($1::bigint, $2::bigint, $3::bigint, $4::text, $5::jsonb), ($6::bigint, $7::bigint, $8::bigint, $9::text, $10::jsonb)) INSERT INTO job_environments`) +
		`.*` + regexp.QuoteMeta(`INNER JOIN environments ON environments.project_id = attrs.project_id AND environments.name = attrs.expanded_environment_name LEFT JOIN deployments ON deployments.deployable_id = attrs.ci_job_id AND deployments.deployable_type = 'CommitStatus' ON CONFLICT DO NOTHING`)).
		WithArgs(int64(42), int64(101), int64(900), "production", `{"action":"start"}`,
			int64(42), int64(102), int64(900), "review/x", `{}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.InsertResolved(context.Background(), []model.EnvironmentAttributes{
		{ProjectID: 42, CIJobID: 101, CIPipelineID: 900, ExpandedEnvironmentName: "production", Options: map[string]interface{}{"action": "start"}},
		{ProjectID: 42, CIJobID: 102, CIPipelineID: 900, ExpandedEnvironmentName: "review/x"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestJobEnvironmentRepository_FailureIsStoreError(t *testing.T) {
	conn, mock := newConn(t)
	repo := NewGormJobEnvironmentRepository(conn)
	mock.ExpectExec(`WITH attrs`).WillReturnError(&pgconn.PgError{Code: "40P01"})

	_, err := repo.InsertResolved(context.Background(), []model.EnvironmentAttributes{{ProjectID: 1, CIJobID: 2, ExpandedEnvironmentName: "x"}})

	require.Error(t, err)
	assert.True(t, exception.IsTemporary(err))
}

func TestSettingsRepository_ArchiveBuildsInSeconds(t *testing.T) {
	t.Run("Latest row", func(t *testing.T) {
		conn, mock := newConn(t)
		mock.ExpectQuery(`FROM "application_settings" ORDER BY id DESC LIMIT`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "archive_builds_in_seconds"}).AddRow(3, 86400))

		seconds, err := NewGormSettingsRepository(conn).ArchiveBuildsInSeconds(context.Background())
		require.NoError(t, err)
		require.NotNil(t, seconds)
		assert.Equal(t, int64(86400), *seconds)
	})
	t.Run("No rows", func(t *testing.T) {
		conn, mock := newConn(t)
		mock.ExpectQuery(`FROM "application_settings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "archive_builds_in_seconds"}))

		seconds, err := NewGormSettingsRepository(conn).ArchiveBuildsInSeconds(context.Background())
		require.NoError(t, err)
		assert.Nil(t, seconds)
	})
	t.Run("Missing table", func(t *testing.T) {
		conn, mock := newConn(t)
		mock.ExpectQuery(`FROM "application_settings"`).WillReturnError(&pgconn.PgError{Code: "42P01"})

		seconds, err := NewGormSettingsRepository(conn).ArchiveBuildsInSeconds(context.Background())
		require.NoError(t, err)
		assert.Nil(t, seconds)
	})
	t.Run("Other failure", func(t *testing.T) {
		conn, mock := newConn(t)
		mock.ExpectQuery(`FROM "application_settings"`).WillReturnError(errors.New("syntax error"))

		_, err := NewGormSettingsRepository(conn).ArchiveBuildsInSeconds(context.Background())
		assert.Error(t, err)
	})
}
