// Package repository reads and writes the tables touched by the build metadata migration.
// Every method issues one set-based statement scoped to the ids it is given; none loops
// over rows against the store.
package repository

import (
	"context"
	"time"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
)

// BuildRepository reads the source builds table.
type BuildRepository interface {
	// IDRange returns the smallest and largest build id. ok is false when the table is empty.
	IDRange(ctx context.Context) (r model.SubBatch, ok bool, err error)
	// FindUnlinked returns the builds of the sub-batch created at or after createdSince
	// (all when nil) that have no definition instance yet.
	FindUnlinked(ctx context.Context, batch model.SubBatch, createdSince *time.Time) ([]entity.Build, error)
	// FindCreatedSince returns the builds of the sub-batch created at or after createdSince.
	FindCreatedSince(ctx context.Context, batch model.SubBatch, createdSince *time.Time) ([]entity.Build, error)
}

// MetadataRepository reads p_ci_builds_metadata.
type MetadataRepository interface {
	FindByBuilds(ctx context.Context, keys []entity.BuildKey) ([]entity.BuildMetadata, error)
	// FindWithEnvironment returns only rows with an expanded environment name.
	FindWithEnvironment(ctx context.Context, keys []entity.BuildKey) ([]entity.BuildMetadata, error)
}

// TagRepository reads the tag names of builds.
type TagRepository interface {
	// FindTagLists returns the sorted tag names of each build that has tags.
	FindTagLists(ctx context.Context, keys []entity.BuildKey) (map[entity.BuildKey][]string, error)
}

// RunStepRepository reads the run steps of builds through their execution config.
type RunStepRepository interface {
	FindRunSteps(ctx context.Context, keys []entity.BuildKey) (map[entity.BuildKey]entity.JSONB, error)
}

// DefinitionRepository reads and creates job definitions.
type DefinitionRepository interface {
	FindByIdentifiers(ctx context.Context, ids []entity.GlobalIdentifier) ([]entity.JobDefinition, error)
	// InsertIgnoringConflicts inserts definitions, skipping those whose unique key exists.
	// Ids are not reported back; callers re-read the rows.
	InsertIgnoringConflicts(ctx context.Context, defs []entity.JobDefinition) (int64, error)
}

// DefinitionInstanceRepository creates the build to definition links.
type DefinitionInstanceRepository interface {
	InsertIgnoringConflicts(ctx context.Context, links []entity.JobDefinitionInstance) (int64, error)
}

// BackfillRepository copies legacy values from the metadata table into null columns.
type BackfillRepository interface {
	BackfillBuilds(ctx context.Context, exec tx.TxExecutor, keys []entity.BuildKey) (int64, error)
	BackfillArtifacts(ctx context.Context, exec tx.TxExecutor, keys []entity.BuildKey) (int64, error)
}

// JobEnvironmentRepository creates job to environment links.
type JobEnvironmentRepository interface {
	// InsertResolved inserts one link per attribute whose environment exists. Attributes
	// without a matching environment and existing links are skipped.
	InsertResolved(ctx context.Context, attrs []model.EnvironmentAttributes) (int64, error)
}

// SettingsRepository reads application_settings.
type SettingsRepository interface {
	ArchiveBuildsInSeconds(ctx context.Context) (*int64, error)
}

// compositeKeys renders build keys as rows for a "(a, b) IN ?" condition.
func compositeKeys(keys []entity.BuildKey) [][]interface{} {
	rows := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []interface{}{k.ID, k.PartitionID})
	}
	return rows
}
