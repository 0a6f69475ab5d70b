package step

import (
	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/internal/repository"
	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
)

// NewColumnBackfillerProvider reads the artifact toggle from the migration config.
func NewColumnBackfillerProvider(repo repository.BackfillRepository, txManager tx.TransactionManager, cfg *config.MigrationConfig) *ColumnBackfiller {
	return NewColumnBackfiller(repo, txManager, cfg.BackfillArtifacts)
}

// Module provides the pipeline stages. RowFilter is created per sub-batch and is not provided.
var Module = fx.Options(
	fx.Provide(NewRecordAssembler),
	fx.Provide(NewDefinitionBuilder),
	fx.Provide(NewDefinitionPersister),
	fx.Provide(NewLinkPersister),
	fx.Provide(NewColumnBackfillerProvider),
	fx.Provide(NewEnvironmentExtractor),
)
