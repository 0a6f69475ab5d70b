package repository

import (
	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/internal/cutoff"
)

// Module provides the PostgreSQL repositories of the migration.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewGormBuildRepository, fx.As(new(BuildRepository)))),
	fx.Provide(fx.Annotate(
		NewGormMetadataRepository,
		fx.As(new(MetadataRepository)),
		fx.As(new(TagRepository)),
		fx.As(new(RunStepRepository)),
	)),
	fx.Provide(fx.Annotate(NewGormDefinitionRepository, fx.As(new(DefinitionRepository)))),
	fx.Provide(fx.Annotate(NewGormDefinitionInstanceRepository, fx.As(new(DefinitionInstanceRepository)))),
	fx.Provide(fx.Annotate(NewSQLBackfillRepository, fx.As(new(BackfillRepository)))),
	fx.Provide(fx.Annotate(NewGormJobEnvironmentRepository, fx.As(new(JobEnvironmentRepository)))),
	fx.Provide(fx.Annotate(
		NewGormSettingsRepository,
		fx.As(new(SettingsRepository)),
		fx.As(new(cutoff.ArchiveWindowReader)),
	)),
)
