package checkpoint

import (
	"go.uber.org/fx"

	repository "github.com/tigerroll/buildmeta/pkg/batch/core/domain/repository"
)

// Module provides the GORM-backed checkpoint repository.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewGormCheckpointRepository,
		fx.As(new(repository.CheckpointRepository)),
	)),
)
