package metrics

import (
	"go.uber.org/fx"
)

// NoOpModule provides the no-op recorder and tracer. The infrastructure metrics module
// replaces it when a real backend is configured.
var NoOpModule = fx.Options(
	fx.Provide(NewNoOpMigrationRecorder),
	fx.Provide(NewNoOpTracer),
)
