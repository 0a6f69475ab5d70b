package listener

import (
	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/pkg/batch/listener/logging"
	"github.com/tigerroll/buildmeta/pkg/batch/listener/metrics"
)

// Module aggregates all listener modules of the migration job.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
)
