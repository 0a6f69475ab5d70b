package partition

import (
	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/pkg/batch/component/partitioner"
)

// Module provides the range partitioner and the concurrent partition executor.
var Module = fx.Options(
	fx.Provide(partitioner.NewRangePartitioner),
	fx.Provide(fx.Annotate(
		NewConcurrentExecutor,
		fx.As(new(Executor)),
	)),
)
