package metrics

import "go.uber.org/fx"

// Module registers the metrics listener in the sub-batch listener group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewMetricsSubBatchListener, fx.ResultTags(`group:"subBatchListeners"`))),
)
