package logging

import "go.uber.org/fx"

// Module registers the logging listeners in the job listener groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewLoggingJobListener, fx.ResultTags(`group:"jobListeners"`))),
	fx.Provide(fx.Annotate(NewLoggingSubBatchListener, fx.ResultTags(`group:"subBatchListeners"`))),
)
