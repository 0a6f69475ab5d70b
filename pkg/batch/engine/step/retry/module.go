package retry

import "go.uber.org/fx"

// Module provides the sub-batch RetryPolicy.
var Module = fx.Options(
	fx.Provide(NewRetryPolicyProvider),
)
