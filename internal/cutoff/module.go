package cutoff

import "go.uber.org/fx"

// Module provides the cutoff Policy.
var Module = fx.Options(
	fx.Provide(NewPolicyProvider),
)
