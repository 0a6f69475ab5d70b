package job

import (
	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/internal/cutoff"
)

// NewCutoffResolver exposes the cutoff policy to the job.
func NewCutoffResolver(p *cutoff.Policy) CutoffResolver {
	return p
}

// Module provides the migration job.
var Module = fx.Options(
	fx.Provide(NewCutoffResolver),
	fx.Provide(NewMoveCiBuildsMetadata),
)
