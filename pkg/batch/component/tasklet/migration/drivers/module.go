// Package drivers registers the golang-migrate database drivers the migrator can use.
package drivers

import (
	"go.uber.org/fx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

// Module carries the driver registration into the Fx graph.
var Module = fx.Options()
