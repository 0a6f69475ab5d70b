// Package migration applies embedded schema migrations with golang-migrate.
package migration

import (
	"io/fs"

	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	"github.com/tigerroll/buildmeta/pkg/batch/component/tasklet/migration/drivers"
	"github.com/tigerroll/buildmeta/pkg/batch/component/tasklet/migration/filesystem"
	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
)

// SchemaTaskletParams defines the dependencies for NewSchemaTaskletProvider.
type SchemaTaskletParams struct {
	fx.In
	Cfg           *config.Config
	Resolver      database.DBConnectionResolver
	Providers     []database.DBProvider `group:"db_providers"`
	FrameworkFS   fs.FS                 `name:"frameworkMigrationsFS"`
	ApplicationFS fs.FS                 `name:"applicationMigrationsFS"`
}

// NewSchemaTaskletProvider builds the tasklet that applies framework migrations first,
// then the application migrations.
func NewSchemaTaskletProvider(p SchemaTaskletParams) *SchemaTasklet {
	appTable := p.Cfg.Buildmeta.Schema.MigrationsTable
	if appTable == "" {
		appTable = FixedAppMigrationsTable
	}
	return NewSchemaTasklet(
		p.Cfg.Buildmeta.Infrastructure.DBRef,
		p.Resolver,
		p.Providers,
		NewMigrator,
		Target{FS: p.FrameworkFS, Table: FixedFrameworkMigrationsTable},
		Target{FS: p.ApplicationFS, Table: appTable},
	)
}

// Module provides the SchemaTasklet.
var Module = fx.Options(
	fx.Provide(NewSchemaTaskletProvider),
	filesystem.Module,
	drivers.Module,
)
