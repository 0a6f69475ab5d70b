package migration

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

const taskletName = "schema_tasklet"

// Target is one set of migrations tracked in its own version table.
type Target struct {
	FS    fs.FS
	Path  string
	Table string
}

// SchemaTasklet applies the framework and application migrations to one connection.
// golang-migrate closes the pool it was given, so the connection is re-established afterwards.
type SchemaTasklet struct {
	dbRef       string
	resolver    database.DBConnectionResolver
	providers   map[string]database.DBProvider
	newMigrator func(SQLSource) Migrator
	targets     []Target
}

// NewSchemaTasklet creates a SchemaTasklet. Targets run in the given order.
func NewSchemaTasklet(dbRef string, resolver database.DBConnectionResolver, providers []database.DBProvider, newMigrator func(SQLSource) Migrator, targets ...Target) *SchemaTasklet {
	byType := make(map[string]database.DBProvider, len(providers))
	for _, p := range providers {
		byType[p.Type()] = p
	}
	if newMigrator == nil {
		newMigrator = NewMigrator
	}
	return &SchemaTasklet{
		dbRef:       dbRef,
		resolver:    resolver,
		providers:   byType,
		newMigrator: newMigrator,
		targets:     targets,
	}
}

// Execute runs "up" for every target.
func (t *SchemaTasklet) Execute(ctx context.Context) error {
	for _, target := range t.targets {
		conn, err := t.resolver.ResolveDBConnection(ctx, t.dbRef)
		if err != nil {
			return exception.NewBatchError(taskletName, fmt.Sprintf("failed to resolve connection '%s'", t.dbRef), err, false, false)
		}

		path := target.Path
		if path == "" {
			path = conn.Type()
		}
		if err := t.newMigrator(conn).Up(ctx, target.FS, path, target.Table); err != nil {
			return exception.NewBatchError(taskletName, fmt.Sprintf("migration of table '%s' failed", target.Table), err, false, false)
		}

		provider, ok := t.providers[conn.Type()]
		if !ok {
			logger.Warnf("No provider of type '%s' to reconnect '%s' after migration.", conn.Type(), t.dbRef)
			continue
		}
		if _, err := provider.ForceReconnect(t.dbRef); err != nil {
			return exception.NewBatchError(taskletName, "failed to reconnect after migration", err, false, true)
		}
	}
	return nil
}
