package gorm

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
)

// ConnectionParams holds the dependencies of NewMainConnection.
type ConnectionParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Resolver  database.DBConnectionResolver
	Cfg       *config.Config
	Providers []database.DBProvider `group:"db_providers"`
}

// NewMainConnection resolves the connection named by infrastructure.db_ref and closes
// every provider's pool when the application stops.
func NewMainConnection(p ConnectionParams) (database.DBConnection, error) {
	conn, err := p.Resolver.ResolveDBConnection(context.Background(), p.Cfg.Buildmeta.Infrastructure.DBRef)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			var lastErr error
			for _, provider := range p.Providers {
				if err := provider.CloseAll(); err != nil {
					lastErr = err
				}
			}
			return lastErr
		},
	})
	return conn, nil
}

// NewTransactionManager binds a transaction manager to infrastructure.db_ref.
func NewTransactionManager(resolver database.DBConnectionResolver, cfg *config.Config) tx.TransactionManager {
	return NewGormTransactionManager(resolver, cfg.Buildmeta.Infrastructure.DBRef)
}

// Module exports the gorm adapter (excluding the concrete DB providers).
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewGormDBConnectionResolver,
		fx.As(new(database.DBConnectionResolver)),
	)),
	fx.Provide(NewMainConnection),
	fx.Provide(NewTransactionManager),
)
