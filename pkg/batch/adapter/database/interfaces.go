// Package database defines the connection abstractions the migration job runs against.
package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/config"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
)

// DBConnection represents an open, named database connection.
type DBConnection interface {
	tx.TxExecutor

	// Name returns the connection name (e.g., "main").
	Name() string
	// Type returns the database type (e.g., "postgres").
	Type() string
	// Close closes the underlying pool.
	Close() error
	// GormDB returns the session repositories build their queries on.
	GormDB() *gorm.DB
	// GetSQLDB returns the underlying *sql.DB connection.
	GetSQLDB() (*sql.DB, error)
	// RefreshConnection pings the pool.
	RefreshConnection(ctx context.Context) error
	// Config returns the database configuration associated with this connection.
	Config() dbconfig.DatabaseConfig
	// IsTableNotExistError checks if the given error indicates that a table does not exist.
	IsTableNotExistError(err error) bool
}

// DBProvider opens and caches connections of one database type.
type DBProvider interface {
	// GetConnection retrieves a database connection with the specified name.
	GetConnection(name string) (DBConnection, error)
	// ForceReconnect closes and re-establishes the named connection.
	ForceReconnect(name string) (DBConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the database type handled by this provider.
	Type() string
}

// DBConnectionResolver returns a healthy connection by name, reconnecting when the pool is broken.
type DBConnectionResolver interface {
	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}

// DBProviderGroup is an Fx tag used to group all DBProvider implementations.
const DBProviderGroup = "db_providers"
