package migration

import (
	"context"
	"database/sql"
	"io/fs"
)

// Fixed table names for migration tracking.
const (
	FixedFrameworkMigrationsTable = "batch_framework_migrations"
	FixedAppMigrationsTable       = "buildmeta_schema_migrations"
)

// Migrator handles database schema migrations.
type Migrator interface {
	// Up applies all pending migrations found under path in migrationFS.
	// tableName is the table golang-migrate records the applied version in.
	Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
	// Version reports the applied version and whether the schema is dirty.
	Version(ctx context.Context, migrationFS fs.FS, path string, tableName string) (uint, bool, error)
}

// SQLSource is the part of a database connection a Migrator needs.
type SQLSource interface {
	Type() string
	GetSQLDB() (*sql.DB, error)
}
