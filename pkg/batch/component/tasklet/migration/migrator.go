package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// migratorImpl implements Migrator with golang-migrate.
type migratorImpl struct {
	source SQLSource
}

// NewMigrator creates a new Migrator for the given connection.
func NewMigrator(source SQLSource) Migrator {
	return &migratorImpl{source: source}
}

func (m *migratorImpl) databaseDriver(tableName string) (database.Driver, error) {
	switch m.source.Type() {
	case "postgres":
		sqlDB, err := m.source.GetSQLDB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: tableName})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.source.Type())
	}
}

func (m *migratorImpl) instance(migrationFS fs.FS, path string, tableName string) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}

	dbDriver, err := m.databaseDriver(tableName)
	if err != nil {
		_ = sourceDriver.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, m.source.Type(), dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mInstance, nil
}

// Up applies all pending migrations. ErrNoChange is success.
func (m *migratorImpl) Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	logger.Infof("Executing migration 'up' (Path: %s, Table: %s)", path, tableName)

	mInstance, err := m.instance(migrationFS, path, tableName)
	if err != nil {
		return err
	}
	// Close also closes the *sql.DB handed to the postgres driver; callers reconnect afterwards.
	defer closeInstance(mInstance)

	done := make(chan error, 1)
	go func() { done <- mInstance.Up() }()

	var migrateErr error
	select {
	case migrateErr = <-done:
	case <-ctx.Done():
		mInstance.GracefulStop <- true
		migrateErr = <-done
		if migrateErr == nil {
			migrateErr = ctx.Err()
		}
	}

	if migrateErr != nil && !errors.Is(migrateErr, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed (DB: %s, Path: %s): %w", m.source.Type(), path, migrateErr)
	}
	if errors.Is(migrateErr, migrate.ErrNoChange) {
		logger.Infof("Migration 'up' found no pending changes (Table: %s).", tableName)
		return nil
	}
	logger.Infof("Migration 'up' completed successfully (Table: %s).", tableName)
	return nil
}

// Version reports the applied migration version. A schema without migrations reports 0.
func (m *migratorImpl) Version(ctx context.Context, migrationFS fs.FS, path string, tableName string) (uint, bool, error) {
	mInstance, err := m.instance(migrationFS, path, tableName)
	if err != nil {
		return 0, false, err
	}
	defer closeInstance(mInstance)

	version, dirty, err := mInstance.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func closeInstance(mInstance *migrate.Migrate) {
	srcErr, dbErr := mInstance.Close()
	if srcErr != nil || dbErr != nil {
		logger.Debugf("Closing migrate instance: source=%v database=%v", srcErr, dbErr)
	}
}
