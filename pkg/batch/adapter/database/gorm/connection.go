package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/config"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// sqlStateUndefinedTable is raised when a relation does not exist.
const sqlStateUndefinedTable = "42P01"

// GormDBAdapter implements database.DBConnection on top of a *gorm.DB.
type GormDBAdapter struct {
	db    *gorm.DB
	sqlDB *sql.DB
	cfg   dbconfig.DatabaseConfig
	name  string
}

// NewGormDBAdapter wraps an open *gorm.DB.
func NewGormDBAdapter(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) (*GormDBAdapter, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	return &GormDBAdapter{db: db, sqlDB: sqlDB, cfg: cfg, name: name}, nil
}

var _ database.DBConnection = (*GormDBAdapter)(nil)

func (a *GormDBAdapter) Name() string { return a.name }

func (a *GormDBAdapter) Type() string { return a.cfg.Type }

func (a *GormDBAdapter) GormDB() *gorm.DB { return a.db }

func (a *GormDBAdapter) Config() dbconfig.DatabaseConfig { return a.cfg }

// Close closes the connection pool.
func (a *GormDBAdapter) Close() error {
	if a.sqlDB == nil {
		return nil
	}
	logger.Infof("Closing database connection '%s'...", a.name)
	return a.sqlDB.Close()
}

// GetSQLDB implements database.DBConnection.
func (a *GormDBAdapter) GetSQLDB() (*sql.DB, error) {
	if a.sqlDB == nil {
		return nil, fmt.Errorf("underlying sql.DB is nil")
	}
	return a.sqlDB, nil
}

// RefreshConnection pings the pool.
func (a *GormDBAdapter) RefreshConnection(ctx context.Context) error {
	if a.sqlDB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	return a.sqlDB.PingContext(ctx)
}

// ExecuteRaw implements tx.TxExecutor.
func (a *GormDBAdapter) ExecuteRaw(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	return executeRaw(a.db.WithContext(ctx), statement, args...)
}

// ExecuteUpsert implements tx.TxExecutor.
func (a *GormDBAdapter) ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (int64, error) {
	return executeUpsert(a.db.WithContext(ctx), model, tableName, conflictColumns, updateColumns)
}

// IsTableNotExistError reports whether err is PostgreSQL's undefined_table.
func (a *GormDBAdapter) IsTableNotExistError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUndefinedTable
	}
	return false
}

func executeRaw(db *gorm.DB, statement string, args ...interface{}) (int64, error) {
	result := db.Exec(statement, args...)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func executeUpsert(db *gorm.DB, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (int64, error) {
	if tableName != "" {
		db = db.Table(tableName)
	}

	columns := make([]clause.Column, 0, len(conflictColumns))
	for _, col := range conflictColumns {
		columns = append(columns, clause.Column{Name: col})
	}
	onConflict := clause.OnConflict{Columns: columns}
	if len(updateColumns) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(updateColumns)
	} else {
		onConflict.DoNothing = true
	}

	result := db.Clauses(onConflict).Create(model)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
