package gorm

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
)

// GormTxAdapter implements tx.Tx on a transaction-bound *gorm.DB.
type GormTxAdapter struct {
	db *gorm.DB
}

// ExecuteRaw implements tx.TxExecutor.
func (t *GormTxAdapter) ExecuteRaw(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	return executeRaw(t.db.WithContext(ctx), statement, args...)
}

// ExecuteUpsert implements tx.TxExecutor.
func (t *GormTxAdapter) ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (int64, error) {
	return executeUpsert(t.db.WithContext(ctx), model, tableName, conflictColumns, updateColumns)
}

// Savepoint implements tx.Tx.
func (t *GormTxAdapter) Savepoint(name string) error {
	return t.db.SavePoint(name).Error
}

// RollbackToSavepoint implements tx.Tx.
func (t *GormTxAdapter) RollbackToSavepoint(name string) error {
	return t.db.RollbackTo(name).Error
}

// GormTransactionManager implements tx.TransactionManager for one named connection.
type GormTransactionManager struct {
	dbResolver database.DBConnectionResolver
	dbName     string
}

// NewGormTransactionManager creates a transaction manager bound to the named connection.
func NewGormTransactionManager(resolver database.DBConnectionResolver, dbName string) *GormTransactionManager {
	return &GormTransactionManager{dbResolver: resolver, dbName: dbName}
}

// Begin resolves the connection and starts a transaction on it.
func (m *GormTransactionManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	conn, err := m.dbResolver.ResolveDBConnection(ctx, m.dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB connection '%s' for transaction: %w", m.dbName, err)
	}

	var txOpts *sql.TxOptions
	if len(opts) > 0 {
		txOpts = opts[0]
	}
	gormTx := conn.GormDB().WithContext(ctx).Begin(txOpts)
	if gormTx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", gormTx.Error)
	}
	return &GormTxAdapter{db: gormTx}, nil
}

// Commit implements tx.TransactionManager.
func (m *GormTransactionManager) Commit(t tx.Tx) error {
	adapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter, got %T", t)
	}
	return adapter.db.Commit().Error
}

// Rollback implements tx.TransactionManager.
func (m *GormTransactionManager) Rollback(t tx.Tx) error {
	adapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter, got %T", t)
	}
	return adapter.db.Rollback().Error
}
