// Package tx abstracts transaction management so that stages can write either through a
// plain connection (auto-commit) or inside a transaction using the same calls.
package tx

import (
	"context"
	"database/sql"
	"fmt"
)

// TxExecutor defines the write operations available both on a connection and inside a transaction.
type TxExecutor interface {
	// ExecuteRaw runs a raw statement (UPDATE ... FROM, INSERT ... SELECT) and returns the affected row count.
	ExecuteRaw(ctx context.Context, statement string, args ...interface{}) (rowsAffected int64, err error)

	// ExecuteUpsert inserts model into tableName. A conflict on conflictColumns updates updateColumns,
	// or does nothing when updateColumns is empty.
	ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (rowsAffected int64, err error)
}

// Tx represents an ongoing database transaction.
type Tx interface {
	TxExecutor

	// Savepoint creates a new savepoint within the current transaction.
	Savepoint(name string) error
	// RollbackToSavepoint undoes the changes made after the named savepoint.
	RollbackToSavepoint(name string) error
}

// TransactionManager manages the lifecycle of database transactions.
type TransactionManager interface {
	Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error)
	Commit(tx Tx) error
	Rollback(tx Tx) error
}

// RunInTx runs fn inside a transaction begun on tm. The transaction is committed when fn
// returns nil and rolled back otherwise; a rollback failure is attached to fn's error.
func RunInTx(ctx context.Context, tm TransactionManager, fn func(Tx) error) error {
	t, err := tm.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		if rbErr := tm.Rollback(t); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tm.Commit(t)
}
