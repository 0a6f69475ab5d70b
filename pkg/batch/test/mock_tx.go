package test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
)

// MockTx is a testify mock of tx.Tx.
type MockTx struct {
	mock.Mock
}

// ExecuteRaw records the statement and its arguments.
func (m *MockTx) ExecuteRaw(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	a := m.Called(ctx, statement, args)
	return a.Get(0).(int64), a.Error(1)
}

// ExecuteUpsert records the call.
func (m *MockTx) ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (int64, error) {
	a := m.Called(ctx, model, tableName, conflictColumns, updateColumns)
	return a.Get(0).(int64), a.Error(1)
}

// Savepoint records the call.
func (m *MockTx) Savepoint(name string) error {
	return m.Called(name).Error(0)
}

// RollbackToSavepoint records the call.
func (m *MockTx) RollbackToSavepoint(name string) error {
	return m.Called(name).Error(0)
}

// MockTransactionManager is a testify mock of tx.TransactionManager.
type MockTransactionManager struct {
	mock.Mock
}

// Begin returns the configured Tx.
func (m *MockTransactionManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	a := m.Called(ctx)
	t, _ := a.Get(0).(tx.Tx)
	return t, a.Error(1)
}

// Commit records the call.
func (m *MockTransactionManager) Commit(t tx.Tx) error {
	return m.Called(t).Error(0)
}

// Rollback records the call.
func (m *MockTransactionManager) Rollback(t tx.Tx) error {
	return m.Called(t).Error(0)
}
