package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
)

// MockDBConnectionResolver is a testify mock of database.DBConnectionResolver.
type MockDBConnectionResolver struct {
	mock.Mock
}

// ResolveDBConnection returns the configured connection.
func (m *MockDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (database.DBConnection, error) {
	a := m.Called(ctx, name)
	conn, _ := a.Get(0).(database.DBConnection)
	return conn, a.Error(1)
}
