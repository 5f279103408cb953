package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

// MockPoolAdapter wraps pgxmock.PgxPoolIface to implement DatabasePool.
type MockPoolAdapter struct {
	mock pgxmock.PgxPoolIface
}

func NewMockPoolAdapter(mock pgxmock.PgxPoolIface) DatabasePool {
	return &MockPoolAdapter{mock: mock}
}

func (m *MockPoolAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.mock.QueryRow(ctx, sql, args...)
}

func (m *MockPoolAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return m.mock.Exec(ctx, sql, args...)
}

func (m *MockPoolAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return m.mock.Query(ctx, sql, args...)
}
