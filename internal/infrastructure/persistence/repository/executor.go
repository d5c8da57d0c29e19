// Package repository implements the persistence ports over SQLite.
// Every repository picks its executor from the request context so
// operations inside a transaction and plain reads share the same code.
package repository

import (
	"context"
	"database/sql"

	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/sqlite"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// pickExecutor returns the context transaction when present, the pool
// otherwise.
func pickExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.TxFrom(ctx); tx != nil {
		return tx
	}
	return db
}
