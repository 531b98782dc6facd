// Package dbx holds the database/sql seam shared by the SQL-backed code.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by sqlstore.
// *sql.DB, *sql.Tx and *sql.Conn all satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
