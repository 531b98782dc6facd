package sqlstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// Dialect captures what differs between the supported SQL engines.
type Dialect struct {
	// Name doubles as the migrations directory.
	Name string
	// Driver is the database/sql driver name.
	Driver string
	// Goose is the goose dialect used for migrations.
	Goose string

	placeholder func(n int) string
	isUnique    func(err error) bool
}

// Placeholder returns the bind parameter for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// IsUniqueViolation reports whether err is the engine's unique constraint
// failure.
func (d Dialect) IsUniqueViolation(err error) bool {
	return err != nil && d.isUnique(err)
}

var SQLite = Dialect{
	Name:        "sqlite",
	Driver:      "sqlite",
	Goose:       "sqlite3",
	placeholder: func(int) string { return "?" },
	isUnique: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// primary code only, when extended codes are off
			return strings.Contains(se.Error(), "UNIQUE")
		}
		return false
	},
}

var Postgres = Dialect{
	Name:        "postgres",
	Driver:      "pgx",
	Goose:       "pgx",
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	isUnique: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}
