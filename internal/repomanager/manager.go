// Package repomanager resolves a binding source string into a ready-to-use
// docstore.Collection: it picks the engine, connects, and brings the schema
// up to date with goose.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/userstore/internal/common"
	"github.com/dmitrijs2005/userstore/internal/docstore"
	"github.com/dmitrijs2005/userstore/internal/docstore/memory"
	"github.com/dmitrijs2005/userstore/internal/docstore/sqlstore"
	"github.com/dmitrijs2005/userstore/internal/filex"
	"github.com/dmitrijs2005/userstore/internal/logging"
	"github.com/dmitrijs2005/userstore/internal/repomanager/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Source prefixes understood by Open. Anything else is a sqlite file path.
const (
	MemorySource = "memory:"
	sqlitePrefix = "sqlite://"
)

// RepositoryManager opens collections for binding sources.
type RepositoryManager interface {
	Open(ctx context.Context, source string) (docstore.Collection, error)
}

// Manager is the default RepositoryManager.
type Manager struct {
	logger logging.Logger
}

func NewManager(logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{logger: logger}
}

// Open resolves source:
//
//	memory:                          in-process collection
//	postgres://… / postgresql://…    PostgreSQL through pgx
//	mongodb://… / mongodb+srv://…    MongoDB
//	sqlite://path, file:…, path      sqlite file
func (m *Manager) Open(ctx context.Context, source string) (docstore.Collection, error) {
	source = strings.TrimSpace(source)

	switch {
	case source == "":
		return nil, fmt.Errorf("%w: data source", common.ErrMissingField)
	case source == MemorySource:
		m.logger.Debug(ctx, "opening in-memory collection")
		return memory.NewCollection(), nil
	case strings.HasPrefix(source, "postgres://"), strings.HasPrefix(source, "postgresql://"):
		m.logger.Debug(ctx, "opening postgres collection")
		return m.OpenSQL(ctx, sqlstore.Postgres, source)
	case strings.HasPrefix(source, "mongodb://"), strings.HasPrefix(source, "mongodb+srv://"):
		m.logger.Debug(ctx, "opening mongo collection")
		return m.OpenMongo(ctx, source)
	default:
		m.logger.Debug(ctx, "opening sqlite collection", "path", source)
		if !strings.HasPrefix(source, "file:") {
			if _, err := filex.EnsureParentDir(strings.TrimPrefix(source, sqlitePrefix)); err != nil {
				return nil, err
			}
		}
		return m.OpenSQL(ctx, sqlstore.SQLite, SQLiteDSN(source))
	}
}

// SQLiteDSN turns a path (optionally prefixed with sqlite://) into a
// modernc.org/sqlite DSN with a busy timeout. file: URIs pass through.
func SQLiteDSN(source string) string {
	if strings.HasPrefix(source, "file:") {
		return source
	}
	return "file:" + strings.TrimPrefix(source, sqlitePrefix) + "?_pragma=busy_timeout(5000)"
}

// OpenSQL connects with dialect d, runs migrations and wraps the handle in
// a collection that closes it on Close.
func (m *Manager) OpenSQL(ctx context.Context, d sqlstore.Dialect, dsn string) (*sqlstore.Collection, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := RunMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return sqlstore.New(db, d), nil
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for dialect d.
func RunMigrations(ctx context.Context, db *sql.DB, d sqlstore.Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(d.Goose); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, d.Name)
}
