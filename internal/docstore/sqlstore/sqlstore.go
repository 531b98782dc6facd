// Package sqlstore implements docstore.Collection on a relational table:
//
//	users(id, username, password_digest, created_at, updated_at)
//
// Timestamps are stored as unix nanoseconds. Every method issues exactly one
// statement, so no method needs a transaction.
package sqlstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/userstore/internal/dbx"
	"github.com/dmitrijs2005/userstore/internal/docstore"
	"github.com/dmitrijs2005/userstore/internal/models"
	"github.com/google/uuid"
)

const (
	table      = "users"
	selectCols = "id, username, password_digest, created_at, updated_at"
)

var columns = map[docstore.Field]string{
	docstore.FieldID:             "id",
	docstore.FieldUsername:       "username",
	docstore.FieldPasswordDigest: "password_digest",
	docstore.FieldCreatedAt:      "created_at",
	docstore.FieldUpdatedAt:      "updated_at",
}

// Collection is a docstore.Collection backed by the users table.
type Collection struct {
	db      dbx.DBTX
	dialect Dialect
	newID   func() models.ID
}

// New returns a Collection issuing statements in dialect d through db.
func New(db dbx.DBTX, d Dialect) *Collection {
	return &Collection{
		db:      db,
		dialect: d,
		newID:   func() models.ID { return models.ID(uuid.NewString()) },
	}
}

// Insert adds a row with a new uuid id.
func (c *Collection) Insert(ctx context.Context, doc models.User) (models.ID, error) {
	id := c.newID()

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s, %s, %s, %s, %s)`,
		table, selectCols,
		c.dialect.Placeholder(1), c.dialect.Placeholder(2), c.dialect.Placeholder(3),
		c.dialect.Placeholder(4), c.dialect.Placeholder(5),
	)

	_, err := c.db.ExecContext(ctx, query,
		string(id), doc.Username, doc.PasswordDigest,
		doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano())
	if err != nil {
		return "", c.wrap(err)
	}

	return id, nil
}

// Find selects the rows matching filter.
func (c *Collection) Find(ctx context.Context, filter docstore.Filter) ([]models.User, error) {
	return c.find(ctx, filter, "")
}

// FindOne selects at most one matching row; nil when there is none.
func (c *Collection) FindOne(ctx context.Context, filter docstore.Filter) (*models.User, error) {
	docs, err := c.find(ctx, filter, " LIMIT 1")
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return &docs[0], nil
}

func (c *Collection) find(ctx context.Context, filter docstore.Filter, suffix string) ([]models.User, error) {
	where, args, err := c.where(filter, 1)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s%s`, selectCols, table, where, suffix)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.wrap(err)
	}
	defer rows.Close()

	var docs []models.User
	for rows.Next() {
		var (
			u                models.User
			id               string
			created, updated int64
		)
		if err := rows.Scan(&id, &u.Username, &u.PasswordDigest, &created, &updated); err != nil {
			return nil, c.wrap(err)
		}
		u.ID = models.ID(id)
		u.CreatedAt = time.Unix(0, created).UTC()
		u.UpdatedAt = time.Unix(0, updated).UTC()
		docs = append(docs, u)
	}
	if err := rows.Err(); err != nil {
		return nil, c.wrap(err)
	}

	return docs, nil
}

// Update sets the patched columns and returns the affected row count.
func (c *Collection) Update(ctx context.Context, filter docstore.Filter, patch docstore.Patch) (int64, error) {
	if err := docstore.Apply(&models.User{}, patch); err != nil {
		return 0, err
	}
	if len(patch) == 0 {
		return c.count(ctx, filter)
	}

	fields := sortedFields(patch)
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+len(filter))
	for i, f := range fields {
		sets = append(sets, fmt.Sprintf("%s = %s", columns[f], c.dialect.Placeholder(i+1)))
		args = append(args, toColumn(patch[f]))
	}

	where, whereArgs, err := c.where(filter, len(fields)+1)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf(`UPDATE %s SET %s%s`, table, strings.Join(sets, ", "), where)

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, c.wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, c.wrap(err)
	}
	return n, nil
}

// Remove deletes the matching rows and returns how many there were.
func (c *Collection) Remove(ctx context.Context, filter docstore.Filter) (int64, error) {
	where, args, err := c.where(filter, 1)
	if err != nil {
		return 0, err
	}

	res, err := c.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s%s`, table, where), args...)
	if err != nil {
		return 0, c.wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, c.wrap(err)
	}
	return n, nil
}

// EnsureUniqueIndex creates users_<column>_key if it does not exist.
func (c *Collection) EnsureUniqueIndex(ctx context.Context, field docstore.Field) error {
	col, ok := columns[field]
	if !ok {
		return fmt.Errorf("%w: %q", docstore.ErrUnknownField, field)
	}
	if field == docstore.FieldID {
		return nil
	}

	query := fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_%s_key ON %s (%s)`, table, col, table, col)
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return c.wrap(err)
	}
	return nil
}

// Close closes the underlying handle when it is closable (*sql.DB is).
func (c *Collection) Close() error {
	if cl, ok := c.db.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func (c *Collection) count(ctx context.Context, filter docstore.Filter) (int64, error) {
	where, args, err := c.where(filter, 1)
	if err != nil {
		return 0, err
	}

	var n int64
	err = c.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, table, where), args...).Scan(&n)
	if err != nil {
		return 0, c.wrap(err)
	}
	return n, nil
}

// where renders filter as " WHERE a = ? AND b = ?" with placeholders
// numbered from first. Fields are emitted in name order.
func (c *Collection) where(filter docstore.Filter, first int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	fields := sortedFields(filter)
	conds := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for i, f := range fields {
		v, err := docstore.Normalize(f, filter[f])
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, fmt.Sprintf("%s = %s", columns[f], c.dialect.Placeholder(first+i)))
		args = append(args, toColumn(v))
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (c *Collection) wrap(err error) error {
	if c.dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", docstore.ErrDuplicateKey, err)
	}
	return fmt.Errorf("db error: %w", err)
}

func toColumn(v any) any {
	switch value := v.(type) {
	case models.ID:
		return string(value)
	case time.Time:
		return value.UnixNano()
	default:
		return v
	}
}

func sortedFields(m map[docstore.Field]any) []docstore.Field {
	fields := make([]docstore.Field, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}
