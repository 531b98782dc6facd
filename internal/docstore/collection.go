// Package docstore defines the document collection contract the user store
// is built on: equality filters, partial updates that report how many
// documents they touched, and unique indexes.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userstore/internal/models"
)

var (
	// ErrDuplicateKey is returned when a write would break a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnknownField is returned for filter or patch keys the collection
	// does not store.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a filter or patch value has the wrong
	// type for its field.
	ErrInvalidValue = errors.New("invalid field value")
)

// Field names a stored document field.
type Field string

const (
	FieldID             Field = "_id"
	FieldUsername       Field = "username"
	FieldPasswordDigest Field = "password"
	FieldCreatedAt      Field = "createdAt"
	FieldUpdatedAt      Field = "updatedAt"
)

// Filter matches documents whose fields equal every value in it. An empty
// filter matches all documents.
type Filter map[Field]any

// Patch lists field values to set. FieldID cannot be patched.
type Patch map[Field]any

// Collection is a store of user documents addressed by equality filters.
type Collection interface {
	// Insert stores doc under a newly assigned id and returns that id. The
	// ID of doc is ignored.
	Insert(ctx context.Context, doc models.User) (models.ID, error)

	// Find returns every document matching filter, possibly none.
	Find(ctx context.Context, filter Filter) ([]models.User, error)

	// FindOne returns one matching document or nil when none matches.
	FindOne(ctx context.Context, filter Filter) (*models.User, error)

	// Update applies patch to every matching document and returns how many
	// documents matched.
	Update(ctx context.Context, filter Filter, patch Patch) (int64, error)

	// Remove deletes every matching document and returns how many were
	// deleted.
	Remove(ctx context.Context, filter Filter) (int64, error)

	// EnsureUniqueIndex makes field unique across documents. It is
	// idempotent and fails if stored documents already collide.
	EnsureUniqueIndex(ctx context.Context, field Field) error

	Close() error
}

// Normalize checks that field is known and converts v to the field's
// canonical Go type: models.ID, string or time.Time.
func Normalize(field Field, v any) (any, error) {
	switch field {
	case FieldID:
		switch id := v.(type) {
		case models.ID:
			return id, nil
		case string:
			return models.ID(id), nil
		}
	case FieldUsername, FieldPasswordDigest:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case FieldCreatedAt, FieldUpdatedAt:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil, fmt.Errorf("%w: %s=%T", ErrInvalidValue, field, v)
}

// Value reads field from u in its canonical type.
func Value(u models.User, field Field) (any, error) {
	switch field {
	case FieldID:
		return u.ID, nil
	case FieldUsername:
		return u.Username, nil
	case FieldPasswordDigest:
		return u.PasswordDigest, nil
	case FieldCreatedAt:
		return u.CreatedAt, nil
	case FieldUpdatedAt:
		return u.UpdatedAt, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Matches reports whether u satisfies every entry of filter.
func Matches(u models.User, filter Filter) (bool, error) {
	for field, want := range filter {
		norm, err := Normalize(field, want)
		if err != nil {
			return false, err
		}
		got, _ := Value(u, field)
		if !equal(got, norm) {
			return false, nil
		}
	}
	return true, nil
}

// Apply writes patch into u. It fails without modifying u if any entry is
// invalid or targets FieldID.
func Apply(u *models.User, patch Patch) error {
	next := *u
	for field, raw := range patch {
		if field == FieldID {
			return fmt.Errorf("%w: %q is immutable", ErrInvalidValue, field)
		}
		v, err := Normalize(field, raw)
		if err != nil {
			return err
		}
		switch field {
		case FieldUsername:
			next.Username = v.(string)
		case FieldPasswordDigest:
			next.PasswordDigest = v.(string)
		case FieldCreatedAt:
			next.CreatedAt = v.(time.Time)
		case FieldUpdatedAt:
			next.UpdatedAt = v.(time.Time)
		}
	}
	*u = next
	return nil
}

// CheckFilter validates every entry of filter without matching anything.
func CheckFilter(filter Filter) error {
	for field, v := range filter {
		if _, err := Normalize(field, v); err != nil {
			return err
		}
	}
	return nil
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
