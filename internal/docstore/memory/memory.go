// Package memory is an in-process docstore.Collection. Documents live in a
// map guarded by a RWMutex and are copied in and out, so callers never share
// memory with the store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/userstore/internal/docstore"
	"github.com/dmitrijs2005/userstore/internal/models"
	"github.com/google/uuid"
)

// Collection is a docstore.Collection held in process memory. It is safe
// for concurrent use.
type Collection struct {
	mu     sync.RWMutex
	docs   map[models.ID]models.User
	order  []models.ID
	unique map[docstore.Field]struct{}
	newID  func() models.ID
}

// NewCollection returns an empty collection with uuid ids and no unique
// indexes.
func NewCollection() *Collection {
	return &Collection{
		docs:   make(map[models.ID]models.User),
		unique: make(map[docstore.Field]struct{}),
		newID:  func() models.ID { return models.ID(uuid.NewString()) },
	}
}

// Insert stores a copy of doc under a new uuid.
func (c *Collection) Insert(ctx context.Context, doc models.User) (models.ID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	doc.ID = c.newID()
	if err := c.checkUnique(doc); err != nil {
		return "", err
	}

	c.docs[doc.ID] = doc
	c.order = append(c.order, doc.ID)
	return doc.ID, nil
}

// Find returns copies of the matching documents in insertion order.
func (c *Collection) Find(ctx context.Context, filter docstore.Filter) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ids, err := c.match(filter)
	if err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.docs[id])
	}
	return out, nil
}

// FindOne returns the first matching document, or nil.
func (c *Collection) FindOne(ctx context.Context, filter docstore.Filter) (*models.User, error) {
	docs, err := c.Find(ctx, filter)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return &docs[0], nil
}

// Update patches every matching document or none of them.
func (c *Collection) Update(ctx context.Context, filter docstore.Filter, patch docstore.Patch) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := docstore.Apply(&models.User{}, patch); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.match(filter)
	if err != nil {
		return 0, err
	}

	// Build every new version first so a failing document leaves all of
	// them untouched.
	updated := make([]models.User, 0, len(ids))
	for _, id := range ids {
		doc := c.docs[id]
		if err := docstore.Apply(&doc, patch); err != nil {
			return 0, err
		}
		updated = append(updated, doc)
	}

	staged := make(map[models.ID]models.User, len(c.docs))
	for id, doc := range c.docs {
		staged[id] = doc
	}
	for _, doc := range updated {
		staged[doc.ID] = doc
	}
	for _, doc := range updated {
		if err := uniqueIn(staged, c.unique, doc); err != nil {
			return 0, err
		}
	}

	for _, doc := range updated {
		c.docs[doc.ID] = doc
	}
	return int64(len(updated)), nil
}

// Remove deletes the matching documents.
func (c *Collection) Remove(ctx context.Context, filter docstore.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.match(filter)
	if err != nil {
		return 0, err
	}

	gone := make(map[models.ID]struct{}, len(ids))
	for _, id := range ids {
		delete(c.docs, id)
		gone[id] = struct{}{}
	}

	kept := c.order[:0]
	for _, id := range c.order {
		if _, ok := gone[id]; !ok {
			kept = append(kept, id)
		}
	}
	c.order = kept

	return int64(len(ids)), nil
}

// EnsureUniqueIndex starts enforcing uniqueness of field.
func (c *Collection) EnsureUniqueIndex(ctx context.Context, field docstore.Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := docstore.Value(models.User{}, field); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.unique[field]; ok {
		return nil
	}

	seen := make(map[any]models.ID, len(c.docs))
	for _, id := range c.order {
		v, _ := docstore.Value(c.docs[id], field)
		if other, ok := seen[v]; ok {
			return fmt.Errorf("%w: %s shared by %s and %s", docstore.ErrDuplicateKey, field, other, id)
		}
		seen[v] = id
	}

	c.unique[field] = struct{}{}
	return nil
}

// Close is a no-op.
func (c *Collection) Close() error {
	return nil
}

// match returns the ids of matching documents in insertion order.
func (c *Collection) match(filter docstore.Filter) ([]models.ID, error) {
	if err := docstore.CheckFilter(filter); err != nil {
		return nil, err
	}

	var ids []models.ID
	for _, id := range c.order {
		ok, err := docstore.Matches(c.docs[id], filter)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Collection) checkUnique(doc models.User) error {
	return uniqueIn(c.docs, c.unique, doc)
}

func uniqueIn(docs map[models.ID]models.User, unique map[docstore.Field]struct{}, doc models.User) error {
	for field := range unique {
		want, _ := docstore.Value(doc, field)
		for id, other := range docs {
			if id == doc.ID {
				continue
			}
			if got, _ := docstore.Value(other, field); got == want {
				return fmt.Errorf("%w: %s=%v", docstore.ErrDuplicateKey, field, want)
			}
		}
	}
	return nil
}
