// Package userstore creates, looks up, renames, re-keys, authenticates and
// deletes user accounts on top of a docstore.Collection.
//
// The collection offers no multi-statement transactions, so every mutating
// method performs exactly one write and checks the number of records that
// write touched. Username uniqueness is enforced by a unique index that the
// store installs on the collection when it is bound; the lookups done before
// writes only reject obvious conflicts early.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/userstore/internal/common"
	"github.com/dmitrijs2005/userstore/internal/config"
	"github.com/dmitrijs2005/userstore/internal/cryptox"
	"github.com/dmitrijs2005/userstore/internal/docstore"
	"github.com/dmitrijs2005/userstore/internal/logging"
	"github.com/dmitrijs2005/userstore/internal/models"
	"github.com/dmitrijs2005/userstore/internal/repomanager"
	"github.com/dmitrijs2005/userstore/internal/timex"
	"github.com/dmitrijs2005/userstore/internal/validate"
)

// timestampResolution is the precision of createdAt and updatedAt. It
// matches the millisecond precision of MongoDB dates.
const timestampResolution = time.Millisecond

// Store is the user store. It starts either unbound or bound to one
// collection; once bound it stays bound.
type Store struct {
	// mu guards coll only; operations themselves are not serialized.
	mu   sync.RWMutex
	coll docstore.Collection

	hasher            cryptox.Hasher
	opener            repomanager.RepositoryManager
	logger            logging.Logger
	clock             timex.Clock
	minPasswordLength int
	timeout           time.Duration
}

// NewStore returns an unbound Store. A nil logger discards output.
func NewStore(hasher cryptox.Hasher, cfg *config.Config, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{
		hasher:            hasher,
		opener:            repomanager.NewManager(logger),
		logger:            logger.With("component", "userstore"),
		clock:             timex.NewStrictClock(timestampResolution),
		minPasswordLength: cfg.MinPasswordLength,
		timeout:           cfg.OperationTimeout,
	}
}

// Open returns a Store bound to cfg.DataSource, or an unbound Store when
// DataSource is empty.
func Open(ctx context.Context, hasher cryptox.Hasher, cfg *config.Config, logger logging.Logger) (*Store, error) {
	s := NewStore(hasher, cfg, logger)
	if cfg.DataSource == "" {
		return s, nil
	}
	if err := s.Load(ctx, cfg.DataSource); err != nil {
		return nil, err
	}
	return s, nil
}

// Load opens source and binds the resulting collection. It fails with
// common.ErrAlreadyBound if the store is already bound, before touching
// source.
func (s *Store) Load(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coll != nil {
		return common.ErrAlreadyBound
	}

	coll, err := s.opener.Open(ctx, source)
	if err != nil {
		return err
	}
	if err := s.bindLocked(ctx, coll); err != nil {
		_ = coll.Close()
		return err
	}
	return nil
}

// Bind binds an already opened collection.
func (s *Store) Bind(ctx context.Context, coll docstore.Collection) error {
	if coll == nil {
		return fmt.Errorf("%w: collection", common.ErrMissingField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coll != nil {
		return common.ErrAlreadyBound
	}
	return s.bindLocked(ctx, coll)
}

func (s *Store) bindLocked(ctx context.Context, coll docstore.Collection) error {
	if err := coll.EnsureUniqueIndex(ctx, docstore.FieldUsername); err != nil {
		return fmt.Errorf("ensure username index: %w", err)
	}
	s.coll = coll
	s.logger.Debug(ctx, "collection bound")
	return nil
}

// Bound reports whether a collection is bound.
func (s *Store) Bound() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coll != nil
}

// Close closes the bound collection. The store stays bound; later
// operations get whatever error the closed collection returns.
func (s *Store) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return nil
	}
	return s.coll.Close()
}

func (s *Store) collection() (docstore.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return nil, common.ErrNotBound
	}
	return s.coll, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// CreateUser stores a new user and returns the id the collection assigned.
// The username is trimmed before validation and storage.
func (s *Store) CreateUser(ctx context.Context, username, password string) (models.ID, error) {
	coll, err := s.collection()
	if err != nil {
		return "", err
	}

	name, err := s.checkUsername(username, common.ErrMissingField)
	if err != nil {
		return "", err
	}
	if err := s.checkPassword(password); err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ensureAvailable(ctx, coll, name, ""); err != nil {
		return "", err
	}

	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	id, err := coll.Insert(ctx, models.User{
		Username:       name,
		PasswordDigest: digest,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return "", duplicateOr(err, name)
	}

	s.logger.Info(ctx, "user created", "user_id", id, "username", name)
	return id, nil
}

// FindByUsername returns the user whose stored username equals username
// exactly, without its password digest, or nil when there is none.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.SafeUser, error) {
	coll, err := s.collection()
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.lookup(ctx, coll, username)
	if err != nil || u == nil {
		return nil, err
	}

	safe := u.Safe()
	return &safe, nil
}

// Authenticate reports whether password matches the stored digest of
// username. An unknown user yields false, not an error.
func (s *Store) Authenticate(ctx context.Context, username, password string) (bool, error) {
	coll, err := s.collection()
	if err != nil {
		return false, err
	}
	if username == "" {
		return false, fmt.Errorf("%w: username", common.ErrMissingField)
	}
	if password == "" {
		return false, fmt.Errorf("%w: password", common.ErrMissingField)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.lookup(ctx, coll, username)
	if err != nil || u == nil {
		return false, err
	}

	return s.hasher.Verify(ctx, password, u.PasswordDigest)
}

// SetUsername renames user id. It returns true on success; a missing user
// is common.ErrUserNotFound.
func (s *Store) SetUsername(ctx context.Context, id models.ID, username string) (bool, error) {
	coll, err := s.collection()
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, fmt.Errorf("%w: id", common.ErrMissingField)
	}

	name, err := s.checkUsername(username, common.ErrInvalidUsername)
	if err != nil {
		return false, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	updatedAt, err := s.nextUpdatedAt(ctx, coll, id)
	if err != nil {
		return false, err
	}
	if err := s.ensureAvailable(ctx, coll, name, id); err != nil {
		return false, err
	}

	patch := docstore.Patch{
		docstore.FieldUsername:  name,
		docstore.FieldUpdatedAt: updatedAt,
	}
	if err := s.updateOne(ctx, coll, id, patch); err != nil {
		return false, duplicateOr(err, name)
	}

	s.logger.Info(ctx, "username changed", "user_id", id, "username", name)
	return true, nil
}

// SetPassword replaces the password digest of user id.
func (s *Store) SetPassword(ctx context.Context, id models.ID, password string) (bool, error) {
	coll, err := s.collection()
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, fmt.Errorf("%w: id", common.ErrMissingField)
	}
	if err := s.checkPassword(password); err != nil {
		return false, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	updatedAt, err := s.nextUpdatedAt(ctx, coll, id)
	if err != nil {
		return false, err
	}

	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return false, err
	}

	patch := docstore.Patch{
		docstore.FieldPasswordDigest: digest,
		docstore.FieldUpdatedAt:      updatedAt,
	}
	if err := s.updateOne(ctx, coll, id, patch); err != nil {
		return false, err
	}

	s.logger.Info(ctx, "password changed", "user_id", id)
	return true, nil
}

// RemoveUser deletes user id. It returns false when no such user exists.
func (s *Store) RemoveUser(ctx context.Context, id models.ID) (bool, error) {
	coll, err := s.collection()
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, fmt.Errorf("%w: id", common.ErrMissingField)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := coll.Remove(ctx, docstore.Filter{docstore.FieldID: id})
	if err != nil {
		return false, err
	}

	switch {
	case n == 0:
		return false, nil
	case n > 1:
		s.logger.Warn(ctx, "multiple records removed for a single id", "user_id", id, "count", n)
		return true, fmt.Errorf("%w: %d records removed for id %q", common.ErrInvariantViolation, n, id)
	}

	s.logger.Info(ctx, "user removed", "user_id", id)
	return true, nil
}

// checkUsername trims raw and validates it. An empty raw value is reported
// as missing.
func (s *Store) checkUsername(raw string, missing error) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: username", missing)
	}
	name := validate.NormalizeUsername(raw)
	if !validate.IsValidUsername(name) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidUsername, raw)
	}
	return name, nil
}

func (s *Store) checkPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password", common.ErrMissingField)
	}
	if !validate.IsValidPassword(password, s.minPasswordLength) {
		return fmt.Errorf("%w: shorter than %d characters", common.ErrInvalidPassword, s.minPasswordLength)
	}
	return nil
}

// lookup returns the only record named username, nil when there is none,
// and ErrInvariantViolation when there are several.
func (s *Store) lookup(ctx context.Context, coll docstore.Collection, username string) (*models.User, error) {
	docs, err := coll.Find(ctx, docstore.Filter{docstore.FieldUsername: username})
	if err != nil {
		return nil, err
	}

	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		return &docs[0], nil
	}

	s.logger.Warn(ctx, "duplicate usernames detected", "username", username, "count", len(docs))
	return nil, fmt.Errorf("%w: duplicate usernames detected: %d records named %q",
		common.ErrInvariantViolation, len(docs), username)
}

// ensureAvailable rejects name if a record other than self already uses
// it. The unique index still decides races between concurrent writers.
func (s *Store) ensureAvailable(ctx context.Context, coll docstore.Collection, name string, self models.ID) error {
	docs, err := coll.Find(ctx, docstore.Filter{docstore.FieldUsername: name})
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.ID != self {
			return fmt.Errorf("%w: %q", common.ErrDuplicateUsername, name)
		}
	}
	return nil
}

// nextUpdatedAt returns the updatedAt for a write to record id: the clock
// reading, or one resolution step past the stored value when another writer
// on the same collection got there later. A missing record is
// ErrUserNotFound.
func (s *Store) nextUpdatedAt(ctx context.Context, coll docstore.Collection, id models.ID) (time.Time, error) {
	prev, err := coll.FindOne(ctx, docstore.Filter{docstore.FieldID: id})
	if err != nil {
		return time.Time{}, err
	}
	if prev == nil {
		return time.Time{}, fmt.Errorf("%w: %q", common.ErrUserNotFound, id)
	}

	now := s.clock.Now()
	if floor := prev.UpdatedAt.Add(timestampResolution); now.Before(floor) {
		now = floor
	}
	return now, nil
}

// updateOne applies patch to the record with id and translates the touched
// count: 0 is ErrUserNotFound, more than 1 is ErrInvariantViolation.
func (s *Store) updateOne(ctx context.Context, coll docstore.Collection, id models.ID, patch docstore.Patch) error {
	n, err := coll.Update(ctx, docstore.Filter{docstore.FieldID: id}, patch)
	if err != nil {
		return err
	}

	switch {
	case n == 0:
		return fmt.Errorf("%w: %q", common.ErrUserNotFound, id)
	case n > 1:
		s.logger.Warn(ctx, "multiple records updated for a single id", "user_id", id, "count", n)
		return fmt.Errorf("%w: multiple records updated for a single id: %d records for %q",
			common.ErrInvariantViolation, n, id)
	}
	return nil
}

func duplicateOr(err error, name string) error {
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return fmt.Errorf("%w: %q", common.ErrDuplicateUsername, name)
	}
	return err
}
