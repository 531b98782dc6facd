// Package cryptox turns plaintext passwords into salted one-way digests and
// checks candidates against them.
package cryptox

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userstore/internal/config"
)

// Hasher produces and checks password digests.
//
// Hash returns a digest that embeds its own random salt, so two calls with
// the same plaintext differ. Verify reports whether plaintext matches
// digest; a malformed digest yields (false, nil). Errors from either method
// mean the work could not be done, never that the password was wrong.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}

// Multi hashes with one algorithm and verifies digests of every algorithm
// it knows, picked by the digest prefix.
type Multi struct {
	primary Hasher
	bcrypt  Hasher
	argon2  Hasher
}

// NewHasher builds a Multi from cfg. HashAlgorithm selects the algorithm
// used for new digests.
func NewHasher(cfg *config.Config) (*Multi, error) {
	m := &Multi{
		bcrypt: NewBcrypt(cfg.BcryptCost),
		argon2: NewArgon2id(cfg.Argon2Time, cfg.Argon2MemoryKiB, cfg.Argon2Threads),
	}

	switch strings.ToLower(cfg.HashAlgorithm) {
	case "", config.HashBcrypt:
		m.primary = m.bcrypt
	case config.HashArgon2id:
		m.primary = m.argon2
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", cfg.HashAlgorithm)
	}

	return m, nil
}

func (m *Multi) Hash(ctx context.Context, plaintext string) (string, error) {
	return m.primary.Hash(ctx, plaintext)
}

func (m *Multi) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if strings.HasPrefix(digest, argon2idPrefix) {
		return m.argon2.Verify(ctx, plaintext, digest)
	}
	return m.bcrypt.Verify(ctx, plaintext, digest)
}

// run executes fn on its own goroutine and returns early with ctx.Err() if
// the context ends first. fn keeps running to completion in that case.
func run[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
