package cryptox

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userstore/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt is a Hasher backed by golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt Hasher. Costs outside bcrypt's accepted range
// fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(ctx context.Context, plaintext string) (string, error) {
	return run(ctx, func() (string, error) {
		digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return "", fmt.Errorf("%w: %v", common.ErrInvalidPassword, err)
			}
			return "", fmt.Errorf("%w: %v", common.ErrHashingUnavailable, err)
		}
		return string(digest), nil
	})
}

func (b *Bcrypt) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	return run(ctx, func() (bool, error) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil, nil
	})
}
