package common

import (
	"crypto/rand"
	"fmt"
)

// RandBytes returns size bytes read from the system CSPRNG.
func RandBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashingUnavailable, err)
	}
	return b, nil
}
