// Package common defines sentinel errors and small helpers shared by the
// userstore packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Binding lifecycle errors.
	ErrNotBound     = errors.New("no collection bound")
	ErrAlreadyBound = errors.New("collection already bound")

	// Validation errors, raised before any I/O.
	ErrMissingField      = errors.New("missing field")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrDuplicateUsername = errors.New("duplicate username")

	// Update/lookup errors.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvariantViolation reports data that should be impossible, e.g. two
	// records sharing a username or an id.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrHashingUnavailable reports that a digest could not be produced.
	ErrHashingUnavailable = errors.New("hashing unavailable")
)
