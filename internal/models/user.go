package models

import "time"

// ID identifies a user record. Its value is assigned by the backing
// collection and should be treated as an opaque token.
type ID string

// User is the persisted user record.
type User struct {
	ID             ID
	Username       string
	PasswordDigest string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SafeUser is a User without its password digest.
type SafeUser struct {
	ID        ID
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Safe strips the password digest.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
