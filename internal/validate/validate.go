// Package validate holds the pure checks applied to credentials before they
// reach storage.
package validate

import "strings"

// NormalizeUsername strips leading and trailing whitespace. It is applied
// before validation and before storage; IsValidUsername does not trim again.
func NormalizeUsername(raw string) string {
	return strings.TrimSpace(raw)
}

// IsValidUsername reports whether name matches ^[A-Za-z_][A-Za-z0-9_-]*$.
func IsValidUsername(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && (c == '-' || '0' <= c && c <= '9'):
		default:
			return false
		}
	}
	return true
}

// IsValidPassword reports whether password is non-empty and at least
// minLength bytes long. A minLength below 1 only requires non-emptiness.
func IsValidPassword(password string, minLength int) bool {
	if password == "" {
		return false
	}
	return len(password) >= minLength
}
