package repository

import "strings"

// IsUniqueViolation reports whether err is a SQLite unique-constraint failure.
// Used to turn duplicate-path inserts into user-facing "already exists"
// errors and per-file recoverable scan errors.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
