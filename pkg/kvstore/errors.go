package kvstore

import "errors"

var (
	// ErrKeyNotFound is returned when no value is stored under the key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidKey is returned for empty or oversized keys.
	ErrInvalidKey = errors.New("invalid key")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("database error")
)
