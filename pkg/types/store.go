package types

import "errors"

// Store is a synchronous key-value store holding serialized drafts.
// Each key maps to one string value; Set overwrites the value atomically.
type Store interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if no value exists for key.
	Get(key string) (string, error)

	// Set creates or replaces the value stored under key.
	Set(key, value string) error

	// Remove deletes the value stored under key. Removing a missing key
	// is not an error.
	Remove(key string) error

	// Keys returns every stored key that starts with prefix, sorted.
	// An empty prefix returns all keys.
	Keys(prefix string) ([]string, error)

	// Close releases backend resources. Idempotent: multiple calls succeed.
	// After Close, operations return ErrStoreClosed.
	Close() error
}

// Store operation errors.
var (
	ErrNotFound    = errors.New("key not found")
	ErrInvalidKey  = errors.New("invalid key")
	ErrStoreClosed = errors.New("store is closed")
)
