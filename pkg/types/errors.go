package types

import (
	"errors"
	"fmt"
)

// Engine lifecycle errors.
var (
	ErrAlreadyLoaded = errors.New("draft already loaded")
	ErrClosed        = errors.New("draft engine is closed")
	ErrInvalidField  = errors.New("field name must not be empty")
)

var errNullRecord = errors.New("record is null")

// SerializationError reports stored content that is not a valid DraftRecord.
// It is recoverable: the draft is treated as absent.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("decoding draft %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// StoreReadError reports a failure reading from the underlying store.
// It is recoverable: the draft is treated as absent.
type StoreReadError struct {
	Key string
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("reading draft %q: %v", e.Key, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError reports a failure writing or removing a draft, for
// example when the store is out of quota. It is eligible for retry.
type StoreWriteError struct {
	Key string
	Op  string // "save" or "remove"
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%s draft %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a store write failure that a retry
// could resolve.
func IsRetryable(err error) bool {
	var we *StoreWriteError
	return errors.As(err, &we)
}
