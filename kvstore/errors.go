package kvstore

import (
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key is absent or expired
	ErrNotFound = fmt.Errorf("kvstore: key not found")

	// ErrUnavailable marks every failure talking to the backend
	ErrUnavailable = fmt.Errorf("kvstore: store unavailable")

	// ErrClosed is returned by operations on a closed store
	ErrClosed = fmt.Errorf("kvstore: store is closed")
)

// ErrStore wraps a backend error for the given operation
func ErrStore(op, key string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrUnavailable, op, key, err)
}

// ErrInvalidConfig returns an error for an invalid configuration field
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("kvstore: invalid config: %s", msg)
}

// ErrInvalidTTL returns an error for a non-positive expiry
func ErrInvalidTTL(ttl time.Duration) error {
	return fmt.Errorf("kvstore: invalid ttl: %v (must be > 0)", ttl)
}
