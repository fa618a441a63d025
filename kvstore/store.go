// Package kvstore is the key-value store client used by the refresh
// coordinator.
//
// The contract is deliberately small: get, set with expiry, and set with
// expiry if absent. The coordinator's mutual exclusion relies only on the
// atomicity of SetWithExpiryIfAbsent for a single key. Implementations never
// retry internally; every failure talking to the backend is reported wrapped
// in ErrUnavailable so callers can apply their own policy.
package kvstore

import (
	"context"
	"time"
)

// Store is a remote key-value store with per-key expiry
type Store interface {
	// Get returns the value stored at key, or ErrNotFound when the key is
	// absent or expired
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithExpiry stores value at key, overwriting any previous value,
	// and expires it after ttl
	SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetWithExpiryIfAbsent stores value at key only when no live entry
	// exists. It reports true when this call created the entry.
	SetWithExpiryIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connections
	Close() error
}
