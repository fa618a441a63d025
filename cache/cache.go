// Package cache keeps slowly changing upstream data in process.
//
// A Syncable loads its value once on Start and then re-syncs it in the
// background on a fixed interval, retrying transient failures with
// exponential backoff. Readers always get the last successfully synced
// value; a failed sync never clears it. coinframe uses it for the random-mode
// candidate list so that a payload refresh does not spend an upstream call
// on listing the category.
package cache

import (
	"context"
	"time"
)

// SyncFunc loads a fresh value. It should respect ctx for cancellation.
type SyncFunc[T any] func(ctx context.Context) (T, error)

// Syncable is a value that is periodically re-synced from its source
type Syncable[T any] interface {
	// Start performs the initial sync and launches the background loop.
	// It returns the initial sync error, if any.
	Start() error

	// Stop ends the background loop. Safe to call more than once.
	Stop()

	// Get returns the last synced value. For reference types the result
	// is shared and must be treated as read-only.
	Get() T

	// UpdatedAt reports when the value was last synced, zero before the
	// first successful sync
	UpdatedAt() time.Time

	// Sync triggers a sync now, with the configured retries
	Sync(ctx context.Context) error
}
