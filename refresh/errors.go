package refresh

import (
	"fmt"
	"time"
)

var (
	// ErrStoreUnavailable is returned when any key-value store call fails,
	// including the final publish
	ErrStoreUnavailable = fmt.Errorf("refresh: store unavailable")

	// ErrUpstreamFetch is returned when the source fetch fails
	ErrUpstreamFetch = fmt.Errorf("refresh: upstream fetch failed")

	// ErrRenderFailed is returned when rendering the artifact fails
	ErrRenderFailed = fmt.Errorf("refresh: render failed")

	// ErrRefreshTimedOut is returned when another caller's refresh did not
	// publish within the retry budget
	ErrRefreshTimedOut = fmt.Errorf("refresh: timed out waiting for refresh")

	// ErrCorruptCacheEntry is returned when a stored entry cannot be decoded
	ErrCorruptCacheEntry = fmt.Errorf("refresh: corrupt cache entry")
)

// ErrStore wraps a store failure during op
func ErrStore(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStoreUnavailable, op, key, err)
}

// ErrFetch wraps a fetch failure
func ErrFetch(key string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamFetch, key, err)
}

// ErrRender wraps a render failure
func ErrRender(key string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRenderFailed, key, err)
}

// ErrTimedOut reports an exhausted wait
func ErrTimedOut(key string, attempts int, waited time.Duration) error {
	return fmt.Errorf("%w: %s: no payload after %d polls (%v)", ErrRefreshTimedOut, key, attempts, waited)
}

// ErrCorrupt wraps a decode failure
func ErrCorrupt(key string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCorruptCacheEntry, key, err)
}

// ErrInvalidConfig returns an error for an invalid configuration field
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("refresh: invalid config: %s", msg)
}
