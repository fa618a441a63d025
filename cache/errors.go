package cache

import "fmt"

var (
	// ErrNilSyncFunc is returned when no SyncFunc is provided
	ErrNilSyncFunc = fmt.Errorf("cache: sync func is nil")

	// ErrSyncFailed marks a sync that exhausted its attempts or hit a
	// permanent error; the previous value is still served
	ErrSyncFailed = fmt.Errorf("cache: sync failed")

	// ErrInvalidConfig marks an unusable SyncableConfig
	ErrInvalidConfig = fmt.Errorf("cache: invalid config")
)

// ErrSync wraps the last error of a failed sync of the cache called name
func ErrSync(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSyncFailed, name, err)
}

// errConfig reports a field whose value breaks rule
func errConfig(field string, value any, rule string) error {
	return fmt.Errorf("%w: %s %v: %s", ErrInvalidConfig, field, value, rule)
}
