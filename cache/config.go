package cache

import "time"

// SyncableConfig holds configuration for a Syncable
type SyncableConfig struct {
	// Name identifies the cache in logs (required)
	Name string `mapstructure:"name"`
	// SyncInterval is the interval between background syncs
	// default: 5 * time.Minute
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	// SyncTimeout bounds each sync attempt
	// default: 30 * time.Second
	SyncTimeout time.Duration `mapstructure:"sync_timeout"`
	// MaxRetries is the number of attempts per sync
	// default: 3
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBackoff is the first backoff; it doubles per attempt
	// default: 1 * time.Second
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// DefaultSyncableConfig returns the default configuration.
// Name has no default and must be set by the caller.
func DefaultSyncableConfig() *SyncableConfig {
	return &SyncableConfig{
		SyncInterval: 5 * time.Minute,
		SyncTimeout:  30 * time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// MergeDefaults fills zero-valued fields and returns c
func (c *SyncableConfig) MergeDefaults() *SyncableConfig {
	defaults := DefaultSyncableConfig()
	if c.SyncInterval == 0 {
		c.SyncInterval = defaults.SyncInterval
	}
	if c.SyncTimeout == 0 {
		c.SyncTimeout = defaults.SyncTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaults.RetryBackoff
	}
	return c
}

// Validate validates the configuration
func (c *SyncableConfig) Validate() error {
	if c.Name == "" {
		return errConfig("name", c.Name, "must be non-empty")
	}
	if c.SyncInterval <= 0 {
		return errConfig("sync_interval", c.SyncInterval, "must be positive")
	}
	if c.SyncTimeout <= 0 {
		return errConfig("sync_timeout", c.SyncTimeout, "must be positive")
	}
	if c.MaxRetries < 1 {
		return errConfig("max_retries", c.MaxRetries, "must be at least 1")
	}
	if c.RetryBackoff < 0 {
		return errConfig("retry_backoff", c.RetryBackoff, "must not be negative")
	}
	return nil
}
