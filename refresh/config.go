package refresh

import (
	"fmt"
	"time"
)

// Backoff strategies for the wait loop
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Config holds coordinator configuration
type Config struct {
	// KeyPrefix namespaces every key the coordinator writes
	// default: "coinframe"
	KeyPrefix string `mapstructure:"key_prefix"`

	// CacheTTL is how long a published payload stays visible
	// default: 300s
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// LockTTL bounds how long a crashed refresher can block others.
	// It must exceed a normal fetch plus render and stay below CacheTTL.
	// default: 10s
	LockTTL time.Duration `mapstructure:"lock_ttl"`

	// RetryDelay is the wait between polls while another caller refreshes
	// default: 500ms
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// RetryBudget is the number of polls before giving up
	// default: 10
	RetryBudget int `mapstructure:"retry_budget"`

	// Backoff is "fixed" or "exponential"
	// default: "fixed"
	Backoff string `mapstructure:"backoff"`

	// MaxRetryDelay caps exponential backoff
	// default: 2s
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		KeyPrefix:     "coinframe",
		CacheTTL:      300 * time.Second,
		LockTTL:       10 * time.Second,
		RetryDelay:    500 * time.Millisecond,
		RetryBudget:   10,
		Backoff:       BackoffFixed,
		MaxRetryDelay: 2 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults
func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	if c.KeyPrefix == "" {
		c.KeyPrefix = d.KeyPrefix
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.LockTTL == 0 {
		c.LockTTL = d.LockTTL
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.RetryBudget == 0 {
		c.RetryBudget = d.RetryBudget
	}
	if c.Backoff == "" {
		c.Backoff = d.Backoff
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = d.MaxRetryDelay
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.KeyPrefix == "" {
		return ErrInvalidConfig("key_prefix must not be empty")
	}
	if c.CacheTTL <= 0 {
		return ErrInvalidConfig(fmt.Sprintf("cache_ttl %v must be positive", c.CacheTTL))
	}
	if c.LockTTL <= 0 || c.LockTTL >= c.CacheTTL {
		return ErrInvalidConfig(fmt.Sprintf("lock_ttl %v must be within (0, cache_ttl %v)", c.LockTTL, c.CacheTTL))
	}
	if c.RetryDelay <= 0 {
		return ErrInvalidConfig(fmt.Sprintf("retry_delay %v must be positive", c.RetryDelay))
	}
	if c.RetryBudget < 1 {
		return ErrInvalidConfig(fmt.Sprintf("retry_budget %d must be at least 1", c.RetryBudget))
	}
	switch c.Backoff {
	case BackoffFixed:
	case BackoffExponential:
		if c.MaxRetryDelay < c.RetryDelay {
			return ErrInvalidConfig("max_retry_delay must not be below retry_delay")
		}
	default:
		return ErrInvalidConfig(fmt.Sprintf("backoff %q must be %q or %q", c.Backoff, BackoffFixed, BackoffExponential))
	}
	return nil
}

// WaitBound is the longest a losing caller waits before timing out
func (c *Config) WaitBound() time.Duration {
	var total time.Duration
	for attempt := 1; attempt <= c.RetryBudget; attempt++ {
		total += c.delay(attempt)
	}
	return total
}

// delay returns the sleep before poll attempt (1-based)
func (c *Config) delay(attempt int) time.Duration {
	if c.Backoff != BackoffExponential {
		return c.RetryDelay
	}
	d := c.RetryDelay
	for i := 1; i < attempt && d < c.MaxRetryDelay; i++ {
		d *= 2
	}
	return min(d, c.MaxRetryDelay)
}
