package cron

import (
	"time"

	"github.com/dailyyoga/coinframe/payload"
	robfig "github.com/robfig/cron/v3"
)

// WarmConfig configures the cache warmer chain
type WarmConfig struct {
	// Enabled turns the warmer on
	Enabled bool `mapstructure:"enabled"`
	// Spec is a six-field cron spec (seconds first)
	Spec string `mapstructure:"warm_spec"`
	// Timeout bounds one warm run
	Timeout time.Duration `mapstructure:"timeout"`
	// Selectors are warmed in order on every run
	Selectors []payload.Selector `mapstructure:"selectors"`
}

// DefaultWarmConfig returns a warmer that runs every 30 seconds
func DefaultWarmConfig() *WarmConfig {
	return &WarmConfig{
		Enabled: true,
		Spec:    "*/30 * * * * *",
		Timeout: 20 * time.Second,
	}
}

// MergeDefaults fills zero values from DefaultWarmConfig
func (c *WarmConfig) MergeDefaults() *WarmConfig {
	defaults := DefaultWarmConfig()
	merged := *c
	if merged.Spec == "" {
		merged.Spec = defaults.Spec
	}
	if merged.Timeout <= 0 {
		merged.Timeout = defaults.Timeout
	}
	return &merged
}

// Validate checks the spec parses and every selector is usable
func (c *WarmConfig) Validate() error {
	if _, err := robfig.NewParser(
		robfig.Second | robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow | robfig.Descriptor,
	).Parse(c.Spec); err != nil {
		return ErrSpec("warm", c.Spec, err)
	}
	if c.Timeout <= 0 {
		return ErrInvalidConfig("timeout must be positive")
	}
	if len(c.Selectors) == 0 {
		return ErrInvalidConfig("at least one selector is required")
	}
	for _, sel := range c.Selectors {
		if err := sel.Validate(); err != nil {
			return err
		}
	}
	return nil
}
