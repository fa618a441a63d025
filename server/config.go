package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/dailyyoga/coinframe/payload"
)

// Config holds HTTP server configuration
type Config struct {
	// Addr is the listen address
	// default: ":8080"
	Addr string `mapstructure:"addr"`

	// BaseURL prefixes absolute links in the frame metadata; empty keeps
	// them relative
	BaseURL string `mapstructure:"base_url"`

	// Selector is the payload served by /api/random-coin, /api/frame-image
	// and the page
	// default: random coin from "base-meme-coins" over 7 days
	Selector payload.Selector `mapstructure:"selector"`

	// OGDays is the chart window /api/og uses when days is absent
	// default: 7
	OGDays int `mapstructure:"og_days"`

	// CacheMaxAge is sent as Cache-Control max-age on images; set it to
	// the coordinator's cache TTL
	// default: 300s
	CacheMaxAge time.Duration `mapstructure:"cache_max_age"`

	// RetryAfter is sent with 503 responses
	// default: 5s
	RetryAfter time.Duration `mapstructure:"retry_after"`

	// HistoryLimit is the default /api/history page size
	// default: 20
	HistoryLimit int `mapstructure:"history_limit"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultCategory is the CoinGecko category random mode draws from
const DefaultCategory = "base-meme-coins"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:              ":8080",
		Selector:          payload.Random(DefaultCategory, 7),
		OGDays:            7,
		CacheMaxAge:       300 * time.Second,
		RetryAfter:        5 * time.Second,
		HistoryLimit:      20,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults
func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.Selector.Mode == "" {
		c.Selector = d.Selector
	}
	if c.OGDays == 0 {
		c.OGDays = d.OGDays
	}
	if c.CacheMaxAge == 0 {
		c.CacheMaxAge = d.CacheMaxAge
	}
	if c.RetryAfter == 0 {
		c.RetryAfter = d.RetryAfter
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrInvalidConfig("addr is required")
	}
	if err := c.Selector.Validate(); err != nil {
		return ErrInvalidConfig(err.Error())
	}
	if c.OGDays < 1 || c.OGDays > payload.MaxChartDays {
		return ErrInvalidConfig(fmt.Sprintf("og_days must be within 1..%d", payload.MaxChartDays))
	}
	if c.CacheMaxAge < 0 || c.RetryAfter < 0 {
		return ErrInvalidConfig("cache_max_age and retry_after must not be negative")
	}
	if c.HistoryLimit < 1 {
		return ErrInvalidConfig("history_limit must be positive")
	}
	return nil
}
