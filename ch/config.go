package ch

import (
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type Config struct {
	// clickhouse connection config
	Hosts       []string      `mapstructure:"hosts"`
	Database    string        `mapstructure:"database"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Debug       bool          `mapstructure:"debug"`
	// clickhouse settings (https://clickhouse.com/docs/en/operations/settings/settings)
	Settings clickhouse.Settings `mapstructure:"settings"`
	// EventTable receives one row per coordinator call
	EventTable string `mapstructure:"event_table"`
	// batch insert config
	WriterConfig *WriterConfig `mapstructure:"writer"`
}

type WriterConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	FlushSize     int           `mapstructure:"flush_size"`
	// MinFlushSize is the minimum batch size for time-triggered flush.
	// Set to 0 to flush on every interval.
	MinFlushSize int `mapstructure:"min_flush_size"`
	// MaxWaitTime forces a time-triggered flush below MinFlushSize once the
	// oldest buffered row is this old. 0 waits for MinFlushSize.
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

func DefaultConfig() *Config {
	return &Config{
		Database:     "default",
		Username:     "default",
		DialTimeout:  10 * time.Second,
		EventTable:   "refresh_events",
		WriterConfig: DefaultWriterConfig(),
	}
}

// DefaultWriterConfig returns the default writer config
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		FlushInterval: 5 * time.Second,
		FlushSize:     1000,
		MinFlushSize:  100,
		MaxWaitTime:   30 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults. A nil WriterConfig stays nil.
func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	if c.Database == "" {
		c.Database = d.Database
	}
	if c.Username == "" {
		c.Username = d.Username
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.EventTable == "" {
		c.EventTable = d.EventTable
	}
	if w := c.WriterConfig; w != nil {
		if w.FlushInterval == 0 {
			w.FlushInterval = d.WriterConfig.FlushInterval
		}
		if w.FlushSize == 0 {
			w.FlushSize = d.WriterConfig.FlushSize
		}
	}
	return c
}

func (c *Config) options() *clickhouse.Options {
	return &clickhouse.Options{
		Addr: c.Hosts,
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		DialTimeout: c.DialTimeout,
		Debug:       c.Debug,
		Settings:    c.Settings,
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return ErrInvalidConfig("hosts are required")
	}
	if c.Username == "" {
		return ErrInvalidConfig("username is required")
	}
	if !identifier.MatchString(c.EventTable) {
		return ErrInvalidConfig("event_table must be a plain identifier")
	}

	// validate writer config only if it's set
	if c.WriterConfig != nil {
		if c.WriterConfig.FlushInterval <= 0 {
			return ErrInvalidConfig("writer.flush_interval is required")
		}
		if c.WriterConfig.FlushSize <= 0 {
			return ErrInvalidConfig("writer.flush_size is required")
		}
		if c.WriterConfig.MinFlushSize < 0 {
			return ErrInvalidConfig("writer.min_flush_size cannot be negative")
		}
		if c.WriterConfig.MinFlushSize > c.WriterConfig.FlushSize {
			return ErrInvalidConfig("writer.min_flush_size cannot be greater than writer.flush_size")
		}
		if c.WriterConfig.MaxWaitTime < 0 {
			return ErrInvalidConfig("writer.max_wait_time cannot be negative")
		}
	}
	return nil
}
