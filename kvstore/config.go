package kvstore

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DriverRedis selects the Redis-backed store
	DriverRedis = "redis"
	// DriverMemory selects the in-process store (single instance only)
	DriverMemory = "memory"
)

// Config selects and configures the store implementation
type Config struct {
	// Driver is "redis" or "memory"
	// default: "redis"
	Driver string `mapstructure:"driver"`
	// Redis configures the Redis driver
	Redis *RedisConfig `mapstructure:"redis"`
}

// DefaultConfig returns the default store configuration
func DefaultConfig() *Config {
	return &Config{
		Driver: DriverRedis,
		Redis:  DefaultRedisConfig(),
	}
}

// MergeDefaults fills zero-valued fields and returns c
func (c *Config) MergeDefaults() *Config {
	if c.Driver == "" {
		c.Driver = DriverRedis
	}
	if c.Redis == nil {
		c.Redis = DefaultRedisConfig()
	} else {
		c.Redis.MergeDefaults()
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverRedis:
		if c.Redis == nil {
			return ErrInvalidConfig("redis section is required for the redis driver")
		}
		return c.Redis.Validate()
	default:
		return ErrInvalidConfig(fmt.Sprintf("driver %q must be %q or %q", c.Driver, DriverRedis, DriverMemory))
	}
}

// RedisConfig holds configuration for the Redis store
type RedisConfig struct {
	// URL is a redis:// or rediss:// connection URL. When set it takes
	// precedence over Addr, Username, Password and DB.
	URL string `mapstructure:"url"`
	// Addr is the host:port of the Redis server
	// default: "localhost:6379"
	Addr string `mapstructure:"addr"`
	// Username for Redis 6 ACL authentication
	Username string `mapstructure:"username"`
	// Password for authentication
	Password string `mapstructure:"password"`
	// DB is the database index
	DB int `mapstructure:"db"`
	// PoolSize is the maximum number of socket connections
	// default: 10
	PoolSize int `mapstructure:"pool_size"`
	// MinIdleConns is the minimum number of idle connections
	MinIdleConns int `mapstructure:"min_idle_conns"`
	// MaxRetries is passed to go-redis; -1 disables command retries.
	// The store contract leaves retry policy to the caller.
	// default: -1
	MaxRetries int `mapstructure:"max_retries"`
	// DialTimeout for establishing new connections
	// default: 5s
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// ReadTimeout for socket reads
	// default: 3s
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout for socket writes
	// default: 3s
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultRedisConfig returns the default Redis configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MaxRetries:   -1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// MergeDefaults fills zero-valued fields and returns c
func (c *RedisConfig) MergeDefaults() *RedisConfig {
	defaults := DefaultRedisConfig()
	if c.Addr == "" && c.URL == "" {
		c.Addr = defaults.Addr
	}
	if c.PoolSize == 0 {
		c.PoolSize = defaults.PoolSize
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaults.DialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaults.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	return c
}

// Validate validates the configuration
func (c *RedisConfig) Validate() error {
	if c.URL == "" && c.Addr == "" {
		return ErrInvalidConfig("url or addr is required")
	}
	if c.URL != "" {
		if _, err := redis.ParseURL(c.URL); err != nil {
			return ErrInvalidConfig(fmt.Sprintf("url: %v", err))
		}
	}
	if c.DB < 0 {
		return ErrInvalidConfig("db must be >= 0")
	}
	if c.PoolSize < 0 {
		return ErrInvalidConfig("pool_size must be >= 0")
	}
	if c.MinIdleConns < 0 {
		return ErrInvalidConfig("min_idle_conns must be >= 0")
	}
	if c.MaxRetries < -1 {
		return ErrInvalidConfig("max_retries must be >= -1")
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return ErrInvalidConfig("timeouts must be >= 0")
	}
	return nil
}

// Options converts the configuration into go-redis options.
// It assumes Validate has passed.
func (c *RedisConfig) Options() *redis.Options {
	opts := &redis.Options{
		Addr:     c.Addr,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
	}
	if c.URL != "" {
		if parsed, err := redis.ParseURL(c.URL); err == nil {
			opts = parsed
		}
	}
	opts.PoolSize = c.PoolSize
	opts.MinIdleConns = c.MinIdleConns
	opts.MaxRetries = c.MaxRetries
	opts.DialTimeout = c.DialTimeout
	opts.ReadTimeout = c.ReadTimeout
	opts.WriteTimeout = c.WriteTimeout
	return opts
}
