package coingecko

import (
	"net/url"
	"time"
)

// API key kinds accepted by CoinGecko
const (
	KeyTypeDemo = "demo"
	KeyTypePro  = "pro"
)

const (
	// DefaultBaseURL is the public v3 API
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	// DefaultProBaseURL is used when a pro key is configured without a base URL
	DefaultProBaseURL = "https://pro-api.coingecko.com/api/v3"
)

// Config holds the CoinGecko client configuration
type Config struct {
	// BaseURL of the v3 REST API
	BaseURL string `mapstructure:"base_url"`

	// APIKey is sent in the header selected by APIKeyType; empty sends none
	APIKey string `mapstructure:"api_key"`

	// APIKeyType is "demo" (x-cg-demo-api-key) or "pro" (x-cg-pro-api-key)
	APIKeyType string `mapstructure:"api_key_type"`

	// Timeout bounds every single HTTP attempt
	Timeout time.Duration `mapstructure:"timeout"`

	// RetryMax is the number of retries for 429 and 5xx responses
	RetryMax int `mapstructure:"retry_max"`

	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`

	// MarketsPerPage is the page size of category listings (max 250)
	MarketsPerPage int `mapstructure:"markets_per_page"`
}

// DefaultConfig returns the default client configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		APIKeyType:     KeyTypeDemo,
		Timeout:        5 * time.Second,
		RetryMax:       1,
		RetryWaitMin:   200 * time.Millisecond,
		RetryWaitMax:   time.Second,
		MarketsPerPage: 250,
	}
}

// MergeDefaults fills zero values with defaults
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.APIKeyType == "" {
		c.APIKeyType = defaults.APIKeyType
	}
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
		if c.APIKeyType == KeyTypePro {
			c.BaseURL = DefaultProBaseURL
		}
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = defaults.RetryWaitMin
	}
	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = defaults.RetryWaitMax
	}
	if c.MarketsPerPage == 0 {
		c.MarketsPerPage = defaults.MarketsPerPage
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidConfig("base_url must be an absolute URL")
	}
	if c.APIKeyType != KeyTypeDemo && c.APIKeyType != KeyTypePro {
		return ErrInvalidConfig("api_key_type must be demo or pro")
	}
	if c.Timeout <= 0 {
		return ErrInvalidConfig("timeout must be positive")
	}
	if c.RetryMax < 0 {
		return ErrInvalidConfig("retry_max must be non-negative")
	}
	if c.RetryWaitMin > c.RetryWaitMax {
		return ErrInvalidConfig("retry_wait_min must not exceed retry_wait_max")
	}
	if c.MarketsPerPage < 1 || c.MarketsPerPage > 250 {
		return ErrInvalidConfig("markets_per_page must be within 1..250")
	}
	return nil
}

func (c *Config) keyHeader() string {
	if c.APIKeyType == KeyTypePro {
		return "x-cg-pro-api-key"
	}
	return "x-cg-demo-api-key"
}
