package render

import (
	"fmt"
	"strings"
)

// Config holds the card layout
type Config struct {
	Width      int     `mapstructure:"width"`
	Height     int     `mapstructure:"height"`
	Padding    float64 `mapstructure:"padding"`
	Background string  `mapstructure:"background"`
	Foreground string  `mapstructure:"foreground"`
	Muted      string  `mapstructure:"muted"`
	Accent     string  `mapstructure:"accent"`
	LineWidth  float64 `mapstructure:"line_width"`
	// Footer is drawn bottom-left; empty draws nothing
	Footer string `mapstructure:"footer"`
}

// DefaultConfig returns a 1200x630 dark card
func DefaultConfig() *Config {
	return &Config{
		Width:      1200,
		Height:     630,
		Padding:    48,
		Background: "#0b0d10",
		Foreground: "#ffffff",
		Muted:      "#9ca3af",
		Accent:     "#22d3ee",
		LineWidth:  6,
		Footer:     "Data: CoinGecko",
	}
}

// MergeDefaults fills zero values with defaults
func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.Padding == 0 {
		c.Padding = d.Padding
	}
	if c.Background == "" {
		c.Background = d.Background
	}
	if c.Foreground == "" {
		c.Foreground = d.Foreground
	}
	if c.Muted == "" {
		c.Muted = d.Muted
	}
	if c.Accent == "" {
		c.Accent = d.Accent
	}
	if c.LineWidth == 0 {
		c.LineWidth = d.LineWidth
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Width < 400 || c.Height < 300 {
		return ErrInvalidConfig(fmt.Sprintf("size %dx%d is below 400x300", c.Width, c.Height))
	}
	if c.Padding < 0 || c.Padding*2 >= float64(c.Width) {
		return ErrInvalidConfig("padding does not fit the card")
	}
	for name, v := range map[string]string{
		"background": c.Background,
		"foreground": c.Foreground,
		"muted":      c.Muted,
		"accent":     c.Accent,
	} {
		if !isHexColor(v) {
			return ErrInvalidConfig(fmt.Sprintf("%s %q is not a #rrggbb color", name, v))
		}
	}
	if c.LineWidth <= 0 {
		return ErrInvalidConfig("line_width must be positive")
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	return strings.Trim(strings.ToLower(s[1:]), "0123456789abcdef") == ""
}
