// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultBaseURL = "https://api.twelvedata.com"
	// DefaultRequestsPerMinute matches the free plan's limit.
	DefaultRequestsPerMinute = 8
)

// Config holds configuration for the Twelve Data API client.
type Config struct {
	TwelveDataAPIKey  string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// LoadConfig loads Twelve Data configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		TwelveDataAPIKey:  os.Getenv("TWELVE_DATA_API_KEY"),
		BaseURL:           os.Getenv("TWELVE_DATA_BASE_URL"),
		Timeout:           10 * time.Second,
		RequestsPerMinute: DefaultRequestsPerMinute,
	}
	if n, err := strconv.Atoi(os.Getenv("TWELVE_DATA_RPM")); err == nil && n > 0 {
		cfg.RequestsPerMinute = n
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = DefaultRequestsPerMinute
	}
	return c
}
