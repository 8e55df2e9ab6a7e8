// Package config provides configuration loading and validation.
package config

import (
	"github.com/openregistry/registry-go/internal/store"
)

// Config holds the server configuration.
type Config struct {
	// ListenAddr is the address to listen on. Example: ":8888"
	ListenAddr string `json:"listen_addr"`

	// LogLevel is one of: debug, info, warn, error.
	LogLevel string `json:"log_level"`

	// Store selects and configures the persistence driver.
	Store store.DriverConfig `json:"store"`

	// Index configures the index-publication collaborator client.
	Index IndexConfig `json:"index"`

	// Teams configures the team-membership directory.
	Teams TeamsConfig `json:"teams"`

	// RateLimit configures per-client API rate limiting.
	RateLimit RateLimitConfig `json:"ratelimit"`
}

// IndexConfig holds settings for the index-publication client. A raw
// [index] TOML section is decoded into this via mapstructure.
type IndexConfig struct {
	// BaseURL is the index service root. Empty disables outbound
	// notifications (yank flips still succeed, logged only).
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// TimeoutMS bounds each notify call in milliseconds.
	TimeoutMS int `json:"timeout_ms" mapstructure:"timeout_ms"`

	// TripThreshold is the consecutive-failure count that opens the
	// client's circuit breaker.
	TripThreshold int64 `json:"trip_threshold" mapstructure:"trip_threshold"`
}

// ApplyDefaults fills in unset index client settings.
func (c *IndexConfig) ApplyDefaults() {
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 10000
	}
	if c.TripThreshold <= 0 {
		c.TripThreshold = 5
	}
}

// RateLimitConfig holds per-client rate limiting settings. A raw
// [ratelimit] TOML section is decoded into this via mapstructure.
type RateLimitConfig struct {
	// Enabled turns the limiter on. Defaults to true.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// RequestsPerWindow is the per-client quota within one window.
	RequestsPerWindow int64 `json:"requests_per_window" mapstructure:"requests_per_window"`

	// WindowMS is the counting window in milliseconds.
	WindowMS int `json:"window_ms" mapstructure:"window_ms"`
}

// ApplyDefaults fills in unset rate limiter settings.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.RequestsPerWindow <= 0 {
		c.RequestsPerWindow = 300
	}
	if c.WindowMS <= 0 {
		c.WindowMS = 60000
	}
}

// TeamsConfig holds the team-membership directory settings. The
// [teams.static] TOML section maps team logins to member user logins.
type TeamsConfig struct {
	Static map[string][]string `json:"static" mapstructure:"static"`
}

// DefaultConfig returns a Config with sensible defaults for local
// development.
func DefaultConfig() *Config {
	cfg := &Config{
		ListenAddr: ":8888",
		LogLevel:   "info",
		Store: store.DriverConfig{
			Driver:  "memory",
			DataDir: "./data",
		},
	}
	cfg.Index.ApplyDefaults()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.ApplyDefaults()
	return cfg
}
