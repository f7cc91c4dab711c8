// Package config provides the configuration schema for taskdeck.
//
// Configuration is file-based (taskdeck.yaml) with environment variable
// overrides. The schema is intentionally small: a listener, token
// lifetimes, a storage backend, and rate limiting for the credential
// endpoints.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for the taskdeck server.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Auth configures token signing and lifetimes.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Storage selects and configures the persistence backend.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// RateLimit configures per-IP rate limiting on the credential
	// endpoints (register, login, refresh).
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// DevMode enables development defaults (debug logging, a fixed
	// JWT secret). Never enable in production.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
// TLS is out of scope; terminate it at a reverse proxy.
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g., "127.0.0.1:8080").
	// Defaults to "127.0.0.1:8080" (localhost only) if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// ShutdownTimeout is how long to wait for in-flight requests on
	// shutdown (e.g., "10s"). Defaults to "10s".
	ShutdownTimeout string `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"omitempty,duration"`
}

// AuthConfig configures token signing and session lifetimes.
type AuthConfig struct {
	// JWTSecret signs access tokens (HS256). Required outside dev
	// mode; must be at least 16 characters.
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret" validate:"omitempty,min=16"`

	// AccessTokenTTL is the access token lifetime (e.g., "15m").
	// Defaults to "15m".
	AccessTokenTTL string `yaml:"access_token_ttl" mapstructure:"access_token_ttl" validate:"omitempty,duration"`

	// RefreshTokenTTL is the refresh token / session lifetime
	// (e.g., "168h" for a week). Defaults to "168h".
	RefreshTokenTTL string `yaml:"refresh_token_ttl" mapstructure:"refresh_token_ttl" validate:"omitempty,duration"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "memory" or "sqlite". Defaults to "memory".
	// The memory driver loses all data on restart.
	Driver string `yaml:"driver" mapstructure:"driver" validate:"omitempty,oneof=memory sqlite"`

	// Path is the SQLite database file. Required when driver is
	// "sqlite"; ignored otherwise.
	Path string `yaml:"path" mapstructure:"path"`
}

// RateLimitConfig configures credential endpoint rate limiting.
type RateLimitConfig struct {
	// Enabled turns rate limiting on or off. Defaults to on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// PerMinute is the maximum credential requests per minute per IP.
	// Defaults to 10.
	PerMinute int `yaml:"per_minute" mapstructure:"per_minute" validate:"omitempty,min=1"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	// Bind to localhost only. Users who need network access must set
	// http_addr: ":8080" or "0.0.0.0:8080" explicitly.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Auth.AccessTokenTTL == "" {
		c.Auth.AccessTokenTTL = "15m"
	}
	if c.Auth.RefreshTokenTTL == "" {
		c.Auth.RefreshTokenTTL = "168h"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}

	// Rate limiting defaults on. viper.IsSet distinguishes "not set"
	// from "explicitly false".
	if !viper.IsSet("rate_limit.enabled") {
		c.RateLimit.Enabled = true
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 10
	}
}

// SetDevDefaults applies permissive defaults for development mode.
// These are applied BEFORE validation so required fields are satisfied.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}

	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "dev-secret-do-not-use-in-production"
	}
	c.Server.LogLevel = "debug"
}

// The duration accessors assume Validate has run; they fall back to the
// stated defaults on a parse failure rather than guessing.

// AccessTokenTTL returns the parsed access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return parseDurationOr(c.Auth.AccessTokenTTL, 15*time.Minute)
}

// RefreshTokenTTL returns the parsed refresh token lifetime.
func (c *Config) RefreshTokenTTL() time.Duration {
	return parseDurationOr(c.Auth.RefreshTokenTTL, 168*time.Hour)
}

// ShutdownTimeout returns the parsed shutdown grace period.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDurationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
