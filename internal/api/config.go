// Package api provides the HTTP dispatch server: clients list the exposed
// functions and invoke them by name with a JSON parameter object.
package api

import (
	"fmt"
	"net"
	"time"

	"github.com/tphakala/birdnet-mcp/internal/conf"
	"github.com/tphakala/birdnet-mcp/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultBodyLimit caps /invoke request bodies.
	DefaultBodyLimit = "1M"
)

// Config holds the HTTP server configuration.
type Config struct {
	Listen string // host:port

	AllowedOrigins []string // CORS allowed origins
	RateLimit      float64  // requests per second per client, 0 disables

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BodyLimit string // e.g. "1M"

	Debug          bool
	MetricsEnabled bool // serve /metrics
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          conf.DefaultListen,
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       DefaultBodyLimit,
		MetricsEnabled:  true,
	}
}

// ConfigFromSettings creates a Config from the application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()

	if settings.Server.Listen != "" {
		cfg.Listen = settings.Server.Listen
	}
	if len(settings.Server.CORS) > 0 {
		cfg.AllowedOrigins = settings.Server.CORS
	}
	cfg.RateLimit = settings.Server.RateLimit
	cfg.Debug = settings.Server.Debug
	cfg.MetricsEnabled = settings.Metrics.Enabled

	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	return nil
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Server Config: listen=%s, ratelimit=%g, metrics=%v, debug=%v",
		c.Listen, c.RateLimit, c.MetricsEnabled, c.Debug)
}
