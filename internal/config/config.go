// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package config loads and validates the application configuration from
// layered sources: built-in defaults, an optional YAML file, and
// FEEDLOOM_* environment variables, in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/feedloom/internal/events"
	"github.com/tomtom215/feedloom/internal/feed"
)

// Config is the root application configuration.
type Config struct {
	// Server configures the ops HTTP surface.
	Server ServerConfig `koanf:"server" json:"server"`

	// Logging configures the global logger.
	Logging LoggingConfig `koanf:"logging" json:"logging"`

	// Upstream configures the seeded in-memory providers.
	Upstream UpstreamConfig `koanf:"upstream" json:"upstream"`

	// KV selects the key-value store backing experiment assignments.
	KV KVConfig `koanf:"kv" json:"kv"`

	// Events configures the experiment metric sink.
	Events events.Config `koanf:"events" json:"events"`

	// Feed is the feed engine configuration.
	//
	// Map-valued sections (weights, cache.feed_ttl,
	// diversity.type_distribution) and the experiment list override
	// wholesale from file or environment, not per key.
	Feed feed.Config `koanf:"feed" json:"feed"`
}

// ServerConfig contains the ops HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	// Default: 0.0.0.0
	Host string `koanf:"host" json:"host"`

	// Port is the listen port.
	// Default: 8080
	Port int `koanf:"port" json:"port"`

	// Timeout bounds request read and write time.
	// Default: 30s
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`

	// Environment is "development" or "production".
	// Default: development
	Environment string `koanf:"environment" json:"environment"`

	// CORSOrigins lists allowed CORS origins.
	// Default: ["*"]
	CORSOrigins []string `koanf:"cors_origins" json:"cors_origins"`

	// RateLimitReqs is the per-client request budget per window.
	// Default: 100
	RateLimitReqs int `koanf:"rate_limit_reqs" json:"rate_limit_reqs"`

	// RateLimitWindow is the rate limit window.
	// Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window" json:"rate_limit_window"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" json:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" json:"format"`

	// Caller includes caller file:line in log events.
	// Default: false
	Caller bool `koanf:"caller" json:"caller"`
}

// UpstreamConfig configures the seeded in-memory candidate, preference,
// history, and context providers the standalone server runs against.
type UpstreamConfig struct {
	// Seed selects the deterministic demo corpus. The same seed always
	// produces the same content, users, and engagement history.
	// Default: 42
	Seed int64 `koanf:"seed" json:"seed"`
}

// KVConfig selects the store for experiment assignment memoization.
type KVConfig struct {
	// Backend is "memory" or "badger".
	// Default: memory
	Backend string `koanf:"backend" json:"backend"`

	// Path is the Badger data directory, used when Backend is "badger".
	// Default: /data/feedloom/kv
	Path string `koanf:"path" json:"path"`
}

// defaultConfig returns a Config with every default applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Upstream: UpstreamConfig{
			Seed: 42,
		},
		KV: KVConfig{
			Backend: "memory",
			Path:    "/data/feedloom/kv",
		},
		Events: events.DefaultConfig(),
		Feed:   *feed.DefaultConfig(),
	}
}

// Validate checks the configuration for values that would break startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}
	if c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("server.rate_limit_reqs must be positive, got %d", c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive, got %v", c.Server.RateLimitWindow)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be trace, debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	switch c.KV.Backend {
	case "memory":
	case "badger":
		if c.KV.Path == "" {
			return fmt.Errorf("kv.path is required when kv.backend is badger")
		}
	default:
		return fmt.Errorf("kv.backend must be memory or badger, got %q", c.KV.Backend)
	}

	if c.Events.Transport != "channel" && c.Events.Transport != "nats" {
		return fmt.Errorf("events.transport must be channel or nats, got %q", c.Events.Transport)
	}

	if err := c.Feed.Validate(); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	return nil
}
