// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package events

import "time"

// Config holds event sink configuration.
type Config struct {
	// Enabled controls whether experiment metrics are published at all.
	// Default: true
	Enabled bool `koanf:"enabled" json:"enabled"`

	// Transport selects the sink backend: "channel" (in-process) or "nats"
	// (requires a binary built with -tags=nats).
	// Default: channel
	Transport string `koanf:"transport" json:"transport"`

	// NATS holds NATS connection settings, used when Transport is "nats".
	NATS NATSConfig `koanf:"nats" json:"nats"`

	// Breaker holds circuit breaker settings for the publisher.
	Breaker BreakerConfig `koanf:"breaker" json:"breaker"`
}

// NATSConfig holds NATS connection settings for the metric sink. By
// default the server is external infrastructure that Feedloom only dials;
// single-instance deployments can instead run an embedded server.
type NATSConfig struct {
	// URL is the NATS server connection URL. Ignored when the embedded
	// server is enabled.
	// Default: nats://127.0.0.1:4222
	URL string `koanf:"url" json:"url"`

	// MaxReconnects bounds reconnection attempts (-1 = unlimited).
	// Default: -1
	MaxReconnects int `koanf:"max_reconnects" json:"max_reconnects"`

	// ReconnectWait is the delay between reconnection attempts.
	// Default: 2s
	ReconnectWait time.Duration `koanf:"reconnect_wait" json:"reconnect_wait"`

	// Embedded runs an in-process NATS JetStream server instead of
	// dialing an external one.
	Embedded EmbeddedConfig `koanf:"embedded" json:"embedded"`
}

// EmbeddedConfig holds embedded NATS server settings. The embedded server
// gives single-instance deployments durable JetStream metrics without
// external infrastructure. It still listens on TCP so external consumers
// can subscribe to the metric stream.
type EmbeddedConfig struct {
	// Enabled starts the embedded server with the sink.
	// Default: false
	Enabled bool `koanf:"enabled" json:"enabled"`

	// Host is the embedded server listen address.
	// Default: 127.0.0.1
	Host string `koanf:"host" json:"host"`

	// Port is the embedded server listen port. -1 selects a random port.
	// Default: 4222
	Port int `koanf:"port" json:"port"`

	// StoreDir is the JetStream storage directory.
	// Default: /data/feedloom/jetstream
	StoreDir string `koanf:"store_dir" json:"store_dir"`

	// MaxMemory caps JetStream memory storage in bytes.
	// Default: 1GB
	MaxMemory int64 `koanf:"max_memory" json:"max_memory"`

	// MaxStore caps JetStream disk storage in bytes.
	// Default: 10GB
	MaxStore int64 `koanf:"max_store" json:"max_store"`
}

// BreakerConfig holds circuit breaker settings for publish operations.
type BreakerConfig struct {
	// Enabled turns the breaker on.
	// Default: true
	Enabled bool `koanf:"enabled" json:"enabled"`

	// FailureThreshold is the number of consecutive publish failures
	// before the breaker opens.
	// Default: 5
	FailureThreshold uint32 `koanf:"failure_threshold" json:"failure_threshold"`

	// Timeout is how long the breaker stays open before probing again.
	// Default: 30s
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// MaxRequests is the number of probe requests allowed half-open.
	// Default: 1
	MaxRequests uint32 `koanf:"max_requests" json:"max_requests"`
}

// DefaultConfig returns the default sink configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Transport: "channel",
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			Embedded: EmbeddedConfig{
				Enabled:   false,
				Host:      "127.0.0.1",
				Port:      4222,
				StoreDir:  "/data/feedloom/jetstream",
				MaxMemory: 1 << 30,
				MaxStore:  10 << 30,
			},
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			MaxRequests:      1,
		},
	}
}
