// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/feedloom/config.yaml",
	"/etc/feedloom/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces Feedloom's environment variables.
const envPrefix = "FEEDLOOM_"

// Load builds the configuration from three layers:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file, if one exists
//  3. Environment variables: FEEDLOOM_* overrides any setting
//
// Precedence is ENV > file > defaults. The result is validated before
// being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file that exists, checking the
// CONFIG_PATH override before the default search paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as environment variable strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. YAML-sourced values are already slices and are left
// alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps FEEDLOOM_* variable names (prefix stripped,
// lowercased) to config paths. Unmapped variables are ignored so stray
// environment does not pollute the config.
var envMappings = map[string]string{
	// Server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"environment":         "server.environment",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Upstream
	"upstream_seed": "upstream.seed",

	// KV store
	"kv_backend": "kv.backend",
	"kv_path":    "kv.path",

	// Events
	"events_enabled":            "events.enabled",
	"events_transport":          "events.transport",
	"nats_url":                  "events.nats.url",
	"nats_max_reconnects":       "events.nats.max_reconnects",
	"nats_reconnect_wait":       "events.nats.reconnect_wait",
	"nats_embedded":             "events.nats.embedded.enabled",
	"nats_store_dir":            "events.nats.embedded.store_dir",
	"breaker_enabled":           "events.breaker.enabled",
	"breaker_failure_threshold": "events.breaker.failure_threshold",
	"breaker_timeout":           "events.breaker.timeout",
	"breaker_max_requests":      "events.breaker.max_requests",

	// Feed engine
	"algorithm_id":      "feed.algorithm_id",
	"default_limit":     "feed.limits.default_limit",
	"max_limit":         "feed.limits.max_limit",
	"max_candidates":    "feed.limits.max_candidates",
	"oversample_factor": "feed.limits.oversample_factor",
	"history_lookback":  "feed.limits.history_lookback_days",

	// Scoring
	"recency_half_life":    "feed.scoring.recency_half_life",
	"popularity_half_life": "feed.scoring.popularity_half_life",
	"scoring_chunk_size":   "feed.scoring.chunk_size",

	// Diversity
	"diversity_enabled": "feed.diversity.enabled",
	"max_per_author":    "feed.diversity.max_per_author",
	"max_per_topic":     "feed.diversity.max_per_topic",
	"author_spacing":    "feed.diversity.author_spacing",

	// Cold start
	"coldstart_new_user_days":   "feed.cold_start.new_user_threshold_days",
	"coldstart_min_engagements": "feed.cold_start.min_engagement_actions",
	"coldstart_trending_weight": "feed.cold_start.trending_weight",

	// Experiments
	"experiments_enabled": "feed.experiments.enabled",
	"experiment_salt":     "feed.experiments.salt",

	// Cache
	"cache_enabled":      "feed.cache.enabled",
	"cache_max_entries":  "feed.cache.max_entries",
	"preferences_ttl":    "feed.cache.preferences_ttl",
	"popularity_ttl":     "feed.cache.popularity_ttl",
	"prewarm_interval":   "feed.cache.prewarm_interval",
	"prewarm_batch_size": "feed.cache.prewarm_batch_size",
	"prewarm_rate":       "feed.cache.prewarm_rate",
}

// envTransformFunc maps a FEEDLOOM_* environment variable name to its
// koanf config path, or "" to skip it.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
