// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package main is the entry point for the Feedloom server application.

Feedloom is a feed ranking and personalization engine. It assembles
per-user content feeds from candidate pools, scores them against user
preferences and engagement history, enforces diversity constraints,
handles cold-start users, and runs A/B experiments over scoring weights.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("feedloom")
	├── CacheSupervisor ("cache-layer")
	│   └── Prewarmer (background feed regeneration + TTL sweeps)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Metric Relay (experiment metric consumer, channel transport)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (feed, cache, experiment, health endpoints)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Key-value store: in-memory or BadgerDB (experiment assignments)
 4. Event sink: in-process channel or NATS JetStream (-tags nats)
 5. Feed pipeline: upstream store, cache, scorer, diversity, cold start
 6. Supervisor tree: Suture v4 process supervision
 7. HTTP server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	FEEDLOOM_HTTP_PORT=8080            # HTTP server port
	FEEDLOOM_HTTP_HOST=0.0.0.0         # Bind address
	FEEDLOOM_LOG_LEVEL=info            # trace, debug, info, warn, error
	FEEDLOOM_LOG_FORMAT=json           # json or console

	# Key-value store
	FEEDLOOM_KV_BACKEND=memory         # memory or badger
	FEEDLOOM_KV_PATH=/data/feedloom/kv

	# Event sink
	FEEDLOOM_EVENTS_TRANSPORT=channel  # channel or nats
	FEEDLOOM_NATS_URL=nats://127.0.0.1:4222
	FEEDLOOM_NATS_EMBEDDED=false       # Run an in-process NATS server
	FEEDLOOM_NATS_STORE_DIR=/data/feedloom/jetstream

	# Upstream demo catalog
	FEEDLOOM_UPSTREAM_SEED=42          # Deterministic catalog seed

A YAML config file is discovered at ./config.yaml, ./config.yml, or
/etc/feedloom/config.yaml, overridable with CONFIG_PATH.

# Build Tags

Optional build tags enable additional functionality:

	go build -tags "nats" ./cmd/server   # Enable NATS JetStream metric sink

Without the tag, selecting the nats transport fails at startup with a
clear error instead of silently dropping metrics.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:
  - Stops accepting new connections
  - Waits for in-flight requests to complete (shutdown timeout)
  - Stops the prewarmer and metric relay
  - Closes the key-value store and event sink

# Example Usage

Development with in-memory everything:

	FEEDLOOM_LOG_FORMAT=console ./feedloom

Production with durable assignments and NATS metrics:

	export FEEDLOOM_KV_BACKEND=badger
	export FEEDLOOM_KV_PATH=/data/feedloom/kv
	export FEEDLOOM_EVENTS_TRANSPORT=nats
	export FEEDLOOM_NATS_URL=nats://nats:4222
	./feedloom   # built with -tags nats

Single instance with an embedded NATS server (no external broker):

	export FEEDLOOM_EVENTS_TRANSPORT=nats
	export FEEDLOOM_NATS_EMBEDDED=true
	./feedloom   # built with -tags nats
*/
package main
