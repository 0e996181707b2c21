// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/feedloom/internal/api"
	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/events"
	"github.com/tomtom215/feedloom/internal/feed"
	feedcache "github.com/tomtom215/feedloom/internal/feed/cache"
	"github.com/tomtom215/feedloom/internal/feed/coldstart"
	"github.com/tomtom215/feedloom/internal/feed/diversity"
	"github.com/tomtom215/feedloom/internal/feed/experiment"
	"github.com/tomtom215/feedloom/internal/feed/scoring"
	"github.com/tomtom215/feedloom/internal/kvstore"
	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/supervisor"
	"github.com/tomtom215/feedloom/internal/supervisor/services"
	"github.com/tomtom215/feedloom/internal/upstream"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().Msg("Starting Feedloom with supervisor tree")

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("kv_backend", cfg.KV.Backend).
		Str("events_transport", cfg.Events.Transport).
		Int64("upstream_seed", cfg.Upstream.Seed).
		Msg("Configuration loaded")

	// Open the experiment assignment store (memory or BadgerDB)
	kv, err := openKVStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open key-value store")
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing key-value store")
		}
	}()

	// Build the experiment metric sink for the configured transport.
	// The subscriber is non-nil only for the in-process channel transport.
	sink, subscriber, err := buildSink(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build experiment metric sink")
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing metric sink")
		}
	}()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seeded in-memory providers: candidates, preferences, history, contexts
	store := upstream.NewStore(cfg.Upstream.Seed, logging.Component("upstream"))

	// Feed cache and the caching candidate source in front of the store
	cacheManager := feedcache.NewManager(cfg.Feed.Cache, logging.Component("cache"))
	source := feedcache.NewCachingSource(store, cacheManager, logging.Component("cache"))

	// Deterministic experiment assigner backed by the KV store
	assigner := experiment.NewAssigner(cfg.Feed.Experiments, kv, logging.Component("experiment"))

	// Assemble the feed engine from its collaborators
	engine, err := feed.NewEngine(&cfg.Feed, feed.Deps{
		Source:    source,
		Prefs:     store,
		History:   store,
		Contexts:  store,
		Scorer:    scoring.NewEngine(&cfg.Feed),
		Diversity: diversity.NewEnforcer(cfg.Feed.Diversity),
		ColdStart: coldstart.NewStrategy(cfg.Feed.ColdStart, cfg.Feed.Limits, source, logging.Component("coldstart")),
		Assigner:  assigner,
		Cache:     cacheManager,
		Sink:      sink,
	}, logging.Component("engine"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create feed engine")
	}
	logging.Info().Msg("Feed engine initialized successfully")

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	// Create supervisor tree
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Cache layer services
	if cfg.Feed.Cache.Enabled {
		prewarmer := feedcache.NewPrewarmer(cfg.Feed.Cache, cacheManager, engine, store, logging.Component("prewarm"))
		tree.AddCacheService(services.NewPrewarmService(prewarmer, logging.Component("prewarm")))
		logging.Info().Msg("Cache prewarmer added to supervisor tree")
	}

	// Messaging layer services
	if subscriber != nil {
		tree.AddMessagingService(events.NewMetricRelay(subscriber, logging.Component("events")))
		logging.Info().Msg("Experiment metric relay added to supervisor tree")
	}

	// HTTP server with Chi router and middleware stack
	handler := api.NewHandler(engine, cacheManager, assigner, kv, &cfg.Feed)
	router := api.NewRouter(handler, &api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// openKVStore opens the experiment assignment store selected by the KV
// backend setting. The memory backend loses assignments on restart, which
// is acceptable because bucketing is deterministic and re-derivable.
func openKVStore(cfg *config.Config) (kvstore.Store, error) {
	switch cfg.KV.Backend {
	case "badger":
		store, err := kvstore.OpenBadger(cfg.KV.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger store at %s: %w", cfg.KV.Path, err)
		}
		logging.Info().Str("path", cfg.KV.Path).Msg("BadgerDB assignment store opened")
		return store, nil
	default:
		logging.Info().Msg("Using in-memory assignment store")
		return kvstore.NewMemoryStore(), nil
	}
}

// buildSink constructs the experiment metric sink for the configured
// transport. The returned subscriber is non-nil only for the in-process
// channel transport, where the caller must run a metric relay to drain it.
// The NATS transport requires a binary built with -tags nats; without the
// tag the constructor returns a descriptive error.
func buildSink(cfg *config.Config) (events.Sink, message.Subscriber, error) {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Experiment metric publishing disabled")
		return events.NopSink{}, nil, nil
	}

	switch cfg.Events.Transport {
	case "nats":
		pub, err := events.NewNATSSink(cfg.Events, logging.Component("events"))
		if err != nil {
			return nil, nil, fmt.Errorf("nats metric sink: %w", err)
		}
		logging.Info().Str("url", cfg.Events.NATS.URL).Msg("NATS metric sink connected")
		return pub, nil, nil
	default:
		pub, sub := events.NewChannelSink(cfg.Events.Breaker, logging.Component("events"))
		logging.Info().Msg("In-process channel metric sink ready")
		return pub, sub, nil
	}
}
