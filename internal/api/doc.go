// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package api provides the HTTP REST API layer for Feedloom.

This package implements the operational endpoints for feed generation, cache
management, experiment inspection, and health monitoring. It is the primary
interface between feed consumers and the ranking engine.

Key Components:

  - Router: Chi route configuration and middleware stack integration
  - Handler: Request handlers for all API endpoints
  - Response formatting: Standardized JSON responses with metadata
  - Error handling: Consistent error responses with appropriate HTTP status codes
  - Rate limiting: Per-IP token bucket limits tuned per endpoint group
  - CORS: Cross-Origin Resource Sharing for frontend compatibility

API Categories:

1. Feed Endpoints (/api/v1/feed):
  - Feed generation (GET /feed) with per-request cache bypass
  - Feed surface discovery (GET /feed/types)
  - Ranking configuration inspection (GET /feed/config)

2. Cache Endpoints (/api/v1/feed/cache):
  - Cache statistics (GET /cache/stats)
  - Invalidation of a user's cached feeds (POST /cache/invalidate)
  - Expired-entry sweep (POST /cache/sweep)

3. Experiment Endpoints (/api/v1/experiments):
  - Configured experiment listing (GET /experiments)
  - Deterministic assignment lookup (GET /experiments/assignment)

4. Health Endpoints (/api/v1/health):
  - Liveness probe (GET /health/live)
  - Readiness probe (GET /health/ready)
  - Full component status (GET /health)

5. Metrics (/metrics):
  - Prometheus metrics in the default registry exposition format

Usage Example:

	import (
	    "github.com/tomtom215/feedloom/internal/api"
	    "github.com/tomtom215/feedloom/internal/feed"
	)

	engine, _ := feed.NewEngine(cfg, deps, logger)
	handler := api.NewHandler(engine, manager, assigner, kv, cfg)
	router := api.NewRouter(handler, api.DefaultChiMiddlewareConfig())

	http.ListenAndServe(":8080", router.SetupChi())

Thread Safety:

All handlers are thread-safe and designed for concurrent request handling.
Shared resources (engine, cache manager, key-value store) are protected by
their respective synchronization primitives.
*/
package api
