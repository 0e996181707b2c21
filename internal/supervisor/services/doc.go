// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package services provides suture.Service wrappers for Feedloom components.

This package adapts application components to the suture v4 supervision
model, translating their lifecycle patterns (Run, ListenAndServe) into
suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation to the Serve pattern
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Cache Prewarmer (PrewarmService):
  - Wraps the feed cache prewarmer's Run loop
  - Adds lifecycle logging around sweep scheduling
  - A clean context shutdown is not counted as a failure

The experiment metric relay (events.MetricRelay) implements
suture.Service directly and needs no wrapper here.

# Usage Example

	server := &http.Server{Addr: ":8080", Handler: router}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	prewarmer := cache.NewPrewarmer(cfg.Cache, manager, engine, store, logger)
	tree.AddCacheService(services.NewPrewarmService(prewarmer, logger))

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
*/
package services
