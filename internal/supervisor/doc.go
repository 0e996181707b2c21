// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package supervisor provides process supervision for Feedloom using suture v4.

This package implements a hierarchical supervisor tree that manages the lifecycle
of all long-running services in the application. It provides Erlang/OTP-style
supervision with automatic restart, failure isolation, and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("feedloom")
	├── CacheSupervisor ("cache-layer")
	│   └── PrewarmService (background feed prewarming + TTL sweeps)
	├── MessagingSupervisor ("messaging-layer")
	│   └── MetricRelay (experiment metric consumer)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A crash in the metric relay doesn't affect feed serving
  - Prewarmer failures don't impact API availability
  - Each layer can restart independently

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Services are organized into logical groups
  - Child supervisor failures don't propagate upward
  - Each layer has independent failure counting

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs service starts, stops, failures, and restarts
  - Event hooks via sutureslog adapter

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/tomtom215/feedloom/internal/logging"
	    "github.com/tomtom215/feedloom/internal/supervisor"
	    "github.com/tomtom215/feedloom/internal/supervisor/services"
	)

	func run(ctx context.Context) error {
	    tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	    if err != nil {
	        return err
	    }

	    tree.AddCacheService(services.NewPrewarmService(prewarmer, logger))
	    tree.AddMessagingService(relay)
	    tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	    return tree.Serve(ctx)
	}

# Error Semantics

A service returning nil stops cleanly and is not restarted. Any other
return value counts as a failure and triggers a restart, subject to the
configured threshold and backoff. Returning ctx.Err() after cancellation
is the normal shutdown path.

# See Also

  - internal/supervisor/services: suture.Service wrappers for components
  - github.com/thejerf/suture/v4: Underlying supervision library
*/
package supervisor
