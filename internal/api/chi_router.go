// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package api provides HTTP routing using Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router around the given handler. A nil middleware
// config uses the secure defaults.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // Add X-Request-ID header with logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Unmatched routes still answer in the envelope format.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so monitors can probe frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Feed Endpoints
	// ========================
	r.Route("/api/v1/feed", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		// Generation is the hot path and gets its own permissive limit.
		r.With(router.chiMiddleware.RateLimitFeed()).Get("/", router.handler.Feed)

		r.With(router.chiMiddleware.RateLimit()).Get("/types", router.handler.FeedTypes)
		r.With(router.chiMiddleware.RateLimit()).Get("/config", router.handler.FeedConfig)

		r.Route("/cache", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimit()).Get("/stats", router.handler.CacheStats)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/invalidate", router.handler.CacheInvalidate)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/sweep", router.handler.CacheSweep)
		})
	})

	// ========================
	// Experiment Endpoints
	// ========================
	r.Route("/api/v1/experiments", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())
		r.Get("/", router.handler.Experiments)
		r.Get("/assignment", router.handler.ExperimentAssignment)
	})

	// ========================
	// Prometheus Metrics
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
