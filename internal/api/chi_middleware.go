// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package api provides Chi middleware factories for production-hardened middleware.
package api

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		CORSAllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: false,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
// This uses production-hardened implementations from the Chi ecosystem.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns a Chi-compatible CORS middleware using go-chi/cors.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP rate limiting middleware using go-chi/httprate.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitConfig{
		Requests: m.config.RateLimitRequests,
		Window:   m.config.RateLimitWindow,
	})
}

// RateLimitConfig defines rate limit parameters for specific endpoint groups.
type RateLimitConfig struct {
	// Requests is the number of requests allowed in the window
	Requests int
	// Window is the time window for rate limiting
	Window time.Duration
}

// Endpoint-group rate limit configurations.
var (
	// RateLimitFeed is permissive for the feed generation hot path.
	// Clients poll feeds frequently; cached responses make this cheap.
	RateLimitFeed = RateLimitConfig{Requests: 600, Window: time.Minute}

	// RateLimitWrite is moderate limiting for cache mutation endpoints.
	RateLimitWrite = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitHealth is permissive rate limiting for health endpoints.
	// Monitoring tools probe frequently.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimitCustom returns a per-IP rate limiter with custom configuration.
func (m *ChiMiddleware) RateLimitCustom(config RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// RateLimitFeed returns a rate limiter for feed generation endpoints.
func (m *ChiMiddleware) RateLimitFeed() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitFeed)
}

// RateLimitWrite returns a rate limiter for cache mutation endpoints.
func (m *ChiMiddleware) RateLimitWrite() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitWrite)
}

// RateLimitHealth returns a rate limiter for health endpoints.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// RequestIDWithLogging returns a middleware that adds request ID to the context
// and integrates with the logging package for distributed tracing.
// This wraps chi's RequestID middleware and adds correlation_id and request_id
// to the logging context, enabling structured logging with request tracing.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				// chi would generate one, but the logging context needs it
				// before chi runs, so generate it here and let chi reuse it.
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithNewCorrelationID(ctx)

			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APISecurityHeaders returns a middleware that adds security headers to API responses.
//
// Headers added:
//   - X-Content-Type-Options: nosniff (prevents MIME type sniffing)
//   - X-Frame-Options: DENY (prevents clickjacking)
//   - Referrer-Policy: strict-origin-when-cross-origin (limits referrer information)
//
// HSTS is added conditionally when the request is over HTTPS.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// X-Forwarded-Proto covers TLS-terminating reverse proxy setups
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PrometheusMetrics returns a middleware that records request metrics for
// every API request: total count, duration histogram, and in-flight gauge.
func PrometheusMetrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metrics.TrackActiveRequest(true)
			defer metrics.TrackActiveRequest(false)

			start := time.Now()

			wrapper := &statusResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapper, r)

			metrics.RecordAPIRequest(
				r.Method,
				r.URL.Path,
				strconv.Itoa(wrapper.statusCode),
				time.Since(start),
			)
		})
	}
}

// statusResponseWriter wraps http.ResponseWriter to capture the status code.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and calls the underlying WriteHeader.
func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
