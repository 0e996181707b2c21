// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Shared fixtures for API handler tests. Handlers run against a fully wired
// engine over the seeded demo catalog, not mocks, so the tests exercise the
// same path production requests take.
package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/feed"
	feedcache "github.com/tomtom215/feedloom/internal/feed/cache"
	"github.com/tomtom215/feedloom/internal/feed/coldstart"
	"github.com/tomtom215/feedloom/internal/feed/diversity"
	"github.com/tomtom215/feedloom/internal/feed/experiment"
	"github.com/tomtom215/feedloom/internal/feed/scoring"
	"github.com/tomtom215/feedloom/internal/kvstore"
	"github.com/tomtom215/feedloom/internal/upstream"
)

// newTestHandler wires a complete feed pipeline over the seeded demo catalog.
// A nil cfg uses defaults.
func newTestHandler(t *testing.T, cfg *feed.Config) *Handler {
	t.Helper()

	if cfg == nil {
		cfg = feed.DefaultConfig()
	}
	logger := zerolog.Nop()

	store := upstream.NewStore(42, logger)
	manager := feedcache.NewManager(cfg.Cache, logger)
	source := feedcache.NewCachingSource(store, manager, logger)
	kv := kvstore.NewMemoryStore()
	assigner := experiment.NewAssigner(cfg.Experiments, kv, logger)

	engine, err := feed.NewEngine(cfg, feed.Deps{
		Source:    source,
		Prefs:     store,
		History:   store,
		Contexts:  store,
		Scorer:    scoring.NewEngine(cfg),
		Diversity: diversity.NewEnforcer(cfg.Diversity),
		ColdStart: coldstart.NewStrategy(cfg.ColdStart, cfg.Limits, source, logger),
		Assigner:  assigner,
		Cache:     manager,
	}, logger)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	return NewHandler(engine, manager, assigner, kv, cfg)
}

// newTestRouter builds the full routed handler around a test pipeline.
func newTestRouter(t *testing.T, cfg *feed.Config) http.Handler {
	t.Helper()

	router := NewRouter(newTestHandler(t, cfg), &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type"},
		CORSMaxAge:         86400,
		RateLimitRequests:  1000,
		RateLimitWindow:    time.Minute,
	})
	return router.SetupChi()
}

// decodeResponse unmarshals the standard response envelope.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v\nbody: %s", err, w.Body.String())
	}
	return resp
}

// decodeData re-marshals the envelope's Data field into a typed value.
func decodeData(t *testing.T, resp APIResponse, into interface{}) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("Failed to re-marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
}

// doRequest runs one request through the routed handler. An empty body means
// no request body.
func doRequest(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}
