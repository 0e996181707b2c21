// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/feedloom/internal/kvstore"
)

// HealthStatus is the full health report returned by GET /health.
type HealthStatus struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`

	// Version is the running build version.
	Version string `json:"version"`

	// Uptime is seconds since the handler was constructed.
	Uptime float64 `json:"uptime"`

	// KVConnected reports whether the key-value backend responds.
	KVConnected bool `json:"kv_connected"`

	// CacheEntries is the current feed cache entry count, -1 when the
	// cache is not configured.
	CacheEntries int `json:"cache_entries"`

	// ExperimentsEnabled reports whether experiment evaluation is on.
	ExperimentsEnabled bool `json:"experiments_enabled"`
}

// kvConnected probes the key-value backend with a read. A missing key still
// proves the backend responds.
func (h *Handler) kvConnected(ctx context.Context) bool {
	if h.kv == nil {
		return false
	}
	_, err := h.kv.Get(ctx, "health/probe")
	return err == nil || errors.Is(err, kvstore.ErrNotFound)
}

// Health handles GET /api/v1/health.
// Returns comprehensive component status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kvConnected := h.kvConnected(r.Context())

	status := "healthy"
	if h.engine == nil || !kvConnected {
		status = "degraded"
	}

	cacheEntries := -1
	if h.cache != nil {
		cacheEntries = h.cache.Stats().Entries
	}

	experimentsEnabled := h.cfg != nil && h.cfg.Experiments.Enabled

	rw.Success(HealthStatus{
		Status:             status,
		Version:            Version,
		Uptime:             time.Since(h.startTime).Seconds(),
		KVConnected:        kvConnected,
		CacheEntries:       cacheEntries,
		ExperimentsEnabled: experimentsEnabled,
	})
}

// HealthLive handles GET /api/v1/health/live (Kubernetes-style liveness).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready (Kubernetes-style readiness).
// Returns 200 OK only when the engine is wired and the key-value backend
// responds; 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kvConnected := h.kvConnected(r.Context())
	ready := h.engine != nil && kvConnected

	payload := map[string]interface{}{
		"engine_ready":   h.engine != nil,
		"kv_connected":   kvConnected,
		"ready_to_serve": ready,
		"uptime":         time.Since(h.startTime).Seconds(),
	}

	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", payload)
		return
	}

	rw.Success(payload)
}
