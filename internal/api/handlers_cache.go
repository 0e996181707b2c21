// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/tomtom215/feedloom/internal/feed"
	"github.com/tomtom215/feedloom/internal/logging"
)

// CacheStats handles GET /api/v1/feed/cache/stats.
// Returns hit, miss, and eviction counters per cache category plus the
// current entry count.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.cache == nil {
		rw.NotFound("Feed cache is not configured")
		return
	}

	rw.Success(h.cache.Stats())
}

// CacheInvalidate handles POST /api/v1/feed/cache/invalidate.
// Drops cached feeds for a user. With a feed_type in the body only that
// surface is dropped; without one, every cached feed for the user goes.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.cache == nil {
		rw.NotFound("Feed cache is not configured")
		return
	}

	var params InvalidateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	params.FeedType = normalizeFeedType(params.FeedType)
	if apiErr := validateRequest(&params); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	var invalidated int
	if params.FeedType != "" {
		if h.cache.InvalidateFeed(r.Context(), params.UserID, feed.FeedType(params.FeedType)) {
			invalidated = 1
		}
	} else {
		invalidated = h.cache.InvalidateUser(r.Context(), params.UserID)
	}

	logging.Ctx(r.Context()).Info().
		Str("user_id", params.UserID).
		Str("feed_type", params.FeedType).
		Int("invalidated", invalidated).
		Msg("Cache invalidation requested")

	rw.Success(map[string]interface{}{
		"user_id":     params.UserID,
		"invalidated": invalidated,
	})
}

// CacheSweep handles POST /api/v1/feed/cache/sweep.
// Synchronously removes expired entries and reports how many were dropped.
// The cache also evicts lazily on read; this exists for operators who want
// memory back immediately.
func (h *Handler) CacheSweep(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.cache == nil {
		rw.NotFound("Feed cache is not configured")
		return
	}

	removed := h.cache.Sweep()

	rw.Success(map[string]interface{}{
		"removed": removed,
	})
}
