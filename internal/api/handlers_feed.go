// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/feedloom/internal/feed"
	"github.com/tomtom215/feedloom/internal/logging"
)

// Feed handles GET /api/v1/feed.
// Generates a ranked, personalized feed for the requested user and surface.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	params := FeedParams{
		UserID:    r.URL.Query().Get("user_id"),
		FeedType:  normalizeFeedType(r.URL.Query().Get("feed_type")),
		Limit:     getIntParam(r, "limit", 0),
		SkipCache: getBoolParam(r, "skip_cache", false),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	req := &feed.FeedRequest{
		UserID:    params.UserID,
		FeedType:  feed.FeedType(params.FeedType),
		Limit:     params.Limit,
		SkipCache: params.SkipCache,
	}

	ctx, cancel := context.WithTimeout(r.Context(), feedTimeout)
	defer cancel()

	result, err := h.engine.Generate(ctx, req)
	if err != nil {
		// Generate only errors on request validation; anything the
		// pre-validation above missed still maps to a 400.
		var verr *feed.ValidationError
		if errors.As(err, &verr) {
			rw.BadRequestWithDetails(verr.Error(), map[string]string{"field": verr.Field})
			return
		}
		logging.CtxErr(ctx, err).Str("user_id", params.UserID).Msg("Feed generation failed")
		rw.Error(http.StatusInternalServerError, ErrCodeGenerationFailed, "Failed to generate feed")
		return
	}

	rw.Success(result)
}

// FeedTypeInfo describes one feed surface for API consumers.
type FeedTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// feedTypeInfoMap contains static feed surface information for clients.
var feedTypeInfoMap = map[feed.FeedType]string{
	feed.FeedHome:      "Primary personalized feed blending followed authors, interests, and discovery",
	feed.FeedDiscover:  "Exploration surface weighted toward content outside the user's network",
	feed.FeedFollowing: "Content from followed authors only, recency-ordered",
	feed.FeedTrending:  "Globally popular content ranked by engagement velocity",
}

// FeedTypes handles GET /api/v1/feed/types.
// Returns the feed surfaces this deployment serves.
func (h *Handler) FeedTypes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	types := feed.FeedTypes()
	infos := make([]FeedTypeInfo, 0, len(types))
	for _, t := range types {
		infos = append(infos, FeedTypeInfo{
			Type:        string(t),
			Description: feedTypeInfoMap[t],
		})
	}

	rw.Success(map[string]interface{}{
		"types": infos,
		"count": len(infos),
	})
}

// FeedConfig handles GET /api/v1/feed/config.
// Returns the active ranking configuration. Read-only: configuration changes
// go through the config file or environment, not the API.
func (h *Handler) FeedConfig(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.cfg == nil {
		rw.NotFound("Ranking configuration is not exposed")
		return
	}

	rw.Success(h.cfg)
}
