// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"net/http"

	"github.com/tomtom215/feedloom/internal/feed"
	"github.com/tomtom215/feedloom/internal/logging"
)

// Experiments handles GET /api/v1/experiments.
// Returns the configured experiment registry. The hashing salt is withheld:
// with it, clients could precompute population membership.
func (h *Handler) Experiments(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.cfg == nil {
		rw.NotFound("Experiment configuration is not exposed")
		return
	}

	experiments := h.cfg.Experiments.Experiments
	if experiments == nil {
		experiments = []feed.Experiment{}
	}

	rw.Success(map[string]interface{}{
		"enabled":     h.cfg.Experiments.Enabled,
		"experiments": experiments,
		"count":       len(experiments),
	})
}

// ExperimentAssignment handles GET /api/v1/experiments/assignment.
// Resolves the deterministic variant assignment for a user on a feed surface.
// Assignments are memoized, so this returns what the engine would use.
func (h *Handler) ExperimentAssignment(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.assigner == nil {
		rw.NotFound("Experiment assignment is not configured")
		return
	}

	params := AssignmentParams{
		UserID:   r.URL.Query().Get("user_id"),
		FeedType: normalizeFeedType(r.URL.Query().Get("feed_type")),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	assignment, err := h.assigner.Assign(r.Context(), params.UserID, feed.FeedType(params.FeedType))
	if err != nil {
		logging.CtxErr(r.Context(), err).Str("user_id", params.UserID).Msg("Assignment lookup failed")
		rw.InternalError("Failed to resolve assignment")
		return
	}

	rw.Success(map[string]interface{}{
		"user_id":    params.UserID,
		"feed_type":  params.FeedType,
		"assignment": assignment,
	})
}
