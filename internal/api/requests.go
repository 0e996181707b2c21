// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package api provides HTTP request validation structs with go-playground/validator tags.
// These structs are used to validate incoming API request parameters before processing.
//
// The validation tags follow the go-playground/validator v10 syntax:
//   - required: field must be present and non-zero
//   - min,max: numeric or string length bounds
//   - feed_type: value must be a known feed surface (custom tag)
//   - omitempty: skip validation if field is empty/zero
//
// Example usage:
//
//	params := FeedParams{
//	    UserID:   r.URL.Query().Get("user_id"),
//	    FeedType: normalizeFeedType(r.URL.Query().Get("feed_type")),
//	    Limit:    getIntParam(r, "limit", 0),
//	}
//	if apiErr := validateRequest(&params); apiErr != nil {
//	    NewResponseWriter(w, r).ValidationError(apiErr.Message, apiErr.Details)
//	    return
//	}
package api

// FeedParams represents the validated query parameters for GET /feed.
//
// Fields:
//   - UserID: Required user identifier (max 128 characters)
//   - FeedType: Required feed surface, case-insensitive on the wire
//   - Limit: Entries to return (0 = server default, capped at 100)
//   - SkipCache: Force regeneration even when a fresh cached feed exists
type FeedParams struct {
	UserID    string `validate:"required,max=128"`
	FeedType  string `validate:"required,feed_type"`
	Limit     int    `validate:"min=0,max=100"`
	SkipCache bool
}

// InvalidateParams represents the validated request body for POST /feed/cache/invalidate.
// When FeedType is empty, every cached feed for the user is dropped.
//
// Fields:
//   - UserID: Required user identifier (max 128 characters)
//   - FeedType: Optional feed surface to narrow the invalidation
type InvalidateParams struct {
	UserID   string `json:"user_id" validate:"required,max=128"`
	FeedType string `json:"feed_type,omitempty" validate:"omitempty,feed_type"`
}

// AssignmentParams represents the validated query parameters for GET /experiments/assignment.
//
// Fields:
//   - UserID: Required user identifier (max 128 characters)
//   - FeedType: Required feed surface the assignment is evaluated for
type AssignmentParams struct {
	UserID   string `validate:"required,max=128"`
	FeedType string `validate:"required,feed_type"`
}
