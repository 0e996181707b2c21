// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/feedloom/internal/feed"
	"github.com/tomtom215/feedloom/internal/validation"
)

// validateRequest validates a request struct and converts any failure into
// the API error format.
//
//	if apiErr := validateRequest(&params); apiErr != nil {
//	    NewResponseWriter(w, r).ValidationError(apiErr.Message, apiErr.Details)
//	    return
//	}
func validateRequest(v interface{}) *APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// normalizeFeedType canonicalizes a wire feed type value. Unknown values are
// returned unchanged so that validation produces the proper error message.
func normalizeFeedType(s string) string {
	if t, err := feed.ParseFeedType(s); err == nil {
		return string(t)
	}
	return s
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getBoolParam extracts a boolean query parameter with a default value.
func getBoolParam(r *http.Request, key string, defaultValue bool) bool {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}
