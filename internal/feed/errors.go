// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package feed

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable indicates a candidate source returned no usable
// data. The engine degrades to fallback content rather than surfacing it.
var ErrUpstreamUnavailable = errors.New("feed: upstream unavailable")

// ErrNoCandidates indicates every candidate was filtered out before
// ranking, leaving nothing to build a feed from.
var ErrNoCandidates = errors.New("feed: no candidates after filtering")

// ValidationError reports an invalid feed request. It is the only error
// class surfaced to callers; internal failures degrade into an empty feed
// with error metadata instead.
type ValidationError struct {
	// Field is the offending request field.
	Field string `json:"field"`

	// Message describes the problem.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feed request: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a request field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Fetched wraps an upstream read that may have been served from a
// fallback. Degraded reads flow through generation normally; the fallback
// source is recorded in feed metadata.
type Fetched[T any] struct {
	// Value is the fetched or fallback value.
	Value T

	// Degraded marks values served from a fallback.
	Degraded bool

	// Reason names the degraded input, e.g. "preferences".
	Reason string
}

// Fresh wraps a successfully fetched value.
func Fresh[T any](value T) Fetched[T] {
	return Fetched[T]{Value: value}
}

// Fallback wraps a fallback value with the name of the degraded input.
func Fallback[T any](value T, reason string) Fetched[T] {
	return Fetched[T]{Value: value, Degraded: true, Reason: reason}
}
