// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package validation provides struct validation using
// go-playground/validator v10.
//
// It wraps the library in a thread-safe singleton with a custom
// feed_type validator and translates field errors into the
// VALIDATION_ERROR response format the ops API returns.
//
//	type feedQuery struct {
//	    UserID   string `validate:"required,max=128"`
//	    FeedType string `validate:"required,feed_type"`
//	    Limit    int    `validate:"gte=0,lte=1000"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Code / apiErr.Message
//	}
package validation
