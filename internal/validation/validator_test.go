// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package validation

import (
	"strings"
	"testing"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

// feedQuery mirrors the ops API feed request parameters.
type feedQuery struct {
	UserID   string `validate:"required,max=128"`
	FeedType string `validate:"required,feed_type"`
	Limit    int    `validate:"gte=0,lte=1000"`
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input feedQuery
	}{
		{
			name:  "home feed",
			input: feedQuery{UserID: "user-123", FeedType: "HOME", Limit: 20},
		},
		{
			name:  "discover feed",
			input: feedQuery{UserID: "user-123", FeedType: "DISCOVER", Limit: 50},
		},
		{
			name:  "following feed",
			input: feedQuery{UserID: "user-123", FeedType: "FOLLOWING", Limit: 1},
		},
		{
			name:  "trending feed",
			input: feedQuery{UserID: "user-123", FeedType: "TRENDING", Limit: 100},
		},
		{
			name:  "zero limit means server default",
			input: feedQuery{UserID: "user-123", FeedType: "HOME", Limit: 0},
		},
		{
			name:  "limit at upper bound",
			input: feedQuery{UserID: "user-123", FeedType: "HOME", Limit: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     feedQuery
		wantField string
		wantTag   string
	}{
		{
			name:      "missing user id",
			input:     feedQuery{FeedType: "HOME", Limit: 20},
			wantField: "UserID",
			wantTag:   "required",
		},
		{
			name:      "user id too long",
			input:     feedQuery{UserID: strings.Repeat("u", 129), FeedType: "HOME"},
			wantField: "UserID",
			wantTag:   "max",
		},
		{
			name:      "missing feed type",
			input:     feedQuery{UserID: "user-123", Limit: 20},
			wantField: "FeedType",
			wantTag:   "required",
		},
		{
			name:      "unknown feed type",
			input:     feedQuery{UserID: "user-123", FeedType: "SPICY", Limit: 20},
			wantField: "FeedType",
			wantTag:   "feed_type",
		},
		{
			name:      "lowercase feed type",
			input:     feedQuery{UserID: "user-123", FeedType: "home", Limit: 20},
			wantField: "FeedType",
			wantTag:   "feed_type",
		},
		{
			name:      "negative limit",
			input:     feedQuery{UserID: "user-123", FeedType: "HOME", Limit: -1},
			wantField: "Limit",
			wantTag:   "gte",
		},
		{
			name:      "limit above bound",
			input:     feedQuery{UserID: "user-123", FeedType: "HOME", Limit: 1001},
			wantField: "Limit",
			wantTag:   "lte",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want validation error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("len(Errors()) = %d, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

// ===================================================================================================
// Error Translation Tests
// ===================================================================================================

func TestValidateStruct_Messages(t *testing.T) {
	tests := []struct {
		name    string
		input   feedQuery
		wantMsg string
	}{
		{
			name:    "required message",
			input:   feedQuery{FeedType: "HOME"},
			wantMsg: "UserID is required",
		},
		{
			name:    "feed type message",
			input:   feedQuery{UserID: "u", FeedType: "NOPE"},
			wantMsg: "FeedType must be one of: HOME, DISCOVER, FOLLOWING, TRENDING",
		},
		{
			name:    "lte message",
			input:   feedQuery{UserID: "u", FeedType: "HOME", Limit: 5000},
			wantMsg: "Limit must be less than or equal to 1000",
		},
		{
			name:    "string max message",
			input:   feedQuery{UserID: strings.Repeat("u", 200), FeedType: "HOME"},
			wantMsg: "UserID must be at most 128 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want validation error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("len(Errors()) = %d, want 1: %v", len(errs), verr)
			}
			if errs[0].Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

// ===================================================================================================
// APIError Conversion Tests
// ===================================================================================================

func TestToAPIError_SingleError(t *testing.T) {
	verr := ValidateStruct(&feedQuery{UserID: "u", FeedType: "BOGUS"})
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "FeedType must be one of: HOME, DISCOVER, FOLLOWING, TRENDING" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "FeedType" {
		t.Errorf("Details[field] = %v, want FeedType", apiErr.Details["field"])
	}
	if apiErr.Details["tag"] != "feed_type" {
		t.Errorf("Details[tag] = %v, want feed_type", apiErr.Details["tag"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	verr := ValidateStruct(&feedQuery{Limit: -5})
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want validation error")
	}
	if len(verr.Errors()) < 2 {
		t.Fatalf("len(Errors()) = %d, want >= 2", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "UserID is required") {
		t.Errorf("Message = %q, want to mention UserID", apiErr.Message)
	}
	if !strings.Contains(apiErr.Message, "; ") {
		t.Errorf("Message = %q, want joined messages", apiErr.Message)
	}

	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T, want []map[string]interface{}", apiErr.Details["fields"])
	}
	if len(fields) != len(verr.Errors()) {
		t.Errorf("len(Details[fields]) = %d, want %d", len(fields), len(verr.Errors()))
	}
}

func TestRequestValidationError_Error(t *testing.T) {
	verr := ValidateStruct(&feedQuery{Limit: -5})
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want validation error")
	}

	msg := verr.Error()
	if !strings.Contains(msg, "UserID is required") {
		t.Errorf("Error() = %q, want to mention UserID", msg)
	}
	if !strings.Contains(msg, "FeedType is required") {
		t.Errorf("Error() = %q, want to mention FeedType", msg)
	}
}
