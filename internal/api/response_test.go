// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/feedloom/internal/logging"
)

func TestResponseWriter_Success(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"key": "value"})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !resp.Success {
		t.Error("Success should be true")
	}
	if resp.Error != nil {
		t.Errorf("Error = %+v, want nil", resp.Error)
	}
	if resp.Meta == nil {
		t.Fatal("Meta should be set")
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("Meta.Timestamp should be set")
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want map", resp.Data)
	}
	if data["key"] != "value" {
		t.Errorf("Data[key] = %v, want value", data["key"])
	}
}

func TestResponseWriter_Error(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	rw := NewResponseWriter(w, r)
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Invalid input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.Success {
		t.Error("Success should be false")
	}
	if resp.Error == nil {
		t.Fatal("Error should be set")
	}
	if resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("Code = %q, want %q", resp.Error.Code, ErrCodeBadRequest)
	}
	if resp.Error.Message != "Invalid input" {
		t.Errorf("Message = %q, want Invalid input", resp.Error.Message)
	}
}

func TestResponseWriter_ValidationError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	details := map[string]interface{}{"field": "UserID", "tag": "required"}
	rw := NewResponseWriter(w, r)
	rw.ValidationError("UserID is required", details)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Fatalf("Error = %+v, want code %s", resp.Error, ErrCodeValidationFailed)
	}

	got, ok := resp.Error.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("Details = %T, want map", resp.Error.Details)
	}
	if got["field"] != "UserID" || got["tag"] != "required" {
		t.Errorf("Details = %v", got)
	}
}

func TestResponseWriter_RequestIDInEnvelope(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "req-12345"))

	rw := NewResponseWriter(w, r)
	rw.NotFound("missing")

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.Error == nil || resp.Error.RequestID != "req-12345" {
		t.Errorf("Error.RequestID = %+v, want req-12345", resp.Error)
	}
	if resp.Meta == nil || resp.Meta.RequestID != "req-12345" {
		t.Errorf("Meta.RequestID = %+v, want req-12345", resp.Meta)
	}
}

func TestResponseWriter_StatusHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(rw *ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(rw *ResponseWriter) { rw.BadRequest("bad") }, http.StatusBadRequest, ErrCodeBadRequest},
		{"not found", func(rw *ResponseWriter) { rw.NotFound("missing") }, http.StatusNotFound, ErrCodeNotFound},
		{"method not allowed", func(rw *ResponseWriter) { rw.MethodNotAllowed("nope") }, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{"too many requests", func(rw *ResponseWriter) { rw.TooManyRequests("slow down") }, http.StatusTooManyRequests, ErrCodeTooManyRequests},
		{"internal error", func(rw *ResponseWriter) { rw.InternalError("boom") }, http.StatusInternalServerError, ErrCodeInternalError},
		{"service unavailable", func(rw *ResponseWriter) { rw.ServiceUnavailable("down") }, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)
			tt.write(NewResponseWriter(w, r))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var resp APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("Error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	WriteSuccess(w, r, map[string]int{"n": 1})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !resp.Success {
		t.Error("Success should be true")
	}
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.Error == nil || resp.Error.Message != "Route not found" {
		t.Errorf("Error = %+v, want message Route not found", resp.Error)
	}
}
