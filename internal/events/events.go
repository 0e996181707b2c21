// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package events delivers experiment metric events to an external sink.
//
// Emission is fire-and-forget: the feed pipeline publishes in a detached
// goroutine and a failed or slow sink can never delay or fail feed
// generation. The sink is a Watermill publisher; standalone deployments use
// the in-process GoChannel transport, production builds compiled with
// -tags=nats publish to NATS JetStream.
package events

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current metric event schema version.
const SchemaVersion = 1

// TopicExperimentMetrics is the topic all experiment metric events are
// published on. The experiment id rides in the payload and message metadata
// rather than the topic so that in-process subscribers need no wildcard
// support.
const TopicExperimentMetrics = "feed.experiment.metrics"

// ExperimentMetric records one feed generation performed under an experiment
// variant.
type ExperimentMetric struct {
	SchemaVersion int    `json:"schema_version,omitempty"`
	EventID       string `json:"event_id"`

	UserID       string `json:"user_id"`
	ExperimentID string `json:"experiment_id"`
	VariantID    string `json:"variant_id"`
	IsControl    bool   `json:"is_control"`

	FeedType       string `json:"feed_type,omitempty"`
	AlgorithmID    string `json:"algorithm_id"`
	DurationMs     int64  `json:"duration_ms"`
	ContentCount   int    `json:"content_count"`
	CandidateCount int    `json:"candidate_count"`

	Timestamp time.Time `json:"timestamp"`
}

// NewExperimentMetric creates a metric event with a unique id, timestamp, and
// schema version.
func NewExperimentMetric(userID, experimentID, variantID string) *ExperimentMetric {
	return &ExperimentMetric{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		ExperimentID:  experimentID,
		VariantID:     variantID,
		Timestamp:     time.Now().UTC(),
	}
}

// Validate checks required fields.
func (m *ExperimentMetric) Validate() error {
	if m.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if m.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if m.ExperimentID == "" {
		return &ValidationError{Field: "experiment_id", Message: "required"}
	}
	if m.VariantID == "" {
		return &ValidationError{Field: "variant_id", Message: "required"}
	}
	return nil
}

// Serialize encodes the metric as JSON.
func (m *ExperimentMetric) Serialize() ([]byte, error) {
	return json.Marshal(m)
}

// DeserializeMetric decodes a metric event, defaulting the schema version for
// events published before versioning.
func DeserializeMetric(data []byte) (*ExperimentMetric, error) {
	var metric ExperimentMetric
	if err := json.Unmarshal(data, &metric); err != nil {
		return nil, err
	}
	if metric.SchemaVersion == 0 {
		metric.SchemaVersion = 1
	}
	return &metric, nil
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
