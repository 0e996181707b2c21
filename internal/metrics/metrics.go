// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package metrics exposes Prometheus metrics for the feed pipeline.
// Collectors are registered at import time via promauto and written through
// the Record* helpers; the /metrics endpoint serves the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed generation metrics.
var (
	FeedGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_generation_duration_seconds",
			Help:    "Duration of feed generation in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"feed_type"},
	)

	FeedsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feeds_generated_total",
			Help: "Total feeds generated, by feed type and cold-start path",
		},
		[]string{"feed_type", "cold_start"},
	)

	FeedGenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_generation_failures_total",
			Help: "Total feed generations that degraded to an empty feed",
		},
		[]string{"feed_type"},
	)

	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_candidates_scored_total",
			Help: "Total candidates run through the scoring engine",
		},
	)

	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_upstream_failures_total",
			Help: "Total collaborator fetch failures substituted with defaults",
		},
		[]string{"provider"},
	)
)

// Feed cache metrics, labeled by cache category (feeds, preferences,
// popularity).
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"category"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"category"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_evictions_total",
			Help: "Total lazy evictions of expired entries",
		},
		[]string{"category"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"category"},
	)

	PrewarmPairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_prewarm_pairs_total",
			Help: "Pre-warm outcomes per (user, feed type) pair",
		},
		[]string{"result"},
	)
)

// API endpoint metrics.
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// Experiment metrics.
var (
	ExperimentAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_assignments_total",
			Help: "Total experiment variant assignments made or recalled",
		},
		[]string{"experiment", "variant"},
	)

	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "experiment_events_published_total",
			Help: "Total experiment metric events published to the sink",
		},
	)

	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "experiment_event_publish_failures_total",
			Help: "Total experiment metric events dropped on publish failure",
		},
	)
)

// RecordFeedGeneration records one completed generation call
func RecordFeedGeneration(feedType string, coldStart bool, duration time.Duration) {
	FeedGenerationDuration.WithLabelValues(feedType).Observe(duration.Seconds())
	coldStartLabel := "false"
	if coldStart {
		coldStartLabel = "true"
	}
	FeedsGenerated.WithLabelValues(feedType, coldStartLabel).Inc()
}

// RecordFeedGenerationFailure records a generation degraded to an empty feed
func RecordFeedGenerationFailure(feedType string) {
	FeedGenerationFailures.WithLabelValues(feedType).Inc()
}

// RecordCandidatesScored records a scored candidate batch
func RecordCandidatesScored(count int) {
	CandidatesScored.Add(float64(count))
}

// RecordUpstreamFailure records a collaborator fetch substituted with defaults
func RecordUpstreamFailure(provider string) {
	UpstreamFailures.WithLabelValues(provider).Inc()
}

// RecordCacheHit records a cache hit for a category
func RecordCacheHit(category string) {
	CacheHits.WithLabelValues(category).Inc()
}

// RecordCacheMiss records a cache miss for a category
func RecordCacheMiss(category string) {
	CacheMisses.WithLabelValues(category).Inc()
}

// RecordCacheEviction records a lazy eviction for a category
func RecordCacheEviction(category string) {
	CacheEvictions.WithLabelValues(category).Inc()
}

// SetCacheEntries updates the entry-count gauge for a category
func SetCacheEntries(category string, count int) {
	CacheEntries.WithLabelValues(category).Set(float64(count))
}

// RecordPrewarmPair records one pre-warm outcome: warmed, skipped, or failed
func RecordPrewarmPair(result string) {
	PrewarmPairs.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordExperimentAssignment records a variant assignment
func RecordExperimentAssignment(experimentID, variantID string) {
	ExperimentAssignments.WithLabelValues(experimentID, variantID).Inc()
}

// RecordEventPublished records a metric event reaching the sink
func RecordEventPublished() {
	EventsPublished.Inc()
}

// RecordEventPublishFailure records a metric event dropped on failure
func RecordEventPublishFailure() {
	EventPublishFailures.Inc()
}
