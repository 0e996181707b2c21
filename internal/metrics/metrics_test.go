// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getCounterValue extracts the value from a Prometheus counter
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestRecordFeedGeneration(t *testing.T) {
	before := testutil.ToFloat64(FeedsGenerated.WithLabelValues("HOME", "false"))
	beforeCold := testutil.ToFloat64(FeedsGenerated.WithLabelValues("HOME", "true"))

	RecordFeedGeneration("HOME", false, 25*time.Millisecond)
	RecordFeedGeneration("HOME", true, 40*time.Millisecond)

	if got := testutil.ToFloat64(FeedsGenerated.WithLabelValues("HOME", "false")); got != before+1 {
		t.Errorf("FeedsGenerated[HOME,false] = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(FeedsGenerated.WithLabelValues("HOME", "true")); got != beforeCold+1 {
		t.Errorf("FeedsGenerated[HOME,true] = %v, want %v", got, beforeCold+1)
	}
}

func TestRecordCacheCounters(t *testing.T) {
	tests := []struct {
		name     string
		record   func()
		counter  *prometheus.CounterVec
		category string
	}{
		{"hit", func() { RecordCacheHit("feeds") }, CacheHits, "feeds"},
		{"miss", func() { RecordCacheMiss("preferences") }, CacheMisses, "preferences"},
		{"eviction", func() { RecordCacheEviction("popularity") }, CacheEvictions, "popularity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(tt.counter.WithLabelValues(tt.category))
			tt.record()
			after := testutil.ToFloat64(tt.counter.WithLabelValues(tt.category))
			if after != before+1 {
				t.Errorf("%s counter = %v, want %v", tt.name, after, before+1)
			}
		})
	}
}

func TestSetCacheEntries(t *testing.T) {
	SetCacheEntries("feeds", 42)
	if got := testutil.ToFloat64(CacheEntries.WithLabelValues("feeds")); got != 42 {
		t.Errorf("CacheEntries[feeds] = %v, want 42", got)
	}
}

func TestRecordEventPublished(t *testing.T) {
	before := getCounterValue(EventsPublished)
	RecordEventPublished()
	RecordEventPublished()
	if got := getCounterValue(EventsPublished); got != before+2 {
		t.Errorf("EventsPublished = %v, want %v", got, before+2)
	}
}

func TestRecordEventPublishFailure(t *testing.T) {
	before := getCounterValue(EventPublishFailures)
	RecordEventPublishFailure()
	if got := getCounterValue(EventPublishFailures); got != before+1 {
		t.Errorf("EventPublishFailures = %v, want %v", got, before+1)
	}
}

func TestRecordExperimentAssignment(t *testing.T) {
	before := testutil.ToFloat64(ExperimentAssignments.WithLabelValues("exp-ranking-v2", "treatment"))
	RecordExperimentAssignment("exp-ranking-v2", "treatment")
	after := testutil.ToFloat64(ExperimentAssignments.WithLabelValues("exp-ranking-v2", "treatment"))
	if after != before+1 {
		t.Errorf("ExperimentAssignments = %v, want %v", after, before+1)
	}
}

func TestRecordPrewarmPair(t *testing.T) {
	for _, result := range []string{"warmed", "skipped", "failed"} {
		before := testutil.ToFloat64(PrewarmPairs.WithLabelValues(result))
		RecordPrewarmPair(result)
		after := testutil.ToFloat64(PrewarmPairs.WithLabelValues(result))
		if after != before+1 {
			t.Errorf("PrewarmPairs[%s] = %v, want %v", result, after, before+1)
		}
	}
}

func TestRecordUpstreamFailure(t *testing.T) {
	before := testutil.ToFloat64(UpstreamFailures.WithLabelValues("preferences"))
	RecordUpstreamFailure("preferences")
	after := testutil.ToFloat64(UpstreamFailures.WithLabelValues("preferences"))
	if after != before+1 {
		t.Errorf("UpstreamFailures[preferences] = %v, want %v", after, before+1)
	}
}
