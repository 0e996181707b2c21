// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package cache

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/feed"
)

func testConfig() feed.CacheConfig {
	return feed.DefaultConfig().Cache
}

func newTestManager(cfg feed.CacheConfig) *Manager {
	return NewManager(cfg, zerolog.Nop())
}

// feedWith builds a feed with one entry per reason slice.
func feedWith(userID string, t feed.FeedType, reasons ...[]feed.InclusionReason) *feed.GeneratedFeed {
	entries := make([]feed.FeedEntry, len(reasons))
	for i, rs := range reasons {
		entries[i] = feed.FeedEntry{
			ContentID: fmt.Sprintf("c%d", i+1),
			Score:     1 - float64(i)*0.05,
			Rank:      i + 1,
			Reasons:   rs,
			Source:    feed.SourceRecommendation,
		}
	}
	return &feed.GeneratedFeed{UserID: userID, FeedType: t, Entries: entries}
}

func repeatReasons(n int, rs ...feed.InclusionReason) [][]feed.InclusionReason {
	out := make([][]feed.InclusionReason, n)
	for i := range out {
		out[i] = rs
	}
	return out
}

func TestFeedRoundTrip(t *testing.T) {
	m := newTestManager(testConfig())
	ctx := context.Background()

	if _, ok := m.GetFeed(ctx, "u1", feed.FeedHome); ok {
		t.Fatal("GetFeed() hit on empty cache")
	}

	stored := feedWith("u1", feed.FeedHome, repeatReasons(3, feed.ReasonTopicInterest)...)
	stored.Metadata.GenerationID = "gen-1"
	m.StoreFeed(ctx, stored)

	got, ok := m.GetFeed(ctx, "u1", feed.FeedHome)
	if !ok {
		t.Fatal("GetFeed() miss after store")
	}
	if !reflect.DeepEqual(got, stored) {
		t.Errorf("GetFeed() = %+v, want the stored feed", got)
	}

	// Other surfaces and users stay independent.
	if _, ok := m.GetFeed(ctx, "u1", feed.FeedDiscover); ok {
		t.Error("GetFeed(DISCOVER) hit, want miss")
	}
	if _, ok := m.GetFeed(ctx, "u2", feed.FeedHome); ok {
		t.Error("GetFeed(u2) hit, want miss")
	}
}

func TestFeedExpiresAfterTTL(t *testing.T) {
	cfg := testConfig()
	cfg.FeedTTL = map[feed.FeedType]time.Duration{feed.FeedHome: 60 * time.Millisecond}
	m := newTestManager(cfg)
	ctx := context.Background()

	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(2)...))

	if _, ok := m.GetFeed(ctx, "u1", feed.FeedHome); !ok {
		t.Fatal("GetFeed() miss immediately after store")
	}

	time.Sleep(90 * time.Millisecond)

	if _, ok := m.GetFeed(ctx, "u1", feed.FeedHome); ok {
		t.Fatal("GetFeed() hit after TTL elapsed, want miss")
	}

	stats := m.Stats()
	if stats.Feed.Evictions != 1 {
		t.Errorf("Feed.Evictions = %d, want 1 lazy eviction", stats.Feed.Evictions)
	}
	if stats.Feed.Entries != 0 {
		t.Errorf("Feed.Entries = %d, want 0 after eviction", stats.Feed.Entries)
	}
}

func TestFeedTTLAdaptsToVolatility(t *testing.T) {
	m := newTestManager(testConfig())
	base := 15 * time.Minute

	tests := []struct {
		name    string
		reasons [][]feed.InclusionReason
		want    time.Duration
	}{
		{
			name:    "empty feed keeps base",
			reasons: nil,
			want:    base,
		},
		{
			name: "balanced feed keeps base",
			reasons: append(repeatReasons(5, feed.ReasonTrending),
				repeatReasons(5, feed.ReasonFollowedSource)...),
			want: base,
		},
		{
			name:    "volatile majority halves",
			reasons: append(repeatReasons(6, feed.ReasonTrending), repeatReasons(4)...),
			want:    base / 2,
		},
		{
			name:    "recency counts as volatile",
			reasons: append(repeatReasons(6, feed.ReasonRecency), repeatReasons(4)...),
			want:    base / 2,
		},
		{
			name:    "stable majority doubles",
			reasons: append(repeatReasons(8, feed.ReasonTopicInterest), repeatReasons(2)...),
			want:    base * 2,
		},
		{
			name:    "similar users count as stable",
			reasons: append(repeatReasons(8, feed.ReasonSimilarUsers), repeatReasons(2)...),
			want:    base * 2,
		},
		{
			name:    "stable share at threshold keeps base",
			reasons: append(repeatReasons(7, feed.ReasonTopicInterest), repeatReasons(3)...),
			want:    base,
		},
		{
			name:    "volatile wins over stable",
			reasons: repeatReasons(10, feed.ReasonTrending, feed.ReasonTopicInterest),
			want:    base / 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := feedWith("u1", feed.FeedHome, tt.reasons...)
			if got := m.feedTTL(f); got != tt.want {
				t.Errorf("feedTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	m := newTestManager(testConfig())
	ctx := context.Background()

	profile := &feed.UserPreferenceProfile{
		UserID:         "u1",
		TopicInterests: map[string]float64{"go": 0.9},
	}
	m.StorePreferences(ctx, profile)

	got, ok := m.GetPreferences(ctx, "u1")
	if !ok {
		t.Fatal("GetPreferences() miss after store")
	}
	if !reflect.DeepEqual(got, profile) {
		t.Errorf("GetPreferences() = %+v, want the stored profile", got)
	}
}

func TestPopularityRoundTrip(t *testing.T) {
	m := newTestManager(testConfig())
	ctx := context.Background()

	items := []feed.ContentCandidate{{ID: "c1"}, {ID: "c2"}}
	m.StorePopularity(ctx, "popular:global", items)

	got, ok := m.GetPopularity(ctx, "popular:global")
	if !ok {
		t.Fatal("GetPopularity() miss after store")
	}
	if !reflect.DeepEqual(got, items) {
		t.Errorf("GetPopularity() = %+v, want the stored list", got)
	}
	if _, ok := m.GetPopularity(ctx, "popular:other"); ok {
		t.Error("GetPopularity(other key) hit, want miss")
	}
}

func TestInvalidateFeed(t *testing.T) {
	m := newTestManager(testConfig())
	ctx := context.Background()

	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(1)...))

	if !m.InvalidateFeed(ctx, "u1", feed.FeedHome) {
		t.Error("InvalidateFeed() = false, want true for existing entry")
	}
	if m.InvalidateFeed(ctx, "u1", feed.FeedHome) {
		t.Error("InvalidateFeed() = true on second call, want false")
	}
	if _, ok := m.GetFeed(ctx, "u1", feed.FeedHome); ok {
		t.Error("GetFeed() hit after invalidation")
	}
}

func TestInvalidateUserDropsFeedsAndPreferences(t *testing.T) {
	m := newTestManager(testConfig())
	ctx := context.Background()

	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(1)...))
	m.StoreFeed(ctx, feedWith("u1", feed.FeedDiscover, repeatReasons(1)...))
	m.StoreFeed(ctx, feedWith("u2", feed.FeedHome, repeatReasons(1)...))
	m.StorePreferences(ctx, &feed.UserPreferenceProfile{UserID: "u1"})
	m.StorePopularity(ctx, "popular:global", []feed.ContentCandidate{{ID: "c1"}})

	if removed := m.InvalidateUser(ctx, "u1"); removed != 3 {
		t.Errorf("InvalidateUser() = %d, want 3", removed)
	}

	if _, ok := m.GetFeed(ctx, "u1", feed.FeedHome); ok {
		t.Error("u1 HOME feed survived invalidation")
	}
	if _, ok := m.GetPreferences(ctx, "u1"); ok {
		t.Error("u1 preferences survived invalidation")
	}
	if _, ok := m.GetFeed(ctx, "u2", feed.FeedHome); !ok {
		t.Error("u2 feed was dropped by u1 invalidation")
	}
	if _, ok := m.GetPopularity(ctx, "popular:global"); !ok {
		t.Error("global popularity list was dropped by user invalidation")
	}

	if removed := m.InvalidateUser(ctx, "u1"); removed != 0 {
		t.Errorf("InvalidateUser() second call = %d, want 0", removed)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	m := newTestManager(cfg)
	ctx := context.Background()

	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(1)...))
	if _, ok := m.GetFeed(ctx, "u1", feed.FeedHome); ok {
		t.Error("disabled cache returned a hit")
	}

	stats := m.Stats()
	if stats.Feed.Hits != 0 || stats.Feed.Misses != 0 || stats.Entries != 0 {
		t.Errorf("disabled cache stats = %+v, want all zero", stats)
	}
}

func TestMakeRoomEvictsSoonestExpiring(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEntries = 3
	m := newTestManager(cfg)
	ctx := context.Background()

	// Default TTLs stagger expiry across categories: popularity 15m,
	// preferences 1h, TRENDING feeds 60m.
	m.StorePopularity(ctx, "k1", []feed.ContentCandidate{{ID: "c1"}})
	m.StorePreferences(ctx, &feed.UserPreferenceProfile{UserID: "u1"})
	m.StoreFeed(ctx, feedWith("u2", feed.FeedTrending, repeatReasons(1)...))

	// At capacity; the popularity entry expires soonest and must go.
	m.StoreFeed(ctx, feedWith("u3", feed.FeedHome, repeatReasons(1)...))

	if _, ok := m.GetPopularity(ctx, "k1"); ok {
		t.Error("soonest-expiring entry survived capacity eviction")
	}
	if _, ok := m.GetPreferences(ctx, "u1"); !ok {
		t.Error("later-expiring preferences were evicted")
	}
	if _, ok := m.GetFeed(ctx, "u3", feed.FeedHome); !ok {
		t.Error("newly stored feed missing after capacity eviction")
	}

	stats := m.Stats()
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3 at capacity", stats.Entries)
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEntries = 1
	m := newTestManager(cfg)
	ctx := context.Background()

	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(1)...))
	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(2)...))

	got, ok := m.GetFeed(ctx, "u1", feed.FeedHome)
	if !ok {
		t.Fatal("GetFeed() miss after overwrite")
	}
	if len(got.Entries) != 2 {
		t.Errorf("entries = %d, want the overwritten feed with 2", len(got.Entries))
	}
	if evictions := m.Stats().Feed.Evictions; evictions != 0 {
		t.Errorf("Feed.Evictions = %d, want 0 for same-key overwrite", evictions)
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	cfg := testConfig()
	cfg.FeedTTL = map[feed.FeedType]time.Duration{feed.FeedHome: 40 * time.Millisecond}
	m := newTestManager(cfg)
	ctx := context.Background()

	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(1)...))
	m.StoreFeed(ctx, feedWith("u2", feed.FeedHome, repeatReasons(1)...))
	m.StorePreferences(ctx, &feed.UserPreferenceProfile{UserID: "u1"})

	time.Sleep(70 * time.Millisecond)

	if removed := m.Sweep(); removed != 2 {
		t.Errorf("Sweep() = %d, want 2 expired feeds", removed)
	}
	stats := m.Stats()
	if stats.Feed.Entries != 0 {
		t.Errorf("Feed.Entries = %d, want 0 after sweep", stats.Feed.Entries)
	}
	if stats.Preferences.Entries != 1 {
		t.Errorf("Preferences.Entries = %d, want the unexpired profile kept", stats.Preferences.Entries)
	}
}

func TestFreshFeedDoesNotTouchCounters(t *testing.T) {
	m := newTestManager(testConfig())
	ctx := context.Background()

	if m.FreshFeed("u1", feed.FeedHome) {
		t.Error("FreshFeed() = true on empty cache")
	}
	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(1)...))
	if !m.FreshFeed("u1", feed.FeedHome) {
		t.Error("FreshFeed() = false for fresh entry")
	}

	stats := m.Stats()
	if stats.Feed.Hits != 0 || stats.Feed.Misses != 0 {
		t.Errorf("FreshFeed() moved counters: hits=%d misses=%d, want 0/0",
			stats.Feed.Hits, stats.Feed.Misses)
	}
}

func TestStatsHitRate(t *testing.T) {
	m := newTestManager(testConfig())
	ctx := context.Background()

	m.StoreFeed(ctx, feedWith("u1", feed.FeedHome, repeatReasons(1)...))
	m.GetFeed(ctx, "u1", feed.FeedHome)
	m.GetFeed(ctx, "u1", feed.FeedHome)
	m.GetFeed(ctx, "u9", feed.FeedHome)

	stats := m.Stats()
	if stats.Feed.Hits != 2 || stats.Feed.Misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 2/1", stats.Feed.Hits, stats.Feed.Misses)
	}
	want := 2.0 / 3.0
	if diff := stats.Feed.HitRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("HitRate = %v, want %v", stats.Feed.HitRate, want)
	}
}
