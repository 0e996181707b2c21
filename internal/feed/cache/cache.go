// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package cache provides the in-memory feed cache. Feeds, preference
// profiles, and popularity lists live in separate categories, each with
// its own TTL policy and hit/miss accounting. Expiration is lazy: an
// entry's age is checked against its TTL at read time, and stale
// entries are evicted and reported as misses. Feed TTLs adapt to entry
// volatility at store time: feeds dominated by trending or recency
// reasons expire in half the base TTL, feeds dominated by similarity or
// topic-interest reasons keep twice as long.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/feed"
	"github.com/tomtom215/feedloom/internal/metrics"
)

// Cache categories as reported to observability.
const (
	categoryFeed        = "feed"
	categoryPreferences = "preferences"
	categoryPopularity  = "popularity"
)

// entry wraps a cached value with its expiry deadline.
type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// fresh reports whether the entry is still within its TTL.
func (e entry[T]) fresh(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// counters tracks per-category cache outcomes. The in-process counters
// feed the stats endpoint; every change is mirrored to Prometheus.
type counters struct {
	category  string
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func (c *counters) hit() {
	c.hits.Add(1)
	metrics.RecordCacheHit(c.category)
}

func (c *counters) miss() {
	c.misses.Add(1)
	metrics.RecordCacheMiss(c.category)
}

func (c *counters) evict() {
	c.evictions.Add(1)
	metrics.RecordCacheEviction(c.category)
}

// snapshot returns a copy of the counters with the derived hit rate.
func (c *counters) snapshot(entries int) CategoryStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	s := CategoryStats{
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		Entries:   entries,
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// CategoryStats is a point-in-time view of one cache category.
type CategoryStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
	Entries   int     `json:"entries"`
}

// Stats aggregates cache statistics across categories.
type Stats struct {
	Feed        CategoryStats `json:"feed"`
	Preferences CategoryStats `json:"preferences"`
	Popularity  CategoryStats `json:"popularity"`
	Entries     int           `json:"entries"`
}

// Manager is the in-memory implementation of the feed cache. A
// disabled manager is a complete no-op: every read misses without
// touching counters and every write is dropped.
type Manager struct {
	cfg    feed.CacheConfig
	logger zerolog.Logger

	mu    sync.RWMutex
	feeds map[string]entry[*feed.GeneratedFeed]
	prefs map[string]entry[*feed.UserPreferenceProfile]
	pop   map[string]entry[[]feed.ContentCandidate]

	feedStats counters
	prefStats counters
	popStats  counters
}

// NewManager creates a feed cache with the given policy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(cfg feed.CacheConfig, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		logger:    logger.With().Str("component", "cache").Logger(),
		feeds:     make(map[string]entry[*feed.GeneratedFeed]),
		prefs:     make(map[string]entry[*feed.UserPreferenceProfile]),
		pop:       make(map[string]entry[[]feed.ContentCandidate]),
		feedStats: counters{category: categoryFeed},
		prefStats: counters{category: categoryPreferences},
		popStats:  counters{category: categoryPopularity},
	}
}

// GetFeed returns a cached feed or a miss.
func (m *Manager) GetFeed(ctx context.Context, userID string, feedType feed.FeedType) (*feed.GeneratedFeed, bool) {
	if !m.cfg.Enabled {
		return nil, false
	}
	return lookup(m, m.feeds, feedKey(userID, feedType), &m.feedStats)
}

// StoreFeed caches a generated feed under a TTL adapted to the
// volatility of its entries. Nil feeds and feeds without a user are
// dropped.
func (m *Manager) StoreFeed(ctx context.Context, f *feed.GeneratedFeed) {
	if !m.cfg.Enabled || f == nil || f.UserID == "" {
		return
	}
	ttl := m.feedTTL(f)
	f.Metadata.ExpiresAt = time.Now().UTC().Add(ttl)
	store(m, m.feeds, feedKey(f.UserID, f.FeedType), f, ttl, &m.feedStats)
}

// GetPreferences returns a cached preference profile or a miss.
func (m *Manager) GetPreferences(ctx context.Context, userID string) (*feed.UserPreferenceProfile, bool) {
	if !m.cfg.Enabled {
		return nil, false
	}
	return lookup(m, m.prefs, userID, &m.prefStats)
}

// StorePreferences caches a preference profile.
func (m *Manager) StorePreferences(ctx context.Context, p *feed.UserPreferenceProfile) {
	if !m.cfg.Enabled || p == nil || p.UserID == "" {
		return
	}
	store(m, m.prefs, p.UserID, p, m.cfg.PreferencesTTL, &m.prefStats)
}

// GetPopularity returns a cached popularity list or a miss.
func (m *Manager) GetPopularity(ctx context.Context, key string) ([]feed.ContentCandidate, bool) {
	if !m.cfg.Enabled {
		return nil, false
	}
	return lookup(m, m.pop, key, &m.popStats)
}

// StorePopularity caches a popularity list under a caller-chosen key.
func (m *Manager) StorePopularity(ctx context.Context, key string, items []feed.ContentCandidate) {
	if !m.cfg.Enabled || key == "" {
		return
	}
	store(m, m.pop, key, items, m.cfg.PopularityTTL, &m.popStats)
}

// InvalidateFeed drops one cached feed, reporting whether it existed.
func (m *Manager) InvalidateFeed(ctx context.Context, userID string, feedType feed.FeedType) bool {
	if !m.cfg.Enabled {
		return false
	}
	key := feedKey(userID, feedType)

	m.mu.Lock()
	_, existed := m.feeds[key]
	if existed {
		delete(m.feeds, key)
		m.feedStats.evict()
		metrics.SetCacheEntries(categoryFeed, len(m.feeds))
	}
	m.mu.Unlock()
	return existed
}

// InvalidateUser drops every cached feed and the preference profile
// belonging to a user and returns the number removed. Popularity lists
// are global and unaffected. Used on preference change.
func (m *Manager) InvalidateUser(ctx context.Context, userID string) int {
	if !m.cfg.Enabled || userID == "" {
		return 0
	}
	removed := 0

	m.mu.Lock()
	for _, t := range feed.FeedTypes() {
		key := feedKey(userID, t)
		if _, ok := m.feeds[key]; ok {
			delete(m.feeds, key)
			m.feedStats.evict()
			removed++
		}
	}
	metrics.SetCacheEntries(categoryFeed, len(m.feeds))
	if _, ok := m.prefs[userID]; ok {
		delete(m.prefs, userID)
		m.prefStats.evict()
		metrics.SetCacheEntries(categoryPreferences, len(m.prefs))
		removed++
	}
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Debug().Str("user_id", userID).Int("removed", removed).Msg("invalidated user cache entries")
	}
	return removed
}

// FreshFeed reports whether a fresh cached feed exists without
// touching hit/miss counters. Used by the prewarmer to probe
// candidates without skewing the hit rate.
func (m *Manager) FreshFeed(userID string, feedType feed.FeedType) bool {
	if !m.cfg.Enabled {
		return false
	}
	m.mu.RLock()
	e, ok := m.feeds[feedKey(userID, feedType)]
	m.mu.RUnlock()
	return ok && e.fresh(time.Now())
}

// Sweep evicts every expired entry across categories and returns the
// number removed. Expiration is otherwise lazy; the prewarmer sweeps
// once per cycle to keep the maps from accumulating dead entries.
func (m *Manager) Sweep() int {
	if !m.cfg.Enabled {
		return 0
	}
	m.mu.Lock()
	n := m.sweepLocked(time.Now())
	m.mu.Unlock()
	return n
}

// Stats returns a snapshot of cache statistics.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	feeds, prefs, pop := len(m.feeds), len(m.prefs), len(m.pop)
	m.mu.RUnlock()

	return Stats{
		Feed:        m.feedStats.snapshot(feeds),
		Preferences: m.prefStats.snapshot(prefs),
		Popularity:  m.popStats.snapshot(pop),
		Entries:     feeds + prefs + pop,
	}
}

// feedTTL derives the TTL for a feed from its surface base TTL and the
// volatility of its entries. Volatile wins when a feed trips both
// thresholds: stale trending content is worse than a redundant refresh.
func (m *Manager) feedTTL(f *feed.GeneratedFeed) time.Duration {
	base := m.cfg.TTLFor(f.FeedType)
	total := len(f.Entries)
	if total == 0 {
		return base
	}

	volatile, stable := 0, 0
	for i := range f.Entries {
		v, s := false, false
		for _, r := range f.Entries[i].Reasons {
			switch r {
			case feed.ReasonTrending, feed.ReasonRecency:
				v = true
			case feed.ReasonSimilarUsers, feed.ReasonTopicInterest:
				s = true
			}
		}
		if v {
			volatile++
		}
		if s {
			stable++
		}
	}

	if float64(volatile)/float64(total) > m.cfg.VolatileThreshold {
		return base / 2
	}
	if float64(stable)/float64(total) > m.cfg.StableThreshold {
		return base * 2
	}
	return base
}

// lookup reads one entry with lazy expiration. Expired entries are
// deleted under the write lock only if still expired, so a concurrent
// refresh is never dropped.
func lookup[T any](m *Manager, items map[string]entry[T], key string, c *counters) (T, bool) {
	var zero T

	m.mu.RLock()
	e, ok := items[key]
	m.mu.RUnlock()

	if !ok {
		c.miss()
		return zero, false
	}
	if !e.fresh(time.Now()) {
		m.mu.Lock()
		if cur, present := items[key]; present && !cur.fresh(time.Now()) {
			delete(items, key)
			c.evict()
			metrics.SetCacheEntries(c.category, len(items))
		}
		m.mu.Unlock()
		c.miss()
		return zero, false
	}

	c.hit()
	return e.value, true
}

// store writes one entry, making room when the total entry budget is
// reached.
func store[T any](m *Manager, items map[string]entry[T], key string, value T, ttl time.Duration, c *counters) {
	now := time.Now()

	m.mu.Lock()
	if _, exists := items[key]; !exists {
		m.makeRoomLocked(now)
	}
	items[key] = entry[T]{value: value, expiresAt: now.Add(ttl)}
	metrics.SetCacheEntries(c.category, len(items))
	m.mu.Unlock()
}

// makeRoomLocked frees capacity for one insert: expired entries go
// first, then the entry closest to expiry.
func (m *Manager) makeRoomLocked(now time.Time) {
	capacity := m.cfg.MaxEntries
	if capacity <= 0 || m.totalLocked() < capacity {
		return
	}
	m.sweepLocked(now)
	for m.totalLocked() >= capacity {
		if !m.evictSoonestLocked() {
			return
		}
	}
}

func (m *Manager) totalLocked() int {
	return len(m.feeds) + len(m.prefs) + len(m.pop)
}

// sweepLocked removes expired entries from every category.
func (m *Manager) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range m.feeds {
		if !e.fresh(now) {
			delete(m.feeds, key)
			m.feedStats.evict()
			removed++
		}
	}
	for key, e := range m.prefs {
		if !e.fresh(now) {
			delete(m.prefs, key)
			m.prefStats.evict()
			removed++
		}
	}
	for key, e := range m.pop {
		if !e.fresh(now) {
			delete(m.pop, key)
			m.popStats.evict()
			removed++
		}
	}
	if removed > 0 {
		metrics.SetCacheEntries(categoryFeed, len(m.feeds))
		metrics.SetCacheEntries(categoryPreferences, len(m.prefs))
		metrics.SetCacheEntries(categoryPopularity, len(m.pop))
	}
	return removed
}

// evictSoonestLocked drops the entry closest to expiry across all
// categories. Returns false when every category is empty.
func (m *Manager) evictSoonestLocked() bool {
	var (
		soonest  time.Time
		category int
		pick     string
		found    bool
	)
	consider := func(key string, at time.Time, cat int) {
		if !found || at.Before(soonest) {
			soonest, category, pick, found = at, cat, key, true
		}
	}
	for key, e := range m.feeds {
		consider(key, e.expiresAt, 0)
	}
	for key, e := range m.prefs {
		consider(key, e.expiresAt, 1)
	}
	for key, e := range m.pop {
		consider(key, e.expiresAt, 2)
	}
	if !found {
		return false
	}
	switch category {
	case 0:
		delete(m.feeds, pick)
		m.feedStats.evict()
	case 1:
		delete(m.prefs, pick)
		m.prefStats.evict()
	case 2:
		delete(m.pop, pick)
		m.popStats.evict()
	}
	return true
}

// feedKey builds the storage key for a user's feed on one surface.
func feedKey(userID string, t feed.FeedType) string {
	return userID + ":" + string(t)
}

// Ensure Manager implements the interface.
var _ feed.Cache = (*Manager)(nil)
