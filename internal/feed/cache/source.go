// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/feed"
)

// CachingSource wraps a candidate source and serves trending and
// popular pools from the popularity cache category. Those pools are
// platform-wide, so one upstream fetch can serve every cold-start and
// discovery request until the TTL lapses. Per-user candidate retrieval
// and topic lookups stay uncached since their results are request
// specific.
type CachingSource struct {
	next   feed.CandidateSource
	cache  *Manager
	logger zerolog.Logger
}

// NewCachingSource wraps next with popularity caching backed by m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCachingSource(next feed.CandidateSource, m *Manager, logger zerolog.Logger) *CachingSource {
	return &CachingSource{
		next:   next,
		cache:  m,
		logger: logger.With().Str("component", "caching_source").Logger(),
	}
}

// Candidates passes through to the wrapped source.
func (s *CachingSource) Candidates(ctx context.Context, userID string, feedType feed.FeedType, limit int) ([]feed.ContentCandidate, error) {
	return s.next.Candidates(ctx, userID, feedType, limit)
}

// Trending serves the trending pool from cache when a stored list for
// the same window covers the requested limit, refetching otherwise.
func (s *CachingSource) Trending(ctx context.Context, window time.Duration, limit int) ([]feed.ContentCandidate, error) {
	key := trendingKey(window)
	if items, ok := s.cache.GetPopularity(ctx, key); ok && len(items) >= limit {
		return truncated(items, limit), nil
	}

	items, err := s.next.Trending(ctx, window, limit)
	if err != nil {
		return nil, err
	}
	s.cache.StorePopularity(ctx, key, items)
	s.logger.Debug().Str("key", key).Int("items", len(items)).Msg("refreshed trending pool")
	// The stored list and the returned one must not share a backing
	// array: callers may reorder their slice in place.
	return truncated(items, limit), nil
}

// Popular serves the lifetime-popularity pool from cache when the
// stored list covers the requested limit, refetching otherwise.
func (s *CachingSource) Popular(ctx context.Context, limit int) ([]feed.ContentCandidate, error) {
	if items, ok := s.cache.GetPopularity(ctx, popularKey); ok && len(items) >= limit {
		return truncated(items, limit), nil
	}

	items, err := s.next.Popular(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.cache.StorePopularity(ctx, popularKey, items)
	s.logger.Debug().Int("items", len(items)).Msg("refreshed popular pool")
	return truncated(items, limit), nil
}

// ByTopic passes through to the wrapped source.
func (s *CachingSource) ByTopic(ctx context.Context, topic string, limit int) ([]feed.ContentCandidate, error) {
	return s.next.ByTopic(ctx, topic, limit)
}

var _ feed.CandidateSource = (*CachingSource)(nil)

const popularKey = "popular"

// trendingKey derives a cache key per trending window so callers with
// different windows never share a pool.
func trendingKey(window time.Duration) string {
	return fmt.Sprintf("trending/%s", window)
}

// truncated returns a copy of at most limit items so callers never
// alias the cached backing array.
func truncated(items []feed.ContentCandidate, limit int) []feed.ContentCandidate {
	if limit > len(items) {
		limit = len(items)
	}
	out := make([]feed.ContentCandidate, limit)
	copy(out, items[:limit])
	return out
}
