// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package upstream provides seeded in-memory implementations of every
// provider the feed engine consumes: candidates, preference profiles,
// engagement history, request context, and prewarm pairs. The corpus is
// deterministic for a given seed, so the server can run standalone with
// demo data and the full pipeline can be exercised without a platform
// attached. A Store is immutable after construction and safe for
// concurrent use.
package upstream

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/feed"
)

// seedUser pairs a demo user's profile with their engagement history,
// newest first.
type seedUser struct {
	profile *feed.UserPreferenceProfile
	history []feed.EngagementEvent
}

// Store serves the seeded corpus through the engine's provider
// interfaces.
type Store struct {
	logger zerolog.Logger
	items  []feed.ContentCandidate
	users  map[string]*seedUser
	order  []string
}

var (
	_ feed.CandidateSource   = (*Store)(nil)
	_ feed.PreferenceStore   = (*Store)(nil)
	_ feed.EngagementHistory = (*Store)(nil)
	_ feed.ContextSource     = (*Store)(nil)
)

// NewStore builds a store with the demo corpus generated from seed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(seed int64, logger zerolog.Logger) *Store {
	s := &Store{
		logger: logger.With().Str("component", "upstream").Logger(),
		users:  make(map[string]*seedUser),
	}
	s.seedCorpus(seed)
	s.logger.Info().
		Int64("seed", seed).
		Int("items", len(s.items)).
		Int("users", len(s.order)).
		Msg("seeded in-memory upstream")
	return s
}

// Candidates returns up to limit candidates for the surface. FOLLOWING
// restricts to the user's followed authors; every other surface gets a
// broad pool, newest first, with TRENDING ordered by engagement
// velocity instead.
func (s *Store) Candidates(ctx context.Context, userID string, feedType feed.FeedType, limit int) ([]feed.ContentCandidate, error) {
	switch feedType {
	case feed.FeedFollowing:
		return s.followedCandidates(userID, limit), nil
	case feed.FeedTrending:
		return s.velocityRanked(s.items, time.Now(), limit), nil
	default:
		return copyItems(s.items, limit), nil
	}
}

func (s *Store) followedCandidates(userID string, limit int) []feed.ContentCandidate {
	u, ok := s.users[userID]
	if !ok || len(u.profile.FollowedAuthors) == 0 {
		return nil
	}
	followed := make(map[string]struct{}, len(u.profile.FollowedAuthors))
	for _, id := range u.profile.FollowedAuthors {
		followed[id] = struct{}{}
	}

	out := make([]feed.ContentCandidate, 0, limit)
	for _, item := range s.items {
		if _, ok := followed[item.AuthorID]; !ok {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Trending returns candidates published within the window ranked by
// engagement velocity: weighted engagement discounted by age so fresh
// momentum outranks accumulated volume.
func (s *Store) Trending(ctx context.Context, window time.Duration, limit int) ([]feed.ContentCandidate, error) {
	now := time.Now()
	recent := make([]feed.ContentCandidate, 0, len(s.items))
	for _, item := range s.items {
		if now.Sub(item.CreatedAt) <= window {
			recent = append(recent, item)
		}
	}
	return s.velocityRanked(recent, now, limit), nil
}

// Popular returns candidates ranked by lifetime weighted engagement.
func (s *Store) Popular(ctx context.Context, limit int) ([]feed.ContentCandidate, error) {
	ranked := append([]feed.ContentCandidate(nil), s.items...)
	sort.Slice(ranked, func(i, j int) bool {
		wi, wj := ranked[i].Metrics.WeightedTotal(), ranked[j].Metrics.WeightedTotal()
		if wi != wj {
			return wi > wj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return truncate(ranked, limit), nil
}

// ByTopic returns candidates whose topics contain the given term,
// newest first. Matching is case-insensitive.
func (s *Store) ByTopic(ctx context.Context, topic string, limit int) ([]feed.ContentCandidate, error) {
	term := strings.ToLower(topic)
	out := make([]feed.ContentCandidate, 0, limit)
	for _, item := range s.items {
		if !hasTopic(item.Topics, term) {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Preferences returns the seeded profile for known users. Unknown users
// get a neutral profile, which the cold-start thresholds classify as a
// new account. The returned profile is shared: treat it as read-only.
func (s *Store) Preferences(ctx context.Context, userID string) (*feed.UserPreferenceProfile, error) {
	if u, ok := s.users[userID]; ok {
		return u.profile, nil
	}
	return feed.NeutralPreferences(userID), nil
}

// RecentEngagements returns up to limit of the user's engagement
// events, newest first. Unknown users have none.
func (s *Store) RecentEngagements(ctx context.Context, userID string, limit int) ([]feed.EngagementEvent, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	if len(u.history) > limit {
		return u.history[:limit], nil
	}
	return u.history, nil
}

// Context derives a plausible request context: the clock supplies hour
// and weekday, the user id deterministically picks device and session
// shape so repeated requests for one user agree.
func (s *Store) Context(ctx context.Context, userID string) (*feed.UserContext, error) {
	now := time.Now()
	h := userHash(userID)
	devices := []feed.DeviceType{feed.DeviceMobile, feed.DeviceDesktop, feed.DeviceTablet}
	return &feed.UserContext{
		Hour:            now.Hour(),
		Weekday:         now.Weekday(),
		Device:          devices[h%uint32(len(devices))],
		SessionDuration: time.Duration(2+h%13) * time.Minute,
		SessionDepth:    int(h % 20),
	}, nil
}

// PrewarmPairs lists the seeded users on their HOME surface in corpus
// order, so the prewarmer has a stable population to keep warm.
func (s *Store) PrewarmPairs(ctx context.Context, limit int) ([]feed.PrewarmPair, error) {
	n := len(s.order)
	if limit > 0 && n > limit {
		n = limit
	}
	pairs := make([]feed.PrewarmPair, 0, n)
	for _, userID := range s.order[:n] {
		pairs = append(pairs, feed.PrewarmPair{UserID: userID, FeedType: feed.FeedHome})
	}
	return pairs, nil
}

// velocityRanked orders items by weighted engagement discounted by age.
// The +2 hour offset keeps brand-new items from dividing by nothing and
// the 1.2 exponent decays momentum a little faster than linearly.
func (s *Store) velocityRanked(items []feed.ContentCandidate, now time.Time, limit int) []feed.ContentCandidate {
	type rankedItem struct {
		item     feed.ContentCandidate
		velocity float64
	}
	ranked := make([]rankedItem, len(items))
	for i, item := range items {
		hours := now.Sub(item.CreatedAt).Hours()
		if hours < 0 {
			hours = 0
		}
		ranked[i] = rankedItem{
			item:     item,
			velocity: item.Metrics.WeightedTotal() / math.Pow(hours+2, 1.2),
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].velocity != ranked[j].velocity {
			return ranked[i].velocity > ranked[j].velocity
		}
		return ranked[i].item.ID < ranked[j].item.ID
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]feed.ContentCandidate, limit)
	for i := range out {
		out[i] = ranked[i].item
	}
	return out
}

func copyItems(items []feed.ContentCandidate, limit int) []feed.ContentCandidate {
	if limit > len(items) {
		limit = len(items)
	}
	out := make([]feed.ContentCandidate, limit)
	copy(out, items[:limit])
	return out
}

func truncate(items []feed.ContentCandidate, limit int) []feed.ContentCandidate {
	if limit >= len(items) {
		return items
	}
	return items[:limit]
}

func hasTopic(topics []string, term string) bool {
	for _, t := range topics {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

func userHash(userID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return h.Sum32()
}
