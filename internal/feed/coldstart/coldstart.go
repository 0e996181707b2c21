// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package coldstart serves users the ranking pipeline cannot personalize
// yet. Detection treats young accounts, thin engagement histories, and
// long-dormant users alike; generation blends trending content, a
// diverse topic sample, and a lifetime-popularity fallback instead of
// leaning on preference signals that do not exist.
package coldstart

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/feed"
)

// Maturity scales for the personalization level. A user reaches full
// maturity on a dimension at these values; beyond them the dimension
// saturates at 1.
const (
	ageMaturityDays    = 30.0
	engagementMaturity = 50.0
	interestMaturity   = 10.0
)

// Personalization level blend weights over account age, engagement
// volume, and stated interest count.
const (
	ageLevelWeight        = 0.4
	engagementLevelWeight = 0.4
	interestLevelWeight   = 0.2
)

// Weight shift factors. At level 0 recency rises 50%, popularity 80%,
// and relevance drops to its floor share of the configured weight.
const (
	recencyColdScale    = 0.5
	popularityColdScale = 0.8
	relevanceFloorShare = 0.25
)

// Strategy implements feed.ColdStartStrategy backed by a candidate
// source for trending, general, and popular retrieval.
type Strategy struct {
	cfg    feed.ColdStartConfig
	limits feed.LimitsConfig
	source feed.CandidateSource
	logger zerolog.Logger
}

// NewStrategy creates a cold-start strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStrategy(cfg feed.ColdStartConfig, limits feed.LimitsConfig, source feed.CandidateSource, logger zerolog.Logger) *Strategy {
	return &Strategy{
		cfg:    cfg,
		limits: limits,
		source: source,
		logger: logger.With().Str("component", "coldstart").Logger(),
	}
}

// IsNewUser reports whether the user lacks the behavioral signal needed
// for confident personalization. Any one trigger is enough.
func (s *Strategy) IsNewUser(profile *feed.UserPreferenceProfile, now time.Time) bool {
	if profile == nil {
		return true
	}
	if profile.AccountAge(now) <= time.Duration(s.cfg.NewUserThresholdDays)*24*time.Hour {
		return true
	}
	if profile.EngagementCount < s.cfg.MinEngagementActions {
		return true
	}
	if profile.LastActiveAt.IsZero() {
		return true
	}
	return now.Sub(profile.LastActiveAt) > time.Duration(s.cfg.InactiveThresholdDays)*24*time.Hour
}

// PersonalizationLevel blends normalized account age, engagement volume,
// and stated interest count into [0, 1].
func (s *Strategy) PersonalizationLevel(profile *feed.UserPreferenceProfile, now time.Time) float64 {
	if profile == nil {
		return 0
	}
	age := clamp01(profile.AccountAge(now).Hours() / (24 * ageMaturityDays))
	engagement := clamp01(float64(profile.EngagementCount) / engagementMaturity)
	interests := clamp01(float64(len(profile.TopicInterests)) / interestMaturity)
	return ageLevelWeight*age + engagementLevelWeight*engagement + interestLevelWeight*interests
}

// Weights shifts resolved weights toward recency and popularity as the
// personalization level drops, scales relevance down to a floor share,
// and sets the trending custom weight from the remaining cold-start
// share. A fully mature user gets the base weights back untouched.
//
//nolint:gocritic // value semantics keep the caller's weights immutable
func (s *Strategy) Weights(base feed.ScoringWeights, level float64) feed.ScoringWeights {
	level = clamp01(level)
	cold := 1 - level
	if cold == 0 {
		return base.Normalize()
	}

	w := base
	w.Recency *= 1 + recencyColdScale*cold
	w.Popularity *= 1 + popularityColdScale*cold
	w.Relevance *= relevanceFloorShare + (1-relevanceFloorShare)*level
	w = w.Normalize()
	return w.WithCustom(feed.SignalTrending, s.cfg.TrendingWeight*cold)
}

// Generate builds the oversampled cold-start candidate pool: a trending
// slice, a diverse topic sample, and a popularity fallback, deduped and
// safety-filtered. Fetch failures degrade to the remaining slices; only
// an entirely empty pool is an error.
func (s *Strategy) Generate(ctx context.Context, req *feed.FeedRequest, profile *feed.UserPreferenceProfile, now time.Time) ([]feed.ContentCandidate, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.limits.DefaultLimit
	}
	budget := int(s.limits.OversampleFactor * float64(limit))
	if budget < limit {
		budget = limit
	}
	if budget > s.limits.MaxCandidates {
		budget = s.limits.MaxCandidates
	}

	var pool []feed.ContentCandidate

	if n := int(s.cfg.TrendingWeight * float64(budget)); n > 0 {
		trending, err := s.source.Trending(ctx, s.cfg.TrendingWindow, n)
		if err != nil {
			s.logger.Warn().Err(err).Msg("trending fetch failed, continuing without trending slice")
		} else {
			pool = append(pool, trending...)
		}
	}

	if s.cfg.DiversitySampling {
		general, err := s.source.Candidates(ctx, req.UserID, req.FeedType, budget)
		if err != nil {
			s.logger.Warn().Err(err).Msg("candidate fetch failed, continuing without topic sampling")
		} else {
			pool = append(pool, s.sampleTopics(general)...)
		}
	}

	if s.cfg.PopularFallback && len(pool) < budget {
		popular, err := s.source.Popular(ctx, budget)
		if err != nil {
			s.logger.Warn().Err(err).Msg("popular fetch failed, continuing without fallback slice")
		} else {
			for _, c := range popular {
				if c.Metrics.WeightedTotal() >= s.cfg.PopularMinEngagement {
					pool = append(pool, c)
				}
			}
		}
	}

	out := s.safetyFilter(dedupe(pool), profile)
	if len(out) == 0 {
		return nil, feed.ErrNoCandidates
	}
	if len(out) > budget {
		out = out[:budget]
	}
	return out, nil
}

// sampleTopics groups candidates by tag and draws a bounded sample from
// the largest groups, best-engaged items first. Groups below the minimum
// size are skipped; they cannot demonstrate topical breadth.
func (s *Strategy) sampleTopics(candidates []feed.ContentCandidate) []feed.ContentCandidate {
	groups := make(map[string][]feed.ContentCandidate)
	for _, c := range candidates {
		for _, topic := range c.Topics {
			key := strings.ToLower(strings.TrimSpace(topic))
			if key != "" {
				groups[key] = append(groups[key], c)
			}
		}
	}

	type topicGroup struct {
		name  string
		items []feed.ContentCandidate
	}
	ordered := make([]topicGroup, 0, len(groups))
	for name, items := range groups {
		if len(items) >= s.cfg.MinItemsPerTopic {
			ordered = append(ordered, topicGroup{name: name, items: items})
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].items) != len(ordered[j].items) {
			return len(ordered[i].items) > len(ordered[j].items)
		}
		return ordered[i].name < ordered[j].name
	})
	if len(ordered) > s.cfg.MaxTopics {
		ordered = ordered[:s.cfg.MaxTopics]
	}

	var out []feed.ContentCandidate
	for _, g := range ordered {
		sort.SliceStable(g.items, func(i, j int) bool {
			return g.items[i].Metrics.WeightedTotal() > g.items[j].Metrics.WeightedTotal()
		})
		n := s.cfg.MaxItemsPerTopic
		if n > len(g.items) {
			n = len(g.items)
		}
		out = append(out, g.items[:n]...)
	}
	return out
}

// safetyFilter drops candidates the user must never see: blocked
// authors and topics, mismatched languages, and content types the user
// has explicitly zeroed out.
func (s *Strategy) safetyFilter(candidates []feed.ContentCandidate, profile *feed.UserPreferenceProfile) []feed.ContentCandidate {
	if profile == nil {
		return candidates
	}
	out := make([]feed.ContentCandidate, 0, len(candidates))
	for _, c := range candidates {
		if profile.BlocksAuthor(c.AuthorID) || profile.BlocksAnyTopic(c.Topics) {
			continue
		}
		if !languageAllowed(c.Language, profile.Languages) {
			continue
		}
		if w, ok := profile.ContentTypeWeights[c.Type]; ok && w <= 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// languageAllowed matches by BCP 47 prefix; missing data on either side
// passes.
func languageAllowed(lang string, preferred []string) bool {
	if lang == "" || len(preferred) == 0 {
		return true
	}
	lowered := strings.ToLower(lang)
	for _, p := range preferred {
		lp := strings.ToLower(p)
		if lowered == lp || strings.HasPrefix(lowered, lp+"-") || strings.HasPrefix(lp, lowered+"-") {
			return true
		}
	}
	return false
}

func dedupe(candidates []feed.ContentCandidate) []feed.ContentCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]feed.ContentCandidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Ensure Strategy implements the interface.
var _ feed.ColdStartStrategy = (*Strategy)(nil)
