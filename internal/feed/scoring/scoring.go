// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package scoring turns content candidates into ranked, explainable
// scores. The composite score is a weighted sum of recency, popularity,
// and relevance signals plus follow/engagement bonuses and any custom
// signals, multiplied by the personalization factor from the blender.
// Scoring is pure and deterministic: the same input always produces the
// same scores, so candidates can be scored in parallel chunks without
// coordination.
package scoring

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/feedloom/internal/feed"
	"github.com/tomtom215/feedloom/internal/feed/personalize"
)

// Reason thresholds. A signal below its threshold never produces the
// corresponding inclusion reason.
const (
	reasonTopicThreshold      = 0.70
	reasonAffinityThreshold   = 0.70
	reasonTrendingThreshold   = 0.60
	reasonRecencyThreshold    = 0.80
	reasonPopularityThreshold = 0.70
	reasonContextThreshold    = 0.70

	maxReasons = 3
)

// Engine implements feed.Scorer. It owns the per-user relevance
// calculators and the personalization blender; everything it needs per
// call arrives in the ScoringInput.
type Engine struct {
	cfg       feed.ScoringConfig
	relevance feed.RelevanceConfig

	topics  *personalize.TopicRelevance
	sources *personalize.SourceAffinity
	context *personalize.ContextRelevance
	blender *personalize.Blender
}

var _ feed.Scorer = (*Engine)(nil)

// NewEngine builds a scoring engine from the feed configuration.
func NewEngine(cfg *feed.Config) *Engine {
	return &Engine{
		cfg:       cfg.Scoring,
		relevance: cfg.Relevance,
		topics:    personalize.NewTopicRelevance(cfg.Relevance),
		sources:   personalize.NewSourceAffinity(cfg.Affinity),
		context:   personalize.NewContextRelevance(cfg.Contextual),
		blender:   personalize.NewBlender(cfg.Blend),
	}
}

// ScoreAll scores every candidate and returns results in input order.
// Candidates are processed in fixed-size chunks so large pools spread
// across cores; each chunk writes only its own slice segment.
func (e *Engine) ScoreAll(ctx context.Context, in *feed.ScoringInput) ([]feed.ScoredCandidate, error) {
	if in == nil || len(in.Candidates) == 0 {
		return nil, nil
	}

	byAuthor, positives := groupHistory(in.History)

	out := make([]feed.ScoredCandidate, len(in.Candidates))
	chunk := e.cfg.ChunkSize
	if chunk < 1 {
		chunk = 64
	}

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(in.Candidates); start += chunk {
		end := start + chunk
		if end > len(in.Candidates) {
			end = len(in.Candidates)
		}
		lo, hi := start, end
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := in.Candidates[i]
				out[i] = e.scoreOne(c, in, byAuthor[c.AuthorID], positives[c.AuthorID])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyRatioControl runs the blender's optional dominance control over
// an already sorted result set. It is a no-op unless enabled in the
// blend configuration.
func (e *Engine) ApplyRatioControl(scored []feed.ScoredCandidate) {
	e.blender.ApplyRatioControl(scored)
}

//nolint:gocritic // candidate is passed by value to keep scoring free of aliasing
func (e *Engine) scoreOne(c feed.ContentCandidate, in *feed.ScoringInput, authorHistory []feed.EngagementEvent, positiveEvents int) feed.ScoredCandidate {
	age := c.Age(in.Now)
	w := in.Weights

	recency := e.recencyScore(age)
	popularity := e.popularityScore(c.Metrics, age)
	topic := e.topics.Score(c.Topics, in.Profile.TopicInterests)
	relevance := e.relevanceScore(&c, in.Profile, topic, positiveEvents)

	base := w.Recency*recency + w.Popularity*popularity + w.Relevance*relevance
	if c.FollowedAuthor {
		base += w.Following
	}
	engagement := clamp01(c.Metrics.EngagementRate() * e.cfg.EngagementRateScale)
	base += w.Engagement * engagement

	components := map[string]float64{
		"recency":    recency,
		"popularity": popularity,
		"relevance":  relevance,
		"topic":      topic,
	}
	for name, weight := range w.Custom {
		signal := e.customSignal(name, c.Metrics, age)
		components[name] = signal
		base += weight * signal
	}
	base = clamp01(base)

	affinity := e.sources.Score(c.AuthorID, authorHistory, in.Now)
	contextual, confidence := e.context.Score(&c, in.Context, in.Now)
	components["source_affinity"] = affinity
	components["contextual"] = contextual

	factors := personalize.Factors{
		Topic:      topic,
		Source:     affinity,
		Context:    contextual,
		Confidence: confidence,
	}
	multiplier := e.blender.Multiplier(base, factors, age)
	components["base"] = base
	components["multiplier"] = multiplier

	score := clamp01(base * multiplier)
	if relevance == 0 && (in.Profile.BlocksAuthor(c.AuthorID) || in.Profile.BlocksAnyTopic(c.Topics)) {
		score = 0
	}

	return feed.ScoredCandidate{
		Candidate:  c,
		Score:      score,
		Components: components,
		Reasons:    e.deriveReasons(&c, components),
		Source:     classifySource(&c, components),
	}
}

// customSignal resolves a custom weight name to its signal value.
// Unknown names contribute nothing so experiment parameters can carry
// weights this build does not compute yet.
func (e *Engine) customSignal(name string, m feed.EngagementMetrics, age time.Duration) float64 {
	switch name {
	case feed.SignalTrending:
		return e.trendingSignal(m, age)
	default:
		return 0
	}
}

// deriveReasons explains why a candidate qualifies, dominant signal
// first. A followed author always leads; remaining reasons order by
// signal strength and the list caps at maxReasons.
func (e *Engine) deriveReasons(c *feed.ContentCandidate, components map[string]float64) []feed.InclusionReason {
	type scored struct {
		reason feed.InclusionReason
		value  float64
	}
	var ranked []scored

	add := func(reason feed.InclusionReason, key string, threshold float64) {
		if v, ok := components[key]; ok && v >= threshold {
			ranked = append(ranked, scored{reason, v})
		}
	}
	add(feed.ReasonTopicInterest, "topic", reasonTopicThreshold)
	add(feed.ReasonSourceAffinity, "source_affinity", reasonAffinityThreshold)
	add(feed.ReasonTrending, feed.SignalTrending, reasonTrendingThreshold)
	add(feed.ReasonRecency, "recency", reasonRecencyThreshold)
	add(feed.ReasonPopular, "popularity", reasonPopularityThreshold)
	add(feed.ReasonContextual, "contextual", reasonContextThreshold)

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].value > ranked[j].value })

	reasons := make([]feed.InclusionReason, 0, maxReasons)
	if c.FollowedAuthor {
		reasons = append(reasons, feed.ReasonFollowedSource)
	}
	for _, r := range ranked {
		if len(reasons) >= maxReasons {
			break
		}
		reasons = append(reasons, r.reason)
	}
	if len(reasons) == 0 {
		reasons = append(reasons, fallbackReason(components))
	}
	return reasons
}

// fallbackReason picks the strongest baseline signal so every entry has
// at least one explanation.
func fallbackReason(components map[string]float64) feed.InclusionReason {
	reason := feed.ReasonRecency
	best := components["recency"]
	if v := components["popularity"]; v > best {
		best = v
		reason = feed.ReasonPopular
	}
	if v := components["contextual"]; v > best {
		reason = feed.ReasonContextual
	}
	return reason
}

// classifySource buckets the candidate for diversity accounting and
// client display.
func classifySource(c *feed.ContentCandidate, components map[string]float64) feed.SourceType {
	switch {
	case c.Promoted:
		return feed.SourcePromoted
	case c.FollowedAuthor:
		return feed.SourceFollowed
	case components[feed.SignalTrending] >= reasonTrendingThreshold:
		return feed.SourceTrending
	default:
		return feed.SourceRecommendation
	}
}

// groupHistory pre-buckets engagement history by author so per-candidate
// scoring avoids rescanning the whole window.
func groupHistory(history []feed.EngagementEvent) (map[string][]feed.EngagementEvent, map[string]int) {
	if len(history) == 0 {
		return nil, nil
	}
	byAuthor := make(map[string][]feed.EngagementEvent)
	positives := make(map[string]int)
	for _, ev := range history {
		if ev.AuthorID == "" {
			continue
		}
		byAuthor[ev.AuthorID] = append(byAuthor[ev.AuthorID], ev)
		if ev.Type.Positive() {
			positives[ev.AuthorID]++
		}
	}
	return byAuthor, positives
}
