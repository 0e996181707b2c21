// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/tomtom215/feedloom/internal/feed"
)

// perEventBonus is how much one positive engagement with an author adds
// to the relevance engagement bonus before the configured cap.
const perEventBonus = 0.05

// recencyScore returns exponential freshness decay with a floor, so old
// content stays rankable but never competes with fresh content on
// recency alone.
func (e *Engine) recencyScore(age time.Duration) float64 {
	decay := math.Exp2(-float64(age) / float64(e.cfg.RecencyHalfLife))
	if decay < e.cfg.RecencyFloor {
		return e.cfg.RecencyFloor
	}
	if decay > 1 {
		return 1
	}
	return decay
}

// popularityScore normalizes time-decayed weighted engagement through a
// log-scale sigmoid. Older content needs proportionally more engagement
// to hold its score; click-through rate folds in as engagement
// equivalents.
func (e *Engine) popularityScore(m feed.EngagementMetrics, age time.Duration) float64 {
	decayed := m.WeightedTotal() * math.Exp2(-float64(age)/float64(e.cfg.PopularityHalfLife))
	raw := decayed + m.ClickThroughRate()*e.cfg.CTRWeight
	if raw < 0 {
		raw = 0
	}
	return sigmoid((math.Log1p(raw) - e.cfg.PopularityMidpoint) / e.cfg.PopularityScale)
}

// trendingSignal returns a saturating engagement-velocity score: weighted
// engagement divided by a superlinear age term, so velocity matters more
// than volume.
func (e *Engine) trendingSignal(m feed.EngagementMetrics, age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	velocity := m.WeightedTotal() / math.Pow(hours+2, 1.2)
	return velocity / (velocity + e.cfg.TrendingMidpoint)
}

// relevanceScore combines topic, content-type, and language match, plus
// a capped historical-engagement bonus. It returns exactly 0 when the
// author is blocked or any topic hits a blocked-topic substring,
// regardless of every other signal.
func (e *Engine) relevanceScore(c *feed.ContentCandidate, profile *feed.UserPreferenceProfile, topicScore float64, positiveAuthorEvents int) float64 {
	if profile.BlocksAuthor(c.AuthorID) || profile.BlocksAnyTopic(c.Topics) {
		return 0
	}

	typeScore := 0.5
	if w, ok := profile.ContentTypeWeights[c.Type]; ok {
		typeScore = clamp01(w)
	}

	langScore := languageScore(c.Language, profile.Languages)

	combined := e.relevance.TopicShare*topicScore +
		e.relevance.TypeShare*typeScore +
		e.relevance.LanguageShare*langScore

	bonus := perEventBonus * float64(positiveAuthorEvents)
	if bonus > e.cfg.EngagementBonusCap {
		bonus = e.cfg.EngagementBonusCap
	}

	return clamp01(combined + bonus)
}

// languageScore matches candidate language against preferred languages
// by BCP 47 prefix. Missing data on either side is neutral; an outright
// mismatch scores low but not zero.
func languageScore(lang string, preferred []string) float64 {
	if lang == "" || len(preferred) == 0 {
		return 0.5
	}
	lowered := strings.ToLower(lang)
	for _, p := range preferred {
		lp := strings.ToLower(p)
		if lowered == lp || strings.HasPrefix(lowered, lp+"-") || strings.HasPrefix(lp, lowered+"-") {
			return 1.0
		}
	}
	return 0.2
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
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
