// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package personalize computes per-user relevance signals and blends them
// into a personalization multiplier.
//
// Three calculators produce normalized [0, 1] factors:
//
//   - TopicRelevance: candidate topics against stated interests
//   - SourceAffinity: engagement history with the candidate's author
//   - ContextRelevance: situational fit (time, location, session, device)
//
// The Blender combines the factors into a multiplier applied to a
// candidate's base score. All calculators are pure and safe for
// concurrent use; degraded inputs substitute neutral factors rather than
// failing a generation.
package personalize

import (
	"time"

	"github.com/tomtom215/feedloom/internal/feed"
)

// minRatioSample is how many items must be emitted before ratio control
// penalties apply; shares over tiny prefixes are meaningless.
const minRatioSample = 3

// harmonicEpsilon replaces zero factors in the harmonic mean so one dead
// factor dampens rather than annihilates the blend.
const harmonicEpsilon = 0.01

// Factors are the three personalization inputs for one candidate.
type Factors struct {
	// Topic is the topic relevance factor.
	Topic float64

	// Source is the source affinity factor.
	Source float64

	// Context is the contextual relevance factor.
	Context float64

	// Confidence reports how much contextual signal backed Context.
	Confidence feed.ConfidenceLevel
}

// NeutralFactors returns the factors used when personalization inputs are
// unavailable. Blending them yields a multiplier close to 1.
func NeutralFactors() Factors {
	return Factors{
		Topic:      0.5,
		Source:     0.5,
		Context:    0.5,
		Confidence: feed.ConfidenceMinimal,
	}
}

// Blender folds personalization factors into a per-candidate multiplier.
//
// The combination is a 70/30 mix of a weighted linear sum and a harmonic
// mean; the harmonic term pulls the blend down when factors diverge
// sharply, so one strong factor cannot mask two weak ones. Quality
// amplification lets content with a higher base score benefit more from
// personalization. Contextual bonuses and penalties, then a bounded
// freshness boost, adjust the result before it is clamped to the
// configured multiplier range.
type Blender struct {
	cfg feed.BlendConfig
}

// NewBlender creates a blender.
func NewBlender(cfg feed.BlendConfig) *Blender {
	return &Blender{cfg: cfg}
}

// Multiplier returns the personalization multiplier for one candidate.
// base is the candidate's composite score, age its content age. Pure:
// ratio control runs separately in ApplyRatioControl.
func (b *Blender) Multiplier(base float64, f Factors, age time.Duration) float64 {
	combined := b.combine(f)

	amplification := b.cfg.AmplificationFloor +
		(b.cfg.AmplificationCeiling-b.cfg.AmplificationFloor)*clamp01(base)

	// combined 0.5 with neutral amplification lands exactly at 1.0.
	multiplier := 0.5 + combined*amplification

	if f.Topic > 0.7 && f.Source > 0.7 && f.Context > 0.6 {
		multiplier += b.cfg.StrongMatchBonus
	} else if f.Context > 0.8 {
		multiplier += b.cfg.ContextBonus
	}
	if f.Source < 0.3 {
		multiplier -= b.cfg.WeakSourcePenalty
	}

	multiplier *= 1 + b.cfg.RecencyBoostMax*halfLifeDecay(age, b.cfg.RecencyBoostHalfLife)

	return clampRange(multiplier, b.cfg.MinMultiplier, b.cfg.MaxMultiplier)
}

// combine mixes the weighted linear sum with the harmonic mean.
func (b *Blender) combine(f Factors) float64 {
	weightSum := b.cfg.TopicWeight + b.cfg.SourceWeight + b.cfg.ContextWeight
	if weightSum <= 0 {
		weightSum = 1
	}
	linear := (b.cfg.TopicWeight*f.Topic +
		b.cfg.SourceWeight*f.Source +
		b.cfg.ContextWeight*f.Context) / weightSum

	harmonic := harmonicMean(f.Topic, f.Source, f.Context)

	shareSum := b.cfg.LinearShare + b.cfg.HarmonicShare
	if shareSum <= 0 {
		return linear
	}
	return (b.cfg.LinearShare*linear + b.cfg.HarmonicShare*harmonic) / shareSum
}

// ApplyRatioControl walks a ranked list in order and penalizes entries
// whose dominant topic or author exceeds its configured share of the list
// so far. No-op unless ratio control is enabled; the diversity enforcer
// is the authoritative diversification stage and enabling both compounds
// penalties.
func (b *Blender) ApplyRatioControl(scored []feed.ScoredCandidate) {
	if !b.cfg.RatioControl {
		return
	}

	topicCounts := map[string]int{}
	sourceCounts := map[string]int{}

	for i := range scored {
		item := &scored[i]
		topic := dominantTopic(&item.Candidate)
		author := item.Candidate.AuthorID

		if i >= minRatioSample {
			emitted := float64(i + 1)
			violations := 0
			if topic != "" && float64(topicCounts[topic]+1)/emitted > b.cfg.MaxTopicRatio {
				violations++
			}
			if author != "" && float64(sourceCounts[author]+1)/emitted > b.cfg.MaxSourceRatio {
				violations++
			}
			if violations > 0 {
				item.Score = clamp01(item.Score - b.cfg.RatioPenalty*float64(violations))
			}
		}

		if topic != "" {
			topicCounts[topic]++
		}
		if author != "" {
			sourceCounts[author]++
		}
	}
}

// dominantTopic returns the candidate's first topic, its primary tag.
func dominantTopic(c *feed.ContentCandidate) string {
	if len(c.Topics) == 0 {
		return ""
	}
	return c.Topics[0]
}

func harmonicMean(values ...float64) float64 {
	var sum float64
	for _, v := range values {
		if v < harmonicEpsilon {
			v = harmonicEpsilon
		}
		sum += 1 / v
	}
	return float64(len(values)) / sum
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
