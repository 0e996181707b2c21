// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package personalize

import (
	"math"
	"time"

	"github.com/tomtom215/feedloom/internal/feed"
)

// staleFloor bounds how far the overall temporal decay can drag down a
// relationship that has gone quiet.
const staleFloor = 0.5

// SourceAffinity scores a user's relationship with a content author from
// engagement history. Signed per-engagement weights are temporally
// decayed, averaged, and squashed through a sigmoid, then boosted by
// consistency, recency, and topic-diversity bonuses and scaled by a
// reliability factor in which negative interactions are amplified.
// Sources the user never engaged with score a configurable default,
// never zero, so unknown authors remain discoverable.
type SourceAffinity struct {
	cfg feed.AffinityConfig
}

// NewSourceAffinity creates a source affinity calculator.
func NewSourceAffinity(cfg feed.AffinityConfig) *SourceAffinity {
	return &SourceAffinity{cfg: cfg}
}

// Score returns the affinity for authorID in [0, 1] given the user's
// engagement history.
func (s *SourceAffinity) Score(authorID string, history []feed.EngagementEvent, now time.Time) float64 {
	var (
		weights    []float64
		decaySum   float64
		weighted   float64
		positives  int
		negatives  int
		recent     int
		newestAge  time.Duration = -1
		topicCount               = map[string]int{}
		topicTotal int
	)

	for i := range history {
		ev := &history[i]
		if ev.AuthorID != authorID {
			continue
		}

		age := now.Sub(ev.OccurredAt)
		if age < 0 {
			age = 0
		}
		if newestAge < 0 || age < newestAge {
			newestAge = age
		}

		w := ev.Type.Weight()
		weights = append(weights, w)
		decay := halfLifeDecay(age, s.cfg.DecayHalfLife)
		decaySum += decay
		weighted += w * decay

		if ev.Type.Positive() {
			positives++
		} else if w < 0 {
			negatives++
		}
		if age <= s.cfg.RecentWindow {
			recent++
		}
		for _, topic := range ev.Topics {
			topicCount[topic]++
			topicTotal++
		}
	}

	total := len(weights)
	if total == 0 {
		return s.cfg.UnseenDefault
	}

	base := sigmoid(weighted / float64(total))

	consistency := 1.0 / (1.0 + variance(weights))
	recency := 0.5*(float64(recent)/float64(total)) + 0.5*(decaySum/float64(total))
	diversity := normalizedEntropy(topicCount, topicTotal)

	boosted := base * (1 +
		s.cfg.ConsistencyWeight*consistency +
		s.cfg.RecencyWeight*recency +
		s.cfg.DiversityWeight*diversity)

	reliability := clamp01(float64(positives)/float64(total) -
		s.cfg.NegativeAmplifier*float64(negatives)/float64(total))

	// Relationships that have gone quiet drift down, bounded so one old
	// positive history is dampened rather than erased.
	stale := math.Max(staleFloor, halfLifeDecay(newestAge, s.cfg.RecentWindow))

	return clamp01(boosted * reliability * stale)
}

// halfLifeDecay returns 2^(-age/halfLife), the exponential decay factor
// for an observation of the given age.
func halfLifeDecay(age, halfLife time.Duration) float64 {
	if halfLife <= 0 || age <= 0 {
		return 1.0
	}
	return math.Exp2(-float64(age) / float64(halfLife))
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// normalizedEntropy returns the Shannon entropy of the topic distribution
// normalized to [0, 1]. A single topic yields 0, a uniform spread 1.
func normalizedEntropy(counts map[string]int, total int) float64 {
	if total == 0 || len(counts) < 2 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}
	return h / math.Log(float64(len(counts)))
}
