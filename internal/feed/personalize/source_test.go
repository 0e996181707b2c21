// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package personalize

import (
	"testing"
	"time"

	"github.com/tomtom215/feedloom/internal/feed"
)

var affinityNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func engagements(authorID string, age time.Duration, types ...feed.EngagementType) []feed.EngagementEvent {
	events := make([]feed.EngagementEvent, 0, len(types))
	for i, et := range types {
		events = append(events, feed.EngagementEvent{
			ContentID:  "c" + string(rune('a'+i)),
			AuthorID:   authorID,
			Type:       et,
			Topics:     []string{"golang"},
			OccurredAt: affinityNow.Add(-age),
		})
	}
	return events
}

func TestSourceAffinityUnseenDefault(t *testing.T) {
	cfg := feed.DefaultConfig().Affinity
	sa := NewSourceAffinity(cfg)

	got := sa.Score("stranger", nil, affinityNow)
	if got != cfg.UnseenDefault {
		t.Errorf("Score() for unseen source = %v, want %v", got, cfg.UnseenDefault)
	}

	// History about other authors must not count either.
	other := engagements("someone-else", time.Hour, feed.EngageLike, feed.EngageShare)
	if got := sa.Score("stranger", other, affinityNow); got != cfg.UnseenDefault {
		t.Errorf("Score() with unrelated history = %v, want %v", got, cfg.UnseenDefault)
	}
}

func TestSourceAffinityPositiveHistory(t *testing.T) {
	sa := NewSourceAffinity(feed.DefaultConfig().Affinity)

	history := engagements("friend", time.Hour,
		feed.EngageLike, feed.EngageShare, feed.EngageComment, feed.EngageBookmark)

	got := sa.Score("friend", history, affinityNow)
	if got <= 0.6 {
		t.Errorf("Score() for fresh positive history = %v, want > 0.6", got)
	}
}

func TestSourceAffinityNegativeHistoryZeroes(t *testing.T) {
	sa := NewSourceAffinity(feed.DefaultConfig().Affinity)

	history := engagements("blocked-adjacent", time.Hour,
		feed.EngageReport, feed.EngageHide, feed.EngageReport)

	got := sa.Score("blocked-adjacent", history, affinityNow)
	if got != 0 {
		t.Errorf("Score() for all-negative history = %v, want 0", got)
	}
}

func TestSourceAffinityNegativesOutweighPositives(t *testing.T) {
	sa := NewSourceAffinity(feed.DefaultConfig().Affinity)

	// One like against one report: the amplified negative ratio should
	// pull the score below the unseen default.
	history := engagements("mixed", time.Hour, feed.EngageLike, feed.EngageReport)

	got := sa.Score("mixed", history, affinityNow)
	unseen := feed.DefaultConfig().Affinity.UnseenDefault
	if got >= unseen {
		t.Errorf("Score() for mixed history = %v, want below unseen default %v", got, unseen)
	}
}

func TestSourceAffinityTemporalDecay(t *testing.T) {
	sa := NewSourceAffinity(feed.DefaultConfig().Affinity)

	fresh := sa.Score("a", engagements("a", time.Hour, feed.EngageLike, feed.EngageShare), affinityNow)
	stale := sa.Score("a", engagements("a", 90*24*time.Hour, feed.EngageLike, feed.EngageShare), affinityNow)

	if stale >= fresh {
		t.Errorf("stale history %v should score below fresh history %v", stale, fresh)
	}
}

func TestSourceAffinityTopicDiversityBonus(t *testing.T) {
	sa := NewSourceAffinity(feed.DefaultConfig().Affinity)

	narrow := engagements("a", time.Hour, feed.EngageLike, feed.EngageLike, feed.EngageLike)
	diverse := engagements("a", time.Hour, feed.EngageLike, feed.EngageLike, feed.EngageLike)
	diverse[0].Topics = []string{"golang"}
	diverse[1].Topics = []string{"jazz"}
	diverse[2].Topics = []string{"cooking"}

	narrowScore := sa.Score("a", narrow, affinityNow)
	diverseScore := sa.Score("a", diverse, affinityNow)

	if diverseScore <= narrowScore {
		t.Errorf("diverse-topic history %v should outscore single-topic %v", diverseScore, narrowScore)
	}
}

func TestSourceAffinityDeterministic(t *testing.T) {
	sa := NewSourceAffinity(feed.DefaultConfig().Affinity)
	history := engagements("a", 3*time.Hour,
		feed.EngageLike, feed.EngageDwell, feed.EngageComment, feed.EngageHide)

	first := sa.Score("a", history, affinityNow)
	second := sa.Score("a", history, affinityNow)
	if first != second {
		t.Errorf("Score() not deterministic: %v != %v", first, second)
	}
}

func TestSourceAffinityBounded(t *testing.T) {
	sa := NewSourceAffinity(feed.DefaultConfig().Affinity)

	// Heavy positive engagement across many topics must still clamp.
	history := make([]feed.EngagementEvent, 0, 40)
	topics := []string{"golang", "jazz", "cooking", "travel"}
	for i := 0; i < 40; i++ {
		history = append(history, feed.EngagementEvent{
			AuthorID:   "a",
			Type:       feed.EngageShare,
			Topics:     []string{topics[i%len(topics)]},
			OccurredAt: affinityNow.Add(-time.Duration(i) * time.Hour),
		})
	}

	got := sa.Score("a", history, affinityNow)
	if got < 0 || got > 1 {
		t.Errorf("Score() = %v, want within [0, 1]", got)
	}
}

func TestVariance(t *testing.T) {
	if got := variance([]float64{1, 1, 1}); got != 0 {
		t.Errorf("variance of constant = %v, want 0", got)
	}
	if got := variance([]float64{1}); got != 0 {
		t.Errorf("variance of singleton = %v, want 0", got)
	}
	if got := variance([]float64{-3, 3}); got != 9 {
		t.Errorf("variance(-3, 3) = %v, want 9", got)
	}
}

func TestNormalizedEntropy(t *testing.T) {
	if got := normalizedEntropy(map[string]int{"golang": 5}, 5); got != 0 {
		t.Errorf("entropy of single topic = %v, want 0", got)
	}

	uniform := normalizedEntropy(map[string]int{"a": 2, "b": 2, "c": 2}, 6)
	if uniform < 0.999 || uniform > 1.001 {
		t.Errorf("entropy of uniform spread = %v, want 1.0", uniform)
	}

	skewed := normalizedEntropy(map[string]int{"a": 8, "b": 1, "c": 1}, 10)
	if skewed <= 0 || skewed >= uniform {
		t.Errorf("entropy of skewed spread = %v, want in (0, %v)", skewed, uniform)
	}
}

func TestHalfLifeDecay(t *testing.T) {
	hl := 24 * time.Hour

	if got := halfLifeDecay(0, hl); got != 1.0 {
		t.Errorf("decay at age 0 = %v, want 1.0", got)
	}
	if got := halfLifeDecay(24*time.Hour, hl); got < 0.499 || got > 0.501 {
		t.Errorf("decay at one half-life = %v, want 0.5", got)
	}
	if got := halfLifeDecay(48*time.Hour, hl); got < 0.249 || got > 0.251 {
		t.Errorf("decay at two half-lives = %v, want 0.25", got)
	}
	if got := halfLifeDecay(time.Hour, 0); got != 1.0 {
		t.Errorf("decay with zero half-life = %v, want 1.0", got)
	}
}
