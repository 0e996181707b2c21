// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package diversity implements post-ranking distribution constraints.
// A feed of ten straight posts by one prolific author is a worse feed
// than its scores suggest, so the enforcer walks the ranked list
// greedily and admits candidates subject to per-author, per-topic, and
// per-content-type caps plus minimum spacing between entries sharing an
// author or dominant topic.
package diversity

import (
	"context"
	"strings"

	"github.com/tomtom215/feedloom/internal/feed"
)

// Enforcer selects a diversity-constrained prefix from a ranked
// candidate list.
//
// Selection rules, in priority order:
//   - Hard caps always hold: an author, dominant topic, or content type
//     at its cap admits nothing more, even if the feed comes up short.
//   - Author spacing prefers deferral: a candidate placed too close to
//     a prior same-author entry is passed over while any alternative
//     exists, and admitted with a proximity penalty only when the pool
//     has nothing else left.
//   - Topic spacing is soft: violating entries are admitted with the
//     proximity penalty applied to their recorded score.
//   - Once the feed is mostly full, the rebalancing pass prefers the
//     best candidate of an under-represented content type and tags it
//     DIVERSITY when that pick jumps score order.
type Enforcer struct {
	cfg feed.DiversityConfig
}

// NewEnforcer creates a diversity enforcer from configuration.
func NewEnforcer(cfg feed.DiversityConfig) *Enforcer {
	return &Enforcer{cfg: cfg}
}

// Apply selects up to limit entries from the descending-score-sorted
// input. The emission order is the final rank order; penalized scores
// are recorded but never trigger a re-sort, since re-sorting would
// undo the spacing the penalties account for.
//
//nolint:gocritic // rangeValCopy: ScoredCandidate copied on admit, the copy is mutated
func (e *Enforcer) Apply(ctx context.Context, scored []feed.ScoredCandidate, limit int) []feed.ScoredCandidate {
	if len(scored) == 0 || limit <= 0 {
		return nil
	}
	if !e.cfg.Enabled {
		n := limit
		if n > len(scored) {
			n = len(scored)
		}
		out := make([]feed.ScoredCandidate, n)
		copy(out, scored[:n])
		return out
	}

	st := newSelection(e.cfg, limit, len(scored))
	out := make([]feed.ScoredCandidate, 0, limit)

	for len(out) < limit {
		pick, rebalanced := st.next(scored)
		if pick < 0 {
			break
		}
		c := scored[pick]
		pos := len(out)
		if p := st.penalty(&c, pos); p > 0 {
			c.Score *= 1 - p
		}
		if rebalanced {
			c.Reasons = withReason(c.Reasons, feed.ReasonDiversity)
		}
		st.admit(&c, pick, pos)
		out = append(out, c)
	}
	return out
}

// selection tracks running counts and last-seen positions during one
// Apply walk.
type selection struct {
	cfg   feed.DiversityConfig
	limit int

	used        []bool
	emitted     int
	authorCount map[string]int
	topicCount  map[string]int
	typeCount   map[feed.ContentType]int
	lastAuthor  map[string]int
	lastTopic   map[string]int
}

func newSelection(cfg feed.DiversityConfig, limit, pool int) *selection {
	return &selection{
		cfg:         cfg,
		limit:       limit,
		used:        make([]bool, pool),
		authorCount: make(map[string]int),
		topicCount:  make(map[string]int),
		typeCount:   make(map[feed.ContentType]int),
		lastAuthor:  make(map[string]int),
		lastTopic:   make(map[string]int),
	}
}

// next returns the index of the candidate to admit, or -1 when every
// remaining candidate is capped out. The second result reports whether
// the pick displaced a better-scored candidate for type balance.
func (s *selection) next(scored []feed.ScoredCandidate) (int, bool) {
	firstSpaced := -1
	firstUnder := -1
	firstCapped := -1
	rebalancing := s.rebalancing()

	for i := range scored {
		if s.used[i] {
			continue
		}
		c := &scored[i]
		if !s.withinCaps(c) {
			continue
		}
		if firstCapped < 0 {
			firstCapped = i
		}
		if !s.authorSpaced(c) {
			continue
		}
		if firstSpaced < 0 {
			firstSpaced = i
		}
		if rebalancing && firstUnder < 0 && s.underRepresented(c.Candidate.Type) {
			firstUnder = i
		}
		if firstSpaced >= 0 && (!rebalancing || firstUnder >= 0) {
			break
		}
	}

	if rebalancing && firstUnder >= 0 && firstUnder != firstSpaced {
		return firstUnder, true
	}
	if firstSpaced >= 0 {
		return firstSpaced, false
	}
	// Spacing exception: the pool has no alternative author left.
	return firstCapped, false
}

// withinCaps reports whether admitting the candidate keeps every hard
// cap satisfied.
func (s *selection) withinCaps(c *feed.ScoredCandidate) bool {
	if s.authorCount[authorKey(c)] >= s.cfg.MaxPerAuthor {
		return false
	}
	if t := dominantTopic(c); t != "" && s.topicCount[t] >= s.cfg.MaxPerTopic {
		return false
	}
	return s.typeCount[c.Candidate.Type] < s.cfg.MaxPerType
}

// authorSpaced reports whether the next position is far enough from the
// author's previous entry.
func (s *selection) authorSpaced(c *feed.ScoredCandidate) bool {
	last, seen := s.lastAuthor[authorKey(c)]
	if !seen {
		return true
	}
	return s.emitted-last >= s.cfg.AuthorSpacing
}

// penalty returns the multiplicative proximity penalty for admitting
// the candidate at pos: base-penalty scaled by how far inside the
// spacing window the placement lands, author violations weighted
// heavier than topic violations, summed and capped at 1.
func (s *selection) penalty(c *feed.ScoredCandidate, pos int) float64 {
	p := 0.0
	if last, seen := s.lastAuthor[authorKey(c)]; seen {
		if d := pos - last; d < s.cfg.AuthorSpacing {
			p += s.cfg.BasePenalty * s.cfg.AuthorPenaltyWeight *
				float64(s.cfg.AuthorSpacing-d) / float64(s.cfg.AuthorSpacing)
		}
	}
	if t := dominantTopic(c); t != "" {
		if last, seen := s.lastTopic[t]; seen {
			if d := pos - last; d < s.cfg.TopicSpacing {
				p += s.cfg.BasePenalty *
					float64(s.cfg.TopicSpacing-d) / float64(s.cfg.TopicSpacing)
			}
		}
	}
	if p > 1 {
		p = 1
	}
	return p
}

func (s *selection) admit(c *feed.ScoredCandidate, idx, pos int) {
	s.used[idx] = true
	a := authorKey(c)
	s.authorCount[a]++
	s.lastAuthor[a] = pos
	if t := dominantTopic(c); t != "" {
		s.topicCount[t]++
		s.lastTopic[t] = pos
	}
	s.typeCount[c.Candidate.Type]++
	s.emitted++
}

// rebalancing reports whether enough slots are filled for the
// type-distribution pass to start steering picks.
func (s *selection) rebalancing() bool {
	if s.cfg.RebalanceThreshold <= 0 || len(s.cfg.TypeDistribution) == 0 {
		return false
	}
	return float64(s.emitted) >= s.cfg.RebalanceThreshold*float64(s.limit)
}

// underRepresented reports whether the type sits below its target share
// of the feed. Types without a target are never promoted.
func (s *selection) underRepresented(t feed.ContentType) bool {
	target, ok := s.cfg.TypeDistribution[t]
	if !ok {
		return false
	}
	return float64(s.typeCount[t]) < target*float64(s.limit)
}

func authorKey(c *feed.ScoredCandidate) string {
	return strings.ToLower(c.Candidate.AuthorID)
}

// dominantTopic is the candidate's first topic, the one caps and
// spacing account against.
func dominantTopic(c *feed.ScoredCandidate) string {
	if len(c.Candidate.Topics) == 0 {
		return ""
	}
	return strings.ToLower(c.Candidate.Topics[0])
}

func withReason(reasons []feed.InclusionReason, r feed.InclusionReason) []feed.InclusionReason {
	for _, have := range reasons {
		if have == r {
			return reasons
		}
	}
	out := make([]feed.InclusionReason, 0, len(reasons)+1)
	out = append(out, reasons...)
	return append(out, r)
}

// Ensure Enforcer implements the interface.
var _ feed.Diversifier = (*Enforcer)(nil)
