// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package personalize

import (
	"math"
	"strings"

	"github.com/tomtom215/feedloom/internal/feed"
)

// TopicRelevance scores how well a candidate's topics match a user's
// stated interests using a hierarchical matcher:
//
//	exact tag match        -> 1.0
//	fuzzy match            -> partial weight (substring + edit distance)
//	same category          -> category weight
//	no match               -> 0
//
// Match strength is scaled by the user's interest weight for the matched
// interest, then lifted by a specificity bonus for precise topics and a
// diversity bonus when matches span multiple categories.
type TopicRelevance struct {
	cfg        feed.RelevanceConfig
	categories map[string]string
}

// NewTopicRelevance creates a topic relevance calculator with the
// built-in topic category table.
func NewTopicRelevance(cfg feed.RelevanceConfig) *TopicRelevance {
	return &TopicRelevance{cfg: cfg, categories: defaultTopicCategories()}
}

// Score returns the topic relevance in [0, 1]. Empty topics or empty
// interests return a neutral 0.5 since absence of signal is not absence
// of relevance.
func (t *TopicRelevance) Score(topics []string, interests map[string]float64) float64 {
	if len(topics) == 0 || len(interests) == 0 {
		return 0.5
	}

	var (
		best              float64
		bestTopic         string
		matchedCategories = map[string]struct{}{}
	)

	for _, topic := range topics {
		lowered := strings.ToLower(strings.TrimSpace(topic))
		if lowered == "" {
			continue
		}
		for interest, weight := range interests {
			li := strings.ToLower(strings.TrimSpace(interest))
			if li == "" || weight <= 0 {
				continue
			}

			strength := t.matchStrength(lowered, li)
			if strength == 0 {
				continue
			}

			contribution := strength * clamp01(weight)
			if contribution > best {
				best = contribution
				bestTopic = lowered
			}
			if cat := t.categoryOf(lowered); cat != "" {
				matchedCategories[cat] = struct{}{}
			}
		}
	}

	if best == 0 {
		return 0
	}

	score := best
	if t.isSpecific(bestTopic, interests) {
		score += t.cfg.SpecificityBonus
	}
	if len(matchedCategories) > 1 {
		score += t.cfg.DiversityBonus
	}
	return clamp01(score)
}

// matchStrength returns the hierarchical match strength for one
// (topic, interest) pair, both already lowercased.
func (t *TopicRelevance) matchStrength(topic, interest string) float64 {
	if topic == interest {
		return 1.0
	}
	if similarity(topic, interest) >= t.cfg.SimilarityThreshold {
		return t.cfg.PartialMatchWeight
	}
	tc, ic := t.categoryOf(topic), t.categoryOf(interest)
	if tc != "" && tc == ic {
		return t.cfg.CategoryMatchWeight
	}
	return 0
}

func (t *TopicRelevance) categoryOf(topic string) string {
	return t.categories[topic]
}

// isSpecific reports whether a topic is precise enough to earn the
// specificity bonus: long, hyphenated, or explicitly preference-listed.
func (t *TopicRelevance) isSpecific(topic string, interests map[string]float64) bool {
	if len(topic) >= 8 || strings.Contains(topic, "-") {
		return true
	}
	for interest := range interests {
		if strings.EqualFold(interest, topic) {
			return true
		}
	}
	return false
}

// similarity combines position-weighted substring containment with
// normalized Levenshtein distance. Both terms fall in [0, 1]; earlier
// containment and shorter edit distances score higher.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	var containment float64
	if idx := strings.Index(longer, shorter); idx >= 0 {
		coverage := float64(len(shorter)) / float64(len(longer))
		position := 1.0 - 0.5*float64(idx)/float64(len(longer))
		containment = coverage * position
	}

	dist := levenshtein(a, b)
	maxLen := math.Max(float64(len(a)), float64(len(b)))
	edit := 1.0 - float64(dist)/maxLen

	return 0.5*containment + 0.5*edit
}

// levenshtein computes the edit distance using the two-row method.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
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

// defaultTopicCategories maps well-known topics to coarse categories for
// category-level matching. Unlisted topics simply never category-match.
func defaultTopicCategories() map[string]string {
	table := map[string][]string{
		"programming": {
			"go", "golang", "kotlin", "java", "rust", "python", "javascript",
			"typescript", "swift", "ruby", "programming", "coding", "software",
			"devops", "cloud", "kubernetes", "databases", "web-development",
			"machine-learning", "ai", "data-science", "security", "linux",
			"open-source", "backend", "frontend",
		},
		"sports": {
			"sports", "football", "soccer", "basketball", "tennis", "cricket",
			"baseball", "running", "cycling", "fitness", "yoga", "climbing",
			"nfl", "nba", "premier-league", "bundesliga", "ligue-1",
			"tour-de-france", "futebol",
		},
		"entertainment": {
			"movies", "film", "cinema", "tv", "series", "streaming", "anime",
			"manga", "comics", "celebrities", "bollywood",
		},
		"music": {
			"music", "concerts", "hip-hop", "rock", "jazz", "classical", "pop",
			"electronic", "vinyl", "jpop", "samba",
		},
		"gaming": {
			"gaming", "games", "esports", "video-games", "board-games", "rpg",
			"nintendo", "playstation", "xbox",
		},
		"food": {
			"food", "cooking", "recipes", "baking", "restaurants", "coffee",
			"wine", "vegan", "barbecue",
		},
		"travel": {
			"travel", "backpacking", "hiking", "camping", "aviation", "hotels",
			"roadtrip",
		},
		"science": {
			"science", "physics", "biology", "chemistry", "astronomy", "space",
			"mathematics", "climate", "research",
		},
		"news": {
			"news", "politics", "economy", "world-news", "elections", "policy",
		},
		"finance": {
			"finance", "investing", "stocks", "crypto", "bitcoin", "economics",
			"personal-finance", "real-estate",
		},
		"art": {
			"art", "design", "photography", "illustration", "architecture",
			"fashion", "crafts",
		},
		"health": {
			"health", "nutrition", "mental-health", "medicine", "wellness",
			"meditation",
		},
	}

	out := make(map[string]string, 128)
	for category, topics := range table {
		for _, topic := range topics {
			out[topic] = category
		}
	}
	return out
}
