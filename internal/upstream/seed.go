// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package upstream

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/tomtom215/feedloom/internal/feed"
)

// Corpus shape. Items spread over two weeks so trending windows have
// fresh momentum to rank while popularity still favors older volume.
const (
	corpusItems       = 240
	corpusSpreadHours = 24 * 14
	corpusHistoryDays = 30
)

var corpusTopics = []string{
	"golang", "kotlin", "rust", "python", "typescript",
	"webdev", "devops", "databases", "distributed-systems", "machine-learning",
	"security", "mobile", "cloud", "linux", "opensource",
}

var corpusAuthors = []string{
	"alice-writes", "bob-builds", "carol-codes", "dave-designs", "erin-engineers",
	"frank-fixes", "grace-graphs", "henry-hacks", "iris-iterates", "jack-joins",
	"kara-kernels", "liam-links", "mona-models", "nate-nets", "olive-opts",
	"pete-pipes", "quinn-queries", "rosa-runtimes", "sam-ships", "tess-tests",
}

var corpusTitles = []string{
	"Understanding %s",
	"Getting Started with %s",
	"%s in Production",
	"Why We Chose %s",
	"Profiling %s Services",
	"A Field Guide to %s",
	"%s Performance Notes",
	"Migrating to %s",
	"Debugging %s at Scale",
	"The State of %s",
}

// demoUsers defines the established accounts in the corpus. History and
// timestamps are generated; everything declarative lives here.
var demoUsers = []struct {
	id            string
	interests     map[string]float64
	follows       []string
	blockedUsers  []string
	blockedTopics []string
	languages     []string
	typeWeights   map[feed.ContentType]float64
}{
	{
		id:        "demo-ada",
		interests: map[string]float64{"golang": 0.9, "distributed-systems": 0.7, "databases": 0.5},
		follows:   []string{"alice-writes", "sam-ships", "quinn-queries"},
		languages: []string{"en"},
	},
	{
		id:          "demo-grace",
		interests:   map[string]float64{"machine-learning": 0.95, "python": 0.8, "cloud": 0.4},
		follows:     []string{"mona-models", "grace-graphs", "erin-engineers", "iris-iterates"},
		languages:   []string{"en"},
		typeWeights: map[feed.ContentType]float64{feed.ContentVideo: 0.8, feed.ContentText: 0.6},
	},
	{
		id:            "demo-linus",
		interests:     map[string]float64{"linux": 1.0, "opensource": 0.8, "security": 0.4},
		follows:       []string{"kara-kernels", "henry-hacks"},
		blockedUsers:  []string{"pete-pipes"},
		blockedTopics: []string{"mobile"},
		languages:     []string{"en", "de"},
	},
	{
		id:        "demo-margaret",
		interests: map[string]float64{"devops": 0.85, "cloud": 0.7, "databases": 0.6, "golang": 0.3},
		follows:   []string{"frank-fixes", "olive-opts", "rosa-runtimes", "sam-ships", "tess-tests"},
		languages: []string{"en"},
	},
	{
		id:          "demo-ken",
		interests:   map[string]float64{"rust": 0.9, "webdev": 0.5, "typescript": 0.5},
		follows:     []string{"bob-builds", "liam-links"},
		languages:   []string{"en", "es"},
		typeWeights: map[feed.ContentType]float64{feed.ContentText: 0.9},
	},
	{
		id:            "demo-barbara",
		interests:     map[string]float64{"kotlin": 0.9, "mobile": 0.8, "typescript": 0.4},
		follows:       []string{"carol-codes", "jack-joins", "nate-nets"},
		blockedTopics: []string{"crypto"},
		languages:     []string{"en"},
	},
}

// seedCorpus fills the store with deterministic demo data.
func (s *Store) seedCorpus(seed int64) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // math/rand is fine for demo data
	now := time.Now()

	s.items = buildItems(rng, now)

	for _, du := range demoUsers {
		profile := &feed.UserPreferenceProfile{
			UserID:             du.id,
			TopicInterests:     du.interests,
			FollowedAuthors:    du.follows,
			BlockedAuthors:     du.blockedUsers,
			BlockedTopics:      du.blockedTopics,
			Languages:          du.languages,
			ContentTypeWeights: du.typeWeights,
			CreatedAt:          now.AddDate(0, 0, -120-rng.Intn(400)),
		}
		history := buildHistory(rng, now, s.items, du.interests)
		profile.EngagementCount = len(history)
		if len(history) > 0 {
			profile.LastActiveAt = history[0].OccurredAt
		}
		s.users[du.id] = &seedUser{profile: profile, history: history}
		s.order = append(s.order, du.id)
	}

	s.addNewcomer(now)
}

// addNewcomer seeds one day-old account with a thin history, so the
// cold-start path is reachable with a known user id.
func (s *Store) addNewcomer(now time.Time) {
	const id = "demo-newcomer"
	history := []feed.EngagementEvent{
		{
			ContentID:  s.items[0].ID,
			AuthorID:   s.items[0].AuthorID,
			Type:       feed.EngageLike,
			Topics:     s.items[0].Topics,
			OccurredAt: now.Add(-2 * time.Hour),
		},
		{
			ContentID:  s.items[1].ID,
			AuthorID:   s.items[1].AuthorID,
			Type:       feed.EngageClick,
			Topics:     s.items[1].Topics,
			OccurredAt: now.Add(-20 * time.Hour),
		},
	}
	s.users[id] = &seedUser{
		profile: &feed.UserPreferenceProfile{
			UserID:          id,
			TopicInterests:  map[string]float64{"golang": 0.6},
			EngagementCount: len(history),
			CreatedAt:       now.Add(-24 * time.Hour),
			LastActiveAt:    history[0].OccurredAt,
		},
		history: history,
	}
	s.order = append(s.order, id)
}

// buildItems generates the content corpus, newest first.
func buildItems(rng *rand.Rand, now time.Time) []feed.ContentCandidate {
	items := make([]feed.ContentCandidate, corpusItems)
	for i := range items {
		topic := corpusTopics[rng.Intn(len(corpusTopics))]
		topics := []string{topic}
		if rng.Float64() < 0.4 {
			second := corpusTopics[rng.Intn(len(corpusTopics))]
			if second != topic {
				topics = append(topics, second)
			}
		}

		impressions := int64(500 + rng.Intn(24500))
		likes := int64(float64(impressions) * (0.01 + 0.08*rng.Float64()))

		items[i] = feed.ContentCandidate{
			ID:        fmt.Sprintf("content-%03d", i+1),
			AuthorID:  corpusAuthors[rng.Intn(len(corpusAuthors))],
			Title:     fmt.Sprintf(corpusTitles[rng.Intn(len(corpusTitles))], topic),
			Topics:    topics,
			Type:      drawContentType(rng),
			Language:  drawLanguage(rng),
			CreatedAt: now.Add(-time.Duration(rng.Intn(corpusSpreadHours*60)) * time.Minute),
			Metrics: feed.EngagementMetrics{
				Likes:       likes,
				Comments:    likes / int64(4+rng.Intn(6)),
				Shares:      likes / int64(6+rng.Intn(10)),
				Clicks:      impressions / int64(8+rng.Intn(12)),
				Impressions: impressions,
			},
			Promoted: rng.Float64() < 0.04,
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// buildHistory draws engagement events for one user, biased toward
// items matching their stated interests, newest first.
func buildHistory(rng *rand.Rand, now time.Time, items []feed.ContentCandidate, interests map[string]float64) []feed.EngagementEvent {
	matching := make([]int, 0, len(items))
	for i, item := range items {
		for _, t := range item.Topics {
			if _, ok := interests[t]; ok {
				matching = append(matching, i)
				break
			}
		}
	}

	count := 40 + rng.Intn(120)
	history := make([]feed.EngagementEvent, count)
	for i := range history {
		var item feed.ContentCandidate
		if len(matching) > 0 && rng.Float64() < 0.75 {
			item = items[matching[rng.Intn(len(matching))]]
		} else {
			item = items[rng.Intn(len(items))]
		}
		history[i] = feed.EngagementEvent{
			ContentID:  item.ID,
			AuthorID:   item.AuthorID,
			Type:       drawEngagement(rng),
			Topics:     item.Topics,
			OccurredAt: now.Add(-time.Duration(rng.Intn(corpusHistoryDays*24*60)) * time.Minute),
		}
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].OccurredAt.After(history[j].OccurredAt)
	})
	return history
}

func drawContentType(rng *rand.Rand) feed.ContentType {
	switch r := rng.Float64(); {
	case r < 0.50:
		return feed.ContentText
	case r < 0.70:
		return feed.ContentImage
	case r < 0.90:
		return feed.ContentVideo
	default:
		return feed.ContentLink
	}
}

func drawLanguage(rng *rand.Rand) string {
	switch r := rng.Float64(); {
	case r < 0.85:
		return "en"
	case r < 0.93:
		return "de"
	default:
		return "es"
	}
}

func drawEngagement(rng *rand.Rand) feed.EngagementType {
	switch r := rng.Float64(); {
	case r < 0.40:
		return feed.EngageClick
	case r < 0.70:
		return feed.EngageLike
	case r < 0.82:
		return feed.EngageComment
	case r < 0.90:
		return feed.EngageShare
	default:
		return feed.EngageDwell
	}
}
