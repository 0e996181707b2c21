// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package personalize

import (
	"strings"
	"time"

	"github.com/tomtom215/feedloom/internal/feed"
)

// neutralScore substitutes for sub-scores whose context signal is missing.
const neutralScore = 0.5

// ContextRelevance scores how well a candidate fits the user's current
// situation from four weighted sub-scores: temporal (hour and weekday
// alignment with content type), location (regional topic and language
// proxies), session (session length, depth, and recently-seen avoidance),
// and device (content-type capability fit). Missing signals score neutral
// and lower the reported confidence instead of failing.
type ContextRelevance struct {
	cfg feed.ContextualConfig
}

// NewContextRelevance creates a contextual relevance calculator.
func NewContextRelevance(cfg feed.ContextualConfig) *ContextRelevance {
	return &ContextRelevance{cfg: cfg}
}

// Score returns the contextual relevance in [0, 1] and the confidence
// derived from how many of the four signals were available. A nil context
// scores neutral with minimal confidence.
func (c *ContextRelevance) Score(candidate *feed.ContentCandidate, uctx *feed.UserContext, now time.Time) (float64, feed.ConfidenceLevel) {
	if uctx == nil {
		return neutralScore, feed.ConfidenceMinimal
	}

	signals := 0

	temporal := neutralScore
	if uctx.Hour >= 0 && uctx.Hour < 24 {
		signals++
		temporal = temporalScore(candidate, uctx, now)
	}

	location := neutralScore
	if uctx.Location != nil && uctx.Location.Country != "" {
		signals++
		location = locationScore(candidate, uctx.Location)
	}

	session := neutralScore
	if uctx.SessionDuration > 0 || uctx.SessionDepth > 0 || len(uctx.RecentItemIDs) > 0 {
		signals++
		session = sessionScore(candidate, uctx)
	}

	device := neutralScore
	if uctx.Device != "" {
		signals++
		device = deviceScore(candidate.Type, uctx.Device)
	}

	overall := c.cfg.TemporalWeight*temporal +
		c.cfg.LocationWeight*location +
		c.cfg.SessionWeight*session +
		c.cfg.DeviceWeight*device

	return clamp01(overall), feed.ConfidenceFromSignals(signals)
}

// hourBands groups the day into consumption patterns: mornings favor
// quick reads, evenings favor leaned-back video.
var hourBandAlignment = map[string]map[feed.ContentType]float64{
	"morning": {feed.ContentText: 0.75, feed.ContentLink: 0.70, feed.ContentImage: 0.55, feed.ContentVideo: 0.35},
	"midday":  {feed.ContentText: 0.60, feed.ContentLink: 0.60, feed.ContentImage: 0.60, feed.ContentVideo: 0.50},
	"evening": {feed.ContentText: 0.45, feed.ContentLink: 0.45, feed.ContentImage: 0.65, feed.ContentVideo: 0.85},
	"night":   {feed.ContentText: 0.50, feed.ContentLink: 0.40, feed.ContentImage: 0.55, feed.ContentVideo: 0.65},
}

// peakHours are the platform's high-traffic hours, where freshness earns
// a small alignment bonus.
var peakHours = map[int]bool{
	7: true, 8: true, 9: true, 12: true, 13: true,
	19: true, 20: true, 21: true, 22: true,
}

func temporalScore(candidate *feed.ContentCandidate, uctx *feed.UserContext, now time.Time) float64 {
	band := hourBand(uctx.Hour)
	score, ok := hourBandAlignment[band][candidate.Type]
	if !ok {
		score = neutralScore
	}

	// Weekends shift consumption toward visual content.
	if uctx.Weekday == time.Saturday || uctx.Weekday == time.Sunday {
		if candidate.Type == feed.ContentVideo || candidate.Type == feed.ContentImage {
			score += 0.10
		}
	}

	// Fresh content at peak hours rides the traffic wave; the bonus
	// decays with content age.
	if peakHours[uctx.Hour] {
		score += 0.10 * halfLifeDecay(candidate.Age(now), 6*time.Hour)
	}

	return clamp01(score)
}

func hourBand(hour int) string {
	switch {
	case hour >= 6 && hour < 11:
		return "morning"
	case hour >= 11 && hour < 17:
		return "midday"
	case hour >= 17 && hour < 23:
		return "evening"
	default:
		return "night"
	}
}

// countryTopics maps country codes to regionally resonant topics, a
// coarse stand-in for a real local-interest service.
var countryTopics = map[string][]string{
	"us": {"nfl", "nba", "baseball", "thanksgiving"},
	"gb": {"football", "premier-league", "cricket"},
	"de": {"bundesliga", "oktoberfest"},
	"fr": {"ligue-1", "tour-de-france"},
	"in": {"cricket", "bollywood"},
	"jp": {"anime", "manga", "jpop"},
	"br": {"futebol", "carnival", "samba"},
}

// countryLanguage maps country codes to their dominant content language,
// used as a cultural proxy when no explicit language preference applies.
var countryLanguage = map[string]string{
	"us": "en", "gb": "en", "au": "en", "in": "en",
	"de": "de", "fr": "fr", "jp": "ja", "br": "pt", "es": "es",
}

func locationScore(candidate *feed.ContentCandidate, loc *feed.Location) float64 {
	score := neutralScore
	country := strings.ToLower(loc.Country)

	if local := countryTopics[country]; len(local) > 0 {
		for _, topic := range candidate.Topics {
			lowered := strings.ToLower(topic)
			for _, lt := range local {
				if lowered == lt {
					score += 0.25
					break
				}
			}
		}
	}

	if lang := countryLanguage[country]; lang != "" && candidate.Language != "" {
		if strings.HasPrefix(strings.ToLower(candidate.Language), lang) {
			score += 0.15
		}
	}

	return clamp01(score)
}

func sessionScore(candidate *feed.ContentCandidate, uctx *feed.UserContext) float64 {
	// Re-surfacing something the user just saw is the one hard miss.
	for _, id := range uctx.RecentItemIDs {
		if id == candidate.ID {
			return 0
		}
	}

	score := neutralScore

	// Session length to content length: quick sessions favor skimmable
	// formats, settled sessions favor video.
	switch {
	case uctx.SessionDuration > 0 && uctx.SessionDuration < 5*time.Minute:
		if candidate.Type == feed.ContentImage || candidate.Type == feed.ContentText {
			score += 0.20
		} else if candidate.Type == feed.ContentVideo {
			score -= 0.15
		}
	case uctx.SessionDuration > 20*time.Minute:
		if candidate.Type == feed.ContentVideo {
			score += 0.20
		}
	}

	// Deep into a session attention shortens, favor light formats.
	if uctx.SessionDepth > 30 {
		if candidate.Type == feed.ContentImage || candidate.Type == feed.ContentText {
			score += 0.10
		} else if candidate.Type == feed.ContentVideo {
			score -= 0.10
		}
	}

	return clamp01(score)
}

// deviceAlignment scores content types against device capabilities and
// typical interaction patterns.
var deviceAlignment = map[feed.DeviceType]map[feed.ContentType]float64{
	feed.DeviceMobile:  {feed.ContentText: 0.70, feed.ContentImage: 0.80, feed.ContentVideo: 0.50, feed.ContentLink: 0.60},
	feed.DeviceTablet:  {feed.ContentText: 0.60, feed.ContentImage: 0.80, feed.ContentVideo: 0.70, feed.ContentLink: 0.60},
	feed.DeviceDesktop: {feed.ContentText: 0.70, feed.ContentImage: 0.60, feed.ContentVideo: 0.60, feed.ContentLink: 0.80},
	feed.DeviceTV:      {feed.ContentText: 0.20, feed.ContentImage: 0.50, feed.ContentVideo: 0.90, feed.ContentLink: 0.20},
}

func deviceScore(ct feed.ContentType, device feed.DeviceType) float64 {
	if scores, ok := deviceAlignment[device]; ok {
		if score, ok := scores[ct]; ok {
			return score
		}
	}
	return neutralScore
}
