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

var contextNow = time.Date(2026, 8, 20, 20, 0, 0, 0, time.UTC)

func videoCandidate() *feed.ContentCandidate {
	return &feed.ContentCandidate{
		ID:        "video-1",
		AuthorID:  "a1",
		Topics:    []string{"movies"},
		Type:      feed.ContentVideo,
		Language:  "en",
		CreatedAt: contextNow.Add(-2 * time.Hour),
	}
}

func TestContextRelevanceNilContext(t *testing.T) {
	cr := NewContextRelevance(feed.DefaultConfig().Contextual)

	score, confidence := cr.Score(videoCandidate(), nil, contextNow)
	if score != 0.5 {
		t.Errorf("Score() = %v, want neutral 0.5", score)
	}
	if confidence != feed.ConfidenceMinimal {
		t.Errorf("confidence = %v, want MINIMAL", confidence)
	}
}

func TestContextRelevanceConfidenceLevels(t *testing.T) {
	cr := NewContextRelevance(feed.DefaultConfig().Contextual)

	tests := []struct {
		name string
		uctx *feed.UserContext
		want feed.ConfidenceLevel
	}{
		{
			name: "all four signals",
			uctx: &feed.UserContext{
				Hour:            20,
				Weekday:         time.Thursday,
				Device:          feed.DeviceTV,
				Location:        &feed.Location{Country: "US"},
				SessionDuration: 30 * time.Minute,
			},
			want: feed.ConfidenceHigh,
		},
		{
			name: "three signals",
			uctx: &feed.UserContext{
				Hour:            20,
				Device:          feed.DeviceMobile,
				SessionDuration: 5 * time.Minute,
			},
			want: feed.ConfidenceMedium,
		},
		{
			name: "two signals",
			uctx: &feed.UserContext{Hour: 20, Device: feed.DeviceMobile},
			want: feed.ConfidenceLow,
		},
		{
			name: "one signal",
			uctx: &feed.UserContext{Hour: -1, Device: feed.DeviceMobile},
			want: feed.ConfidenceMinimal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, confidence := cr.Score(videoCandidate(), tt.uctx, contextNow)
			if confidence != tt.want {
				t.Errorf("confidence = %v, want %v", confidence, tt.want)
			}
		})
	}
}

func TestContextRelevanceDeviceAlignment(t *testing.T) {
	cr := NewContextRelevance(feed.DefaultConfig().Contextual)
	tv := &feed.UserContext{Hour: -1, Device: feed.DeviceTV}

	video := videoCandidate()
	text := &feed.ContentCandidate{ID: "t1", Type: feed.ContentText, CreatedAt: video.CreatedAt}

	videoScore, _ := cr.Score(video, tv, contextNow)
	textScore, _ := cr.Score(text, tv, contextNow)

	if videoScore <= textScore {
		t.Errorf("video on TV %v should outscore text on TV %v", videoScore, textScore)
	}
}

func TestContextRelevanceEveningFavorsVideo(t *testing.T) {
	cr := NewContextRelevance(feed.DefaultConfig().Contextual)
	evening := &feed.UserContext{Hour: 20, Weekday: time.Thursday}
	morning := &feed.UserContext{Hour: 8, Weekday: time.Thursday}

	video := videoCandidate()

	eveningScore, _ := cr.Score(video, evening, contextNow)
	morningScore, _ := cr.Score(video, morning, contextNow)

	if eveningScore <= morningScore {
		t.Errorf("video in the evening %v should outscore video in the morning %v",
			eveningScore, morningScore)
	}
}

func TestContextRelevanceRecentlySeenPenalty(t *testing.T) {
	cr := NewContextRelevance(feed.DefaultConfig().Contextual)

	seen := &feed.UserContext{
		Hour:          -1,
		RecentItemIDs: []string{"video-1", "other"},
	}
	unseen := &feed.UserContext{
		Hour:          -1,
		RecentItemIDs: []string{"other"},
	}

	seenScore, _ := cr.Score(videoCandidate(), seen, contextNow)
	unseenScore, _ := cr.Score(videoCandidate(), unseen, contextNow)

	if seenScore >= unseenScore {
		t.Errorf("recently seen content %v should score below unseen %v", seenScore, unseenScore)
	}
}

func TestContextRelevanceLocalTopicBoost(t *testing.T) {
	cr := NewContextRelevance(feed.DefaultConfig().Contextual)
	uk := &feed.UserContext{Hour: -1, Location: &feed.Location{Country: "GB"}}

	cricket := &feed.ContentCandidate{
		ID: "c1", Topics: []string{"cricket"}, Type: feed.ContentText,
		CreatedAt: contextNow.Add(-time.Hour),
	}
	gardening := &feed.ContentCandidate{
		ID: "c2", Topics: []string{"gardening"}, Type: feed.ContentText,
		CreatedAt: contextNow.Add(-time.Hour),
	}

	cricketScore, _ := cr.Score(cricket, uk, contextNow)
	gardeningScore, _ := cr.Score(gardening, uk, contextNow)

	if cricketScore <= gardeningScore {
		t.Errorf("locally resonant topic %v should outscore neutral topic %v",
			cricketScore, gardeningScore)
	}
}

func TestContextRelevanceShortSessionFavorsLightFormats(t *testing.T) {
	cr := NewContextRelevance(feed.DefaultConfig().Contextual)
	quick := &feed.UserContext{Hour: -1, SessionDuration: 2 * time.Minute}

	image := &feed.ContentCandidate{ID: "i1", Type: feed.ContentImage, CreatedAt: contextNow.Add(-time.Hour)}
	video := &feed.ContentCandidate{ID: "v1", Type: feed.ContentVideo, CreatedAt: contextNow.Add(-time.Hour)}

	imageScore, _ := cr.Score(image, quick, contextNow)
	videoScore, _ := cr.Score(video, quick, contextNow)

	if imageScore <= videoScore {
		t.Errorf("image in a short session %v should outscore video %v", imageScore, videoScore)
	}
}

func TestContextRelevanceBounded(t *testing.T) {
	cr := NewContextRelevance(feed.DefaultConfig().Contextual)

	full := &feed.UserContext{
		Hour:            20,
		Weekday:         time.Saturday,
		Device:          feed.DeviceTV,
		Location:        &feed.Location{Country: "US", Timezone: "America/New_York"},
		SessionDuration: 45 * time.Minute,
		SessionDepth:    10,
	}

	score, _ := cr.Score(videoCandidate(), full, contextNow)
	if score < 0 || score > 1 {
		t.Errorf("Score() = %v, want within [0, 1]", score)
	}
}
