// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package coldstart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/feed"
)

var coldNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	trending []feed.ContentCandidate
	general  []feed.ContentCandidate
	popular  []feed.ContentCandidate

	trendingErr error
	generalErr  error
	popularErr  error
}

func (f *fakeSource) Candidates(_ context.Context, _ string, _ feed.FeedType, _ int) ([]feed.ContentCandidate, error) {
	return f.general, f.generalErr
}

func (f *fakeSource) Trending(_ context.Context, _ time.Duration, limit int) ([]feed.ContentCandidate, error) {
	if f.trendingErr != nil {
		return nil, f.trendingErr
	}
	if limit < len(f.trending) {
		return f.trending[:limit], nil
	}
	return f.trending, nil
}

func (f *fakeSource) Popular(_ context.Context, _ int) ([]feed.ContentCandidate, error) {
	return f.popular, f.popularErr
}

func (f *fakeSource) ByTopic(_ context.Context, _ string, _ int) ([]feed.ContentCandidate, error) {
	return nil, nil
}

func newStrategy(src feed.CandidateSource) *Strategy {
	cfg := feed.DefaultConfig()
	return NewStrategy(cfg.ColdStart, cfg.Limits, src, zerolog.Nop())
}

func cc(id, author, topic string, likes int64) feed.ContentCandidate {
	return feed.ContentCandidate{
		ID:        id,
		AuthorID:  author,
		Topics:    []string{topic},
		Type:      feed.ContentText,
		CreatedAt: coldNow.Add(-time.Hour),
		Metrics:   feed.EngagementMetrics{Likes: likes},
	}
}

func homeRequest(limit int) *feed.FeedRequest {
	return &feed.FeedRequest{UserID: "u1", FeedType: feed.FeedHome, Limit: limit}
}

func TestIsNewUser(t *testing.T) {
	s := newStrategy(&fakeSource{})

	mature := func() *feed.UserPreferenceProfile {
		return &feed.UserPreferenceProfile{
			UserID:          "u1",
			EngagementCount: 100,
			CreatedAt:       coldNow.Add(-60 * 24 * time.Hour),
			LastActiveAt:    coldNow.Add(-24 * time.Hour),
		}
	}

	tests := []struct {
		name   string
		mutate func(*feed.UserPreferenceProfile) *feed.UserPreferenceProfile
		want   bool
	}{
		{"nil profile", func(*feed.UserPreferenceProfile) *feed.UserPreferenceProfile { return nil }, true},
		{"mature user", func(p *feed.UserPreferenceProfile) *feed.UserPreferenceProfile { return p }, false},
		{"young account", func(p *feed.UserPreferenceProfile) *feed.UserPreferenceProfile {
			p.CreatedAt = coldNow.Add(-3 * 24 * time.Hour)
			return p
		}, true},
		{"thin history", func(p *feed.UserPreferenceProfile) *feed.UserPreferenceProfile {
			p.EngagementCount = 2
			return p
		}, true},
		{"long dormant", func(p *feed.UserPreferenceProfile) *feed.UserPreferenceProfile {
			p.LastActiveAt = coldNow.Add(-45 * 24 * time.Hour)
			return p
		}, true},
		{"never active", func(p *feed.UserPreferenceProfile) *feed.UserPreferenceProfile {
			p.LastActiveAt = time.Time{}
			return p
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsNewUser(tt.mutate(mature()), coldNow); got != tt.want {
				t.Errorf("IsNewUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPersonalizationLevel(t *testing.T) {
	s := newStrategy(&fakeSource{})

	brandNew := &feed.UserPreferenceProfile{UserID: "u1", CreatedAt: coldNow}
	casual := &feed.UserPreferenceProfile{
		UserID:          "u2",
		EngagementCount: 25,
		CreatedAt:       coldNow.Add(-15 * 24 * time.Hour),
		TopicInterests: map[string]float64{
			"a": 1, "b": 1, "c": 1, "d": 1, "e": 1,
		},
	}
	mature := &feed.UserPreferenceProfile{
		UserID:          "u3",
		EngagementCount: 500,
		CreatedAt:       coldNow.Add(-365 * 24 * time.Hour),
		TopicInterests: map[string]float64{
			"a": 1, "b": 1, "c": 1, "d": 1, "e": 1,
			"f": 1, "g": 1, "h": 1, "i": 1, "j": 1, "k": 1,
		},
	}

	if got := s.PersonalizationLevel(nil, coldNow); got != 0 {
		t.Errorf("PersonalizationLevel(nil) = %v, want 0", got)
	}
	if got := s.PersonalizationLevel(brandNew, coldNow); got != 0 {
		t.Errorf("PersonalizationLevel(brand new) = %v, want 0", got)
	}
	gotCasual := s.PersonalizationLevel(casual, coldNow)
	if gotCasual < 0.49 || gotCasual > 0.51 {
		t.Errorf("PersonalizationLevel(casual) = %v, want 0.5", gotCasual)
	}
	if got := s.PersonalizationLevel(mature, coldNow); got != 1.0 {
		t.Errorf("PersonalizationLevel(mature) = %v, want 1.0 (saturated)", got)
	}
}

func TestWeightsFullLevelReturnsBase(t *testing.T) {
	s := newStrategy(&fakeSource{})
	base := feed.DefaultWeights(feed.FeedHome)

	got := s.Weights(base, 1.0)
	if got.Recency != base.Recency || got.Relevance != base.Relevance {
		t.Errorf("Weights(level=1) = %+v, want base weights %+v", got, base)
	}
	if got.CustomWeight(feed.SignalTrending) != 0 {
		t.Errorf("Weights(level=1) trending = %v, want 0", got.CustomWeight(feed.SignalTrending))
	}
}

func TestWeightsColdShiftsTowardDiscovery(t *testing.T) {
	s := newStrategy(&fakeSource{})
	base := feed.DefaultWeights(feed.FeedHome)

	cold := s.Weights(base, 0)
	if sum := cold.CoreSum(); sum < 1-1e-6 || sum > 1+1e-6 {
		t.Errorf("cold CoreSum() = %v, want 1.0", sum)
	}
	if cold.Recency <= base.Recency {
		t.Errorf("cold Recency = %v, want above base %v", cold.Recency, base.Recency)
	}
	if cold.Popularity <= base.Popularity {
		t.Errorf("cold Popularity = %v, want above base %v", cold.Popularity, base.Popularity)
	}
	if cold.Relevance >= base.Relevance {
		t.Errorf("cold Relevance = %v, want below base %v", cold.Relevance, base.Relevance)
	}
	if got := cold.CustomWeight(feed.SignalTrending); got != 0.5 {
		t.Errorf("cold trending weight = %v, want 0.5", got)
	}

	half := s.Weights(base, 0.5)
	if got := half.CustomWeight(feed.SignalTrending); got != 0.25 {
		t.Errorf("half-level trending weight = %v, want 0.25", got)
	}
}

func TestGenerateBlendsSlices(t *testing.T) {
	src := &fakeSource{
		trending: []feed.ContentCandidate{
			cc("t1", "a1", "news", 100),
			cc("t2", "a2", "news", 90),
		},
		general: []feed.ContentCandidate{
			cc("g1", "a3", "golang", 50),
			cc("g2", "a4", "golang", 40),
			cc("g3", "a5", "jazz", 30),
			cc("g4", "a6", "jazz", 20),
			cc("g5", "a7", "solo-topic", 10),
		},
		popular: []feed.ContentCandidate{
			cc("p1", "a8", "movies", 500),
			cc("p2", "a9", "movies", 3),
		},
	}
	s := newStrategy(src)

	out, err := s.Generate(context.Background(), homeRequest(10), feed.NeutralPreferences("u1"), coldNow)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	ids := make(map[string]int)
	for _, c := range out {
		ids[c.ID]++
	}
	for _, want := range []string{"t1", "t2", "g1", "g4", "p1"} {
		if ids[want] == 0 {
			t.Errorf("Generate() missing %q", want)
		}
	}
	if ids["g5"] != 0 {
		t.Error("Generate() includes g5 from a single-item topic group, want skipped")
	}
	if ids["p2"] != 0 {
		t.Error("Generate() includes p2 below the popular engagement floor, want filtered")
	}
	for id, n := range ids {
		if n > 1 {
			t.Errorf("Generate() contains %q %d times, want deduplicated", id, n)
		}
	}
	if len(out) > 30 {
		t.Errorf("len(out) = %d, want <= oversample budget 30", len(out))
	}
}

func TestGenerateDedupesAcrossSlices(t *testing.T) {
	shared := cc("shared", "a1", "news", 300)
	src := &fakeSource{
		trending: []feed.ContentCandidate{shared},
		popular:  []feed.ContentCandidate{shared, cc("p1", "a2", "tech", 40)},
	}
	s := newStrategy(src)

	out, err := s.Generate(context.Background(), homeRequest(10), feed.NeutralPreferences("u1"), coldNow)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	count := 0
	for _, c := range out {
		if c.ID == "shared" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared candidate appears %d times, want 1", count)
	}
}

func TestGenerateSafetyFilters(t *testing.T) {
	video := cc("v1", "a4", "movies", 80)
	video.Type = feed.ContentVideo
	french := cc("f1", "a5", "cuisine", 70)
	french.Language = "fr"

	src := &fakeSource{
		popular: []feed.ContentCandidate{
			cc("ok", "a1", "tech", 60),
			cc("bad-author", "spammer", "tech", 90),
			cc("bad-topic", "a3", "crypto-scams", 90),
			video,
			french,
		},
	}
	s := newStrategy(src)

	profile := &feed.UserPreferenceProfile{
		UserID:         "u1",
		BlockedAuthors: []string{"spammer"},
		BlockedTopics:  []string{"crypto"},
		Languages:      []string{"en"},
		ContentTypeWeights: map[feed.ContentType]float64{
			feed.ContentVideo: 0,
		},
	}

	out, err := s.Generate(context.Background(), homeRequest(10), profile, coldNow)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "ok" {
		ids := make([]string, 0, len(out))
		for _, c := range out {
			ids = append(ids, c.ID)
		}
		t.Errorf("Generate() = %v, want [ok]", ids)
	}
}

func TestGenerateDegradesOnPartialFailure(t *testing.T) {
	src := &fakeSource{
		trendingErr: errors.New("trending upstream down"),
		popular:     []feed.ContentCandidate{cc("p1", "a1", "tech", 40)},
	}
	s := newStrategy(src)

	out, err := s.Generate(context.Background(), homeRequest(10), feed.NeutralPreferences("u1"), coldNow)
	if err != nil {
		t.Fatalf("Generate() error = %v, want degraded success", err)
	}
	if len(out) != 1 || out[0].ID != "p1" {
		t.Errorf("Generate() = %d items, want the popular fallback item", len(out))
	}
}

func TestGenerateEmptyPoolIsError(t *testing.T) {
	src := &fakeSource{
		trendingErr: errors.New("down"),
		generalErr:  errors.New("down"),
		popularErr:  errors.New("down"),
	}
	s := newStrategy(src)

	_, err := s.Generate(context.Background(), homeRequest(10), feed.NeutralPreferences("u1"), coldNow)
	if !errors.Is(err, feed.ErrNoCandidates) {
		t.Errorf("Generate() error = %v, want ErrNoCandidates", err)
	}
}

func TestSampleTopicsBounds(t *testing.T) {
	s := newStrategy(&fakeSource{})

	var pool []feed.ContentCandidate
	for topic := 0; topic < 20; topic++ {
		name := "topic" + string(rune('a'+topic))
		for item := 0; item < 8; item++ {
			pool = append(pool, cc(name+"-"+string(rune('0'+item)), "author", name, int64(item)))
		}
	}

	sampled := s.sampleTopics(pool)

	perTopic := make(map[string]int)
	for _, c := range sampled {
		perTopic[c.Topics[0]]++
	}
	if len(perTopic) > 15 {
		t.Errorf("sampled %d topics, want <= 15", len(perTopic))
	}
	for topic, n := range perTopic {
		if n > 5 {
			t.Errorf("topic %q contributed %d items, want <= 5", topic, n)
		}
	}
}

func TestSampleTopicsBestEngagedFirst(t *testing.T) {
	s := newStrategy(&fakeSource{})
	pool := []feed.ContentCandidate{
		cc("weak-1", "a1", "golang", 1),
		cc("strong", "a2", "golang", 900),
		cc("weak-2", "a3", "golang", 2),
		cc("weak-3", "a4", "golang", 3),
		cc("weak-4", "a5", "golang", 4),
		cc("weak-5", "a6", "golang", 5),
	}

	sampled := s.sampleTopics(pool)
	if len(sampled) != 5 {
		t.Fatalf("len(sampled) = %d, want 5 (topic cap)", len(sampled))
	}
	if sampled[0].ID != "strong" {
		t.Errorf("sampled[0] = %q, want strongest item first", sampled[0].ID)
	}
	for _, c := range sampled {
		if c.ID == "weak-1" {
			t.Error("sampled includes the weakest item, want it cut by the per-topic cap")
		}
	}
}
