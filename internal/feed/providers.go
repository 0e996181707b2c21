// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package feed

import (
	"context"
	"time"
)

// Note: This package defines the contracts between the orchestrator and
// its pipeline stages. Implementations live in subpackages that import
// this one, so the engine never depends on a concrete stage and no
// circular imports arise.

// CandidateSource supplies content candidates from upstream systems.
type CandidateSource interface {
	// Candidates returns up to limit candidates for a user and feed
	// surface. For FOLLOWING feeds the source restricts to followed
	// authors; other surfaces return a broad mixed pool.
	Candidates(ctx context.Context, userID string, feedType FeedType, limit int) ([]ContentCandidate, error)

	// Trending returns candidates published within the window, ranked
	// by engagement velocity.
	Trending(ctx context.Context, window time.Duration, limit int) ([]ContentCandidate, error)

	// Popular returns candidates ranked by lifetime weighted engagement.
	Popular(ctx context.Context, limit int) ([]ContentCandidate, error)

	// ByTopic returns candidates tagged with the topic, best first.
	ByTopic(ctx context.Context, topic string, limit int) ([]ContentCandidate, error)
}

// PreferenceStore supplies user preference profiles.
type PreferenceStore interface {
	// Preferences returns the profile for a user. Unknown users get an
	// empty profile, not an error.
	Preferences(ctx context.Context, userID string) (*UserPreferenceProfile, error)
}

// EngagementHistory supplies recent user engagement events.
type EngagementHistory interface {
	// RecentEngagements returns up to limit events, newest first.
	RecentEngagements(ctx context.Context, userID string, limit int) ([]EngagementEvent, error)
}

// ContextSource derives situational signals for a user when the request
// does not carry them.
type ContextSource interface {
	// Context returns the best-known context for a user. Implementations
	// return a minimal clock-derived context rather than an error when no
	// richer signals exist.
	Context(ctx context.Context, userID string) (*UserContext, error)
}

// ScoringInput bundles everything a scorer needs for one generation run.
type ScoringInput struct {
	// Candidates is the filtered candidate pool.
	Candidates []ContentCandidate

	// Profile is the user's preference profile, never nil.
	Profile *UserPreferenceProfile

	// History is the user's recent engagement, newest first.
	History []EngagementEvent

	// Context is the situational context, may be nil.
	Context *UserContext

	// Weights are the normalized scoring weights in effect.
	Weights ScoringWeights

	// Now is the generation timestamp all age math derives from.
	Now time.Time
}

// ScoredCandidate pairs a candidate with its composite score and the
// per-dimension breakdown it was computed from.
type ScoredCandidate struct {
	// Candidate is the scored content.
	Candidate ContentCandidate `json:"candidate"`

	// Score is the composite score in [0, 1].
	Score float64 `json:"score"`

	// Components maps scoring dimension names ("recency", "popularity",
	// "relevance", "base", "multiplier", ...) to their raw scores.
	Components map[string]float64 `json:"components,omitempty"`

	// Reasons explain the inclusion, dominant reason first.
	Reasons []InclusionReason `json:"reasons,omitempty"`

	// Source classifies how the candidate reached the user.
	Source SourceType `json:"source,omitempty"`
}

// Scorer computes composite scores for a candidate pool. Implementations
// must be deterministic: identical input yields identical output.
type Scorer interface {
	// ScoreAll scores every candidate. The result preserves input order;
	// ranking happens later.
	ScoreAll(ctx context.Context, in *ScoringInput) ([]ScoredCandidate, error)

	// ApplyRatioControl adjusts scores on an already sorted result set to
	// limit topic and author dominance. Implementations may no-op.
	ApplyRatioControl(scored []ScoredCandidate)
}

// Diversifier reorders a ranked list to satisfy author and topic
// distribution constraints.
type Diversifier interface {
	// Apply selects up to limit items from the scored list, which must
	// already be sorted best first.
	Apply(ctx context.Context, scored []ScoredCandidate, limit int) []ScoredCandidate
}

// ColdStartStrategy serves users without enough history for
// personalization.
type ColdStartStrategy interface {
	// IsNewUser reports whether the profile lacks the history needed
	// for personalized ranking.
	IsNewUser(profile *UserPreferenceProfile, now time.Time) bool

	// PersonalizationLevel returns how personalizable the user is in
	// [0, 1]. New users score near 0 and graduate toward 1 as account
	// age, engagement, and stated interests accumulate.
	PersonalizationLevel(profile *UserPreferenceProfile, now time.Time) float64

	// Weights shifts already-resolved weights for the personalization
	// level: recency and popularity rise and relevance falls as the
	// level drops, with a trending custom weight proportional to the
	// remaining cold-start share.
	Weights(base ScoringWeights, level float64) ScoringWeights

	// Generate builds an oversampled candidate pool for a new user from
	// trending, topic-sampled, and popular content. The pool is deduped
	// and safety-filtered but not yet scored.
	Generate(ctx context.Context, req *FeedRequest, profile *UserPreferenceProfile, now time.Time) ([]ContentCandidate, error)
}

// Assignment records a user's resolved arm for one experiment.
// Assignments are immutable once made.
type Assignment struct {
	// ExperimentID is the experiment evaluated.
	ExperimentID string `json:"experiment_id"`

	// VariantID is the assigned variant, empty when not enrolled.
	VariantID string `json:"variant_id,omitempty"`

	// InExperiment reports whether the user fell inside the traffic
	// allocation.
	InExperiment bool `json:"in_experiment"`

	// IsControl marks the control arm.
	IsControl bool `json:"is_control,omitempty"`

	// Bucket is the user's hash bucket in [0, 100).
	Bucket int `json:"bucket"`

	// Parameters are the variant's scoring overrides, nil for control
	// and non-enrolled users.
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

// Assigner resolves experiment assignments for users. Implementations
// must be stable: the same user and experiment always resolve to the
// same arm.
type Assigner interface {
	// Assign returns the assignment for the active experiment covering
	// the feed surface, or nil when no experiment applies.
	Assign(ctx context.Context, userID string, feedType FeedType) (*Assignment, error)
}

// Cache stores generated feeds, preference profiles, and popularity
// lists. Implementations report a miss for expired entries.
type Cache interface {
	// GetFeed returns a cached feed or a miss.
	GetFeed(ctx context.Context, userID string, feedType FeedType) (*GeneratedFeed, bool)

	// StoreFeed caches a generated feed. The TTL is derived from the
	// feed surface and adapted to the volatility of its entries.
	StoreFeed(ctx context.Context, f *GeneratedFeed)

	// GetPreferences returns a cached preference profile or a miss.
	GetPreferences(ctx context.Context, userID string) (*UserPreferenceProfile, bool)

	// StorePreferences caches a preference profile.
	StorePreferences(ctx context.Context, p *UserPreferenceProfile)

	// GetPopularity returns a cached popularity list or a miss.
	GetPopularity(ctx context.Context, key string) ([]ContentCandidate, bool)

	// StorePopularity caches a popularity list under a caller-chosen key.
	StorePopularity(ctx context.Context, key string, items []ContentCandidate)

	// InvalidateFeed drops one cached feed, reporting whether it existed.
	InvalidateFeed(ctx context.Context, userID string, feedType FeedType) bool

	// InvalidateUser drops every cached entry belonging to a user and
	// returns the number removed.
	InvalidateUser(ctx context.Context, userID string) int
}

// PrewarmPair is one (user, feed surface) combination worth keeping
// warm in the cache.
type PrewarmPair struct {
	UserID   string   `json:"user_id"`
	FeedType FeedType `json:"feed_type"`
}
