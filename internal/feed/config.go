// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package feed

import (
	"fmt"
	"time"
)

// Config contains all tunable parameters for feed generation. Subpackages
// receive their section at construction; nothing reads it after that, so a
// Config can be treated as immutable once the engine is built.
type Config struct {
	// AlgorithmID names the scoring configuration in feed metadata.
	// Default: "heuristic-v1".
	AlgorithmID string `koanf:"algorithm_id" json:"algorithm_id"`

	// Version is the engine version reported in feed metadata.
	// Default: "1.0.0".
	Version string `koanf:"version" json:"version"`

	// Weights are the per-surface scoring weights. Surfaces without an
	// entry fall back to DefaultWeights.
	Weights map[FeedType]ScoringWeights `koanf:"weights" json:"weights"`

	// Scoring holds content scoring parameters.
	Scoring ScoringConfig `koanf:"scoring" json:"scoring"`

	// Relevance holds topic relevance matching parameters.
	Relevance RelevanceConfig `koanf:"relevance" json:"relevance"`

	// Affinity holds source affinity parameters.
	Affinity AffinityConfig `koanf:"affinity" json:"affinity"`

	// Contextual holds contextual relevance parameters.
	Contextual ContextualConfig `koanf:"contextual" json:"contextual"`

	// Blend holds personalization blending parameters.
	Blend BlendConfig `koanf:"blend" json:"blend"`

	// Diversity holds feed diversity constraints.
	Diversity DiversityConfig `koanf:"diversity" json:"diversity"`

	// ColdStart holds new-user detection and fallback parameters.
	ColdStart ColdStartConfig `koanf:"cold_start" json:"cold_start"`

	// Experiments holds the experiment registry.
	Experiments ExperimentConfig `koanf:"experiments" json:"experiments"`

	// Cache holds feed cache TTL policy.
	Cache CacheConfig `koanf:"cache" json:"cache"`

	// Limits holds request and candidate pool bounds.
	Limits LimitsConfig `koanf:"limits" json:"limits"`
}

// ScoringConfig contains parameters for the content scoring engine.
type ScoringConfig struct {
	// RecencyHalfLife is the content age at which the recency score
	// halves.
	// Default: 24h.
	RecencyHalfLife time.Duration `koanf:"recency_half_life" json:"recency_half_life"`

	// RecencyFloor is the minimum recency score for arbitrarily old
	// content.
	// Default: 0.1.
	RecencyFloor float64 `koanf:"recency_floor" json:"recency_floor"`

	// PopularityHalfLife is the age at which engagement counts halve
	// their popularity contribution, so older content needs
	// proportionally more engagement to keep its score.
	// Default: 48h.
	PopularityHalfLife time.Duration `koanf:"popularity_half_life" json:"popularity_half_life"`

	// PopularityMidpoint is the log-scale weighted engagement at which
	// popularity scores 0.5.
	// Default: 4.0 (roughly 55 weighted engagements).
	PopularityMidpoint float64 `koanf:"popularity_midpoint" json:"popularity_midpoint"`

	// PopularityScale controls the steepness of the popularity sigmoid.
	// Default: 2.0.
	PopularityScale float64 `koanf:"popularity_scale" json:"popularity_scale"`

	// CTRWeight converts click-through rate into weighted-engagement
	// equivalents before normalization.
	// Default: 20.0.
	CTRWeight float64 `koanf:"ctr_weight" json:"ctr_weight"`

	// EngagementBonusCap bounds the historical-engagement bonus folded
	// into the relevance score.
	// Default: 0.3.
	EngagementBonusCap float64 `koanf:"engagement_bonus_cap" json:"engagement_bonus_cap"`

	// EngagementRateScale maps engagement rate onto the [0, 1] bonus
	// range; a rate of 1/scale earns the full engagement bonus weight.
	// Default: 10.0.
	EngagementRateScale float64 `koanf:"engagement_rate_scale" json:"engagement_rate_scale"`

	// TrendingMidpoint is the engagement velocity at which the custom
	// "trending" signal scores 0.5.
	// Default: 5.0.
	TrendingMidpoint float64 `koanf:"trending_midpoint" json:"trending_midpoint"`

	// ChunkSize is the number of candidates scored per worker batch.
	// Default: 64.
	ChunkSize int `koanf:"chunk_size" json:"chunk_size"`
}

// RelevanceConfig contains parameters for topic relevance matching.
type RelevanceConfig struct {
	// SimilarityThreshold is the minimum combined similarity for a
	// partial topic match to count.
	// Default: 0.6.
	SimilarityThreshold float64 `koanf:"similarity_threshold" json:"similarity_threshold"`

	// PartialMatchWeight is the score for partial or fuzzy topic matches.
	// Default: 0.65.
	PartialMatchWeight float64 `koanf:"partial_match_weight" json:"partial_match_weight"`

	// CategoryMatchWeight is the score for category-level matches.
	// Default: 0.5.
	CategoryMatchWeight float64 `koanf:"category_match_weight" json:"category_match_weight"`

	// SpecificityBonus rewards long, hyphenated, or preference-listed
	// topics.
	// Default: 0.1.
	SpecificityBonus float64 `koanf:"specificity_bonus" json:"specificity_bonus"`

	// DiversityBonus rewards matches spanning multiple categories.
	// Default: 0.05.
	DiversityBonus float64 `koanf:"diversity_bonus" json:"diversity_bonus"`

	// TopicShare, TypeShare, and LanguageShare split the overall
	// relevance score between topic, content-type, and language match.
	// Defaults: 0.7, 0.2, 0.1.
	TopicShare    float64 `koanf:"topic_share" json:"topic_share"`
	TypeShare     float64 `koanf:"type_share" json:"type_share"`
	LanguageShare float64 `koanf:"language_share" json:"language_share"`
}

// AffinityConfig contains parameters for source affinity scoring.
type AffinityConfig struct {
	// UnseenDefault is the affinity for sources the user never engaged
	// with. Never zero so unseen sources remain rankable.
	// Default: 0.3.
	UnseenDefault float64 `koanf:"unseen_default" json:"unseen_default"`

	// DecayHalfLife is the interaction age at which its affinity
	// contribution halves.
	// Default: 168h (7 days).
	DecayHalfLife time.Duration `koanf:"decay_half_life" json:"decay_half_life"`

	// RecentWindow is the lookback used for the recency fraction.
	// Default: 720h (30 days).
	RecentWindow time.Duration `koanf:"recent_window" json:"recent_window"`

	// NegativeAmplifier scales the negative-interaction ratio when
	// computing reliability, so rejection signals dominate.
	// Default: 1.5.
	NegativeAmplifier float64 `koanf:"negative_amplifier" json:"negative_amplifier"`

	// ConsistencyWeight scales the inverse-variance consistency bonus.
	// Default: 0.15.
	ConsistencyWeight float64 `koanf:"consistency_weight" json:"consistency_weight"`

	// RecencyWeight scales the recent-activity bonus.
	// Default: 0.15.
	RecencyWeight float64 `koanf:"recency_weight" json:"recency_weight"`

	// DiversityWeight scales the topic-entropy bonus.
	// Default: 0.10.
	DiversityWeight float64 `koanf:"diversity_weight" json:"diversity_weight"`
}

// ContextualConfig contains the sub-score weights for contextual
// relevance. The four weights should sum to 1.0.
type ContextualConfig struct {
	// TemporalWeight is the weight for time-of-day and day-of-week fit.
	// Default: 0.35.
	TemporalWeight float64 `koanf:"temporal_weight" json:"temporal_weight"`

	// LocationWeight is the weight for geographic and timezone fit.
	// Default: 0.15.
	LocationWeight float64 `koanf:"location_weight" json:"location_weight"`

	// SessionWeight is the weight for session-length and seen-item fit.
	// Default: 0.30.
	SessionWeight float64 `koanf:"session_weight" json:"session_weight"`

	// DeviceWeight is the weight for device capability fit.
	// Default: 0.20.
	DeviceWeight float64 `koanf:"device_weight" json:"device_weight"`
}

// BlendConfig contains parameters for the personalization blender.
type BlendConfig struct {
	// LinearShare and HarmonicShare mix the weighted linear sum and the
	// harmonic mean of the three relevance factors. They should sum
	// to 1.0; the harmonic term dampens sharply diverging factors.
	// Defaults: 0.7, 0.3.
	LinearShare   float64 `koanf:"linear_share" json:"linear_share"`
	HarmonicShare float64 `koanf:"harmonic_share" json:"harmonic_share"`

	// TopicWeight, SourceWeight, and ContextWeight split the linear sum
	// between the three relevance factors.
	// Defaults: 0.40, 0.35, 0.25.
	TopicWeight   float64 `koanf:"topic_weight" json:"topic_weight"`
	SourceWeight  float64 `koanf:"source_weight" json:"source_weight"`
	ContextWeight float64 `koanf:"context_weight" json:"context_weight"`

	// AmplificationFloor and AmplificationCeiling clamp the quality
	// amplification factor that lets high-scoring content benefit more
	// from personalization.
	// Defaults: 0.8, 1.2.
	AmplificationFloor   float64 `koanf:"amplification_floor" json:"amplification_floor"`
	AmplificationCeiling float64 `koanf:"amplification_ceiling" json:"amplification_ceiling"`

	// StrongMatchBonus applies when topic > 0.7, source > 0.7, and
	// contextual > 0.6 simultaneously.
	// Default: 0.2.
	StrongMatchBonus float64 `koanf:"strong_match_bonus" json:"strong_match_bonus"`

	// ContextBonus applies when contextual > 0.8 alone.
	// Default: 0.1.
	ContextBonus float64 `koanf:"context_bonus" json:"context_bonus"`

	// WeakSourcePenalty applies when source affinity < 0.3.
	// Default: 0.15.
	WeakSourcePenalty float64 `koanf:"weak_source_penalty" json:"weak_source_penalty"`

	// RecencyBoostMax bounds the multiplicative freshness boost.
	// Default: 0.2 (up to +20%).
	RecencyBoostMax float64 `koanf:"recency_boost_max" json:"recency_boost_max"`

	// RecencyBoostHalfLife is the content age at which the freshness
	// boost halves.
	// Default: 12h.
	RecencyBoostHalfLife time.Duration `koanf:"recency_boost_half_life" json:"recency_boost_half_life"`

	// MinMultiplier and MaxMultiplier clamp the final personalization
	// multiplier.
	// Defaults: 0.1, 3.0.
	MinMultiplier float64 `koanf:"min_multiplier" json:"min_multiplier"`
	MaxMultiplier float64 `koanf:"max_multiplier" json:"max_multiplier"`

	// RatioControl enables the blender's own per-topic/per-source ratio
	// penalties. Off by default: the diversity enforcer is the
	// authoritative diversification stage and running both would
	// double-penalize.
	// Default: false.
	RatioControl bool `koanf:"ratio_control" json:"ratio_control"`

	// MaxTopicRatio is the emitted-list share above which a topic is
	// penalized when ratio control is on.
	// Default: 0.4.
	MaxTopicRatio float64 `koanf:"max_topic_ratio" json:"max_topic_ratio"`

	// MaxSourceRatio is the emitted-list share above which an author is
	// penalized when ratio control is on.
	// Default: 0.3.
	MaxSourceRatio float64 `koanf:"max_source_ratio" json:"max_source_ratio"`

	// RatioPenalty is subtracted from the multiplier per exceeded ratio.
	// Default: 0.1.
	RatioPenalty float64 `koanf:"ratio_penalty" json:"ratio_penalty"`
}

// DiversityConfig contains feed diversity constraints.
type DiversityConfig struct {
	// Enabled toggles diversity enforcement.
	// Default: true.
	Enabled bool `koanf:"enabled" json:"enabled"`

	// MaxPerAuthor caps entries per author in one feed.
	// Default: 3.
	MaxPerAuthor int `koanf:"max_per_author" json:"max_per_author"`

	// MaxPerTopic caps entries per dominant topic in one feed.
	// Default: 5.
	MaxPerTopic int `koanf:"max_per_topic" json:"max_per_topic"`

	// MaxPerType caps entries per content type in one feed.
	// Default: 10.
	MaxPerType int `koanf:"max_per_type" json:"max_per_type"`

	// AuthorSpacing is the minimum rank distance between entries by the
	// same author.
	// Default: 3.
	AuthorSpacing int `koanf:"author_spacing" json:"author_spacing"`

	// TopicSpacing is the minimum rank distance between entries sharing
	// a dominant topic.
	// Default: 2.
	TopicSpacing int `koanf:"topic_spacing" json:"topic_spacing"`

	// BasePenalty is the proximity penalty factor for spacing
	// violations.
	// Default: 0.25.
	BasePenalty float64 `koanf:"base_penalty" json:"base_penalty"`

	// AuthorPenaltyWeight scales author-spacing penalties relative to
	// topic-spacing penalties.
	// Default: 2.0.
	AuthorPenaltyWeight float64 `koanf:"author_penalty_weight" json:"author_penalty_weight"`

	// TypeDistribution is the target content-type mix used by the
	// rebalancing pass.
	// Default: text 0.50, image 0.30, video 0.15, link 0.05.
	TypeDistribution map[ContentType]float64 `koanf:"type_distribution" json:"type_distribution"`

	// RebalanceThreshold is the fill fraction at which the rebalancing
	// pass starts preferring under-represented content types.
	// Default: 0.8.
	RebalanceThreshold float64 `koanf:"rebalance_threshold" json:"rebalance_threshold"`
}

// ColdStartConfig contains new-user detection and fallback parameters.
type ColdStartConfig struct {
	// NewUserThresholdDays marks accounts at most this old as new.
	// Default: 7.
	NewUserThresholdDays int `koanf:"new_user_threshold_days" json:"new_user_threshold_days"`

	// MinEngagementActions is the engagement count below which a user
	// is treated as new regardless of account age.
	// Default: 5.
	MinEngagementActions int `koanf:"min_engagement_actions" json:"min_engagement_actions"`

	// InactiveThresholdDays marks users inactive for longer than this
	// as effectively new again.
	// Default: 30.
	InactiveThresholdDays int `koanf:"inactive_threshold_days" json:"inactive_threshold_days"`

	// TrendingWeight is the share of the cold-start pool drawn from
	// trending content.
	// Default: 0.5.
	TrendingWeight float64 `koanf:"trending_weight" json:"trending_weight"`

	// DiversitySampling toggles the diverse topic-sampling slice.
	// Default: true.
	DiversitySampling bool `koanf:"diversity_sampling" json:"diversity_sampling"`

	// PopularFallback toggles the lifetime-popularity fallback slice.
	// Default: true.
	PopularFallback bool `koanf:"popular_fallback" json:"popular_fallback"`

	// MaxTopics bounds how many topics the diverse sampler draws from.
	// Default: 15.
	MaxTopics int `koanf:"max_topics" json:"max_topics"`

	// MinItemsPerTopic is the smallest topic group worth sampling.
	// Default: 2.
	MinItemsPerTopic int `koanf:"min_items_per_topic" json:"min_items_per_topic"`

	// MaxItemsPerTopic bounds how many items one topic contributes.
	// Default: 5.
	MaxItemsPerTopic int `koanf:"max_items_per_topic" json:"max_items_per_topic"`

	// TrendingWindow is the publication window for trending content.
	// Default: 48h.
	TrendingWindow time.Duration `koanf:"trending_window" json:"trending_window"`

	// PopularMinEngagement is the minimum lifetime weighted engagement
	// for the popular fallback.
	// Default: 10.
	PopularMinEngagement float64 `koanf:"popular_min_engagement" json:"popular_min_engagement"`
}

// ExperimentConfig holds the experiment registry.
type ExperimentConfig struct {
	// Enabled toggles experiment evaluation.
	// Default: true.
	Enabled bool `koanf:"enabled" json:"enabled"`

	// Salt perturbs assignment hashing so experiment populations do not
	// correlate across deployments. Changing it reshuffles everyone.
	// Default: "feedloom-v1".
	Salt string `koanf:"salt" json:"salt"`

	// Experiments are the registered experiments.
	Experiments []Experiment `koanf:"experiments" json:"experiments,omitempty"`
}

// Experiment defines one A/B experiment over feed scoring weights.
type Experiment struct {
	// ID is the stable experiment identifier used in hashing.
	ID string `koanf:"id" json:"id"`

	// Name is a human-readable label.
	Name string `koanf:"name" json:"name,omitempty"`

	// Enabled toggles the experiment without unregistering it.
	Enabled bool `koanf:"enabled" json:"enabled"`

	// TrafficPercent is the share of users included, in [0, 100].
	TrafficPercent int `koanf:"traffic_percent" json:"traffic_percent"`

	// FeedTypes restricts the experiment to specific surfaces.
	// Empty means all surfaces.
	FeedTypes []FeedType `koanf:"feed_types" json:"feed_types,omitempty"`

	// Variants are the treatment arms in allocation order.
	Variants []Variant `koanf:"variants" json:"variants"`
}

// AppliesTo reports whether the experiment covers a feed surface.
func (e *Experiment) AppliesTo(t FeedType) bool {
	if len(e.FeedTypes) == 0 {
		return true
	}
	for _, ft := range e.FeedTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// Variant is one treatment arm of an experiment.
type Variant struct {
	// ID is the variant identifier recorded in assignments.
	ID string `koanf:"id" json:"id"`

	// Allocation is the variant's share of enrolled users, in percent.
	// Allocations across a variant list should sum to 100.
	Allocation float64 `koanf:"allocation" json:"allocation"`

	// Control marks the control arm. Control variants carry no
	// parameter overrides.
	Control bool `koanf:"control" json:"control,omitempty"`

	// Parameters override scoring weights for this arm. Core weight
	// names replace fields; other names become custom weights.
	Parameters map[string]float64 `koanf:"parameters" json:"parameters,omitempty"`
}

// CacheConfig contains feed cache TTL policy.
type CacheConfig struct {
	// Enabled toggles caching entirely.
	// Default: true.
	Enabled bool `koanf:"enabled" json:"enabled"`

	// FeedTTL is the base TTL per feed surface.
	// Defaults: HOME 15m, DISCOVER 30m, FOLLOWING 5m, TRENDING 60m.
	FeedTTL map[FeedType]time.Duration `koanf:"feed_ttl" json:"feed_ttl"`

	// PreferencesTTL is the TTL for cached preference profiles.
	// Default: 1h.
	PreferencesTTL time.Duration `koanf:"preferences_ttl" json:"preferences_ttl"`

	// PopularityTTL is the TTL for cached popularity lists.
	// Default: 15m.
	PopularityTTL time.Duration `koanf:"popularity_ttl" json:"popularity_ttl"`

	// VolatileThreshold is the entry share of trending/recency reasons
	// above which a feed's TTL halves.
	// Default: 0.5.
	VolatileThreshold float64 `koanf:"volatile_threshold" json:"volatile_threshold"`

	// StableThreshold is the entry share of similarity/topic-interest
	// reasons above which a feed's TTL doubles.
	// Default: 0.7.
	StableThreshold float64 `koanf:"stable_threshold" json:"stable_threshold"`

	// MaxEntries bounds the total cached entries across categories.
	// Default: 10000.
	MaxEntries int `koanf:"max_entries" json:"max_entries"`

	// PrewarmBatchSize is how many (user, feed type) pairs one prewarm
	// batch generates.
	// Default: 16.
	PrewarmBatchSize int `koanf:"prewarm_batch_size" json:"prewarm_batch_size"`

	// PrewarmRate bounds prewarm generations per second.
	// Default: 10.
	PrewarmRate float64 `koanf:"prewarm_rate" json:"prewarm_rate"`

	// PrewarmInterval is the pause between background prewarm sweeps.
	// Default: 10m.
	PrewarmInterval time.Duration `koanf:"prewarm_interval" json:"prewarm_interval"`
}

// TTLFor returns the base TTL for a feed surface.
func (c *CacheConfig) TTLFor(t FeedType) time.Duration {
	if ttl, ok := c.FeedTTL[t]; ok && ttl > 0 {
		return ttl
	}
	return 15 * time.Minute
}

// LimitsConfig contains request and candidate pool bounds.
type LimitsConfig struct {
	// DefaultLimit is the feed size when the request does not set one.
	// Default: 20.
	DefaultLimit int `koanf:"default_limit" json:"default_limit"`

	// MaxLimit is the largest feed size a request may ask for.
	// Default: 100.
	MaxLimit int `koanf:"max_limit" json:"max_limit"`

	// OversampleFactor is how many times the requested limit the
	// candidate pool is oversampled before scoring, leaving room for
	// diversity filtering.
	// Default: 3.0.
	OversampleFactor float64 `koanf:"oversample_factor" json:"oversample_factor"`

	// MaxCandidates bounds the scored candidate pool.
	// Default: 500.
	MaxCandidates int `koanf:"max_candidates" json:"max_candidates"`

	// HistoryLookbackDays bounds the engagement history window.
	// Default: 90.
	HistoryLookbackDays int `koanf:"history_lookback_days" json:"history_lookback_days"`

	// MaxHistoryEvents bounds the engagement events fetched per request.
	// Default: 500.
	MaxHistoryEvents int `koanf:"max_history_events" json:"max_history_events"`
}

// WeightsFor returns the configured weights for a surface, falling back
// to the built-in defaults. The result is not yet normalized.
func (c *Config) WeightsFor(t FeedType) ScoringWeights {
	if w, ok := c.Weights[t]; ok {
		return w
	}
	return DefaultWeights(t)
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		AlgorithmID: "heuristic-v1",
		Version:     "1.0.0",
		Weights: map[FeedType]ScoringWeights{
			FeedHome:      DefaultWeights(FeedHome),
			FeedDiscover:  DefaultWeights(FeedDiscover),
			FeedFollowing: DefaultWeights(FeedFollowing),
			FeedTrending:  DefaultWeights(FeedTrending),
		},
		Scoring: ScoringConfig{
			RecencyHalfLife:     24 * time.Hour,
			RecencyFloor:        0.1,
			PopularityHalfLife:  48 * time.Hour,
			PopularityMidpoint:  4.0,
			PopularityScale:     2.0,
			CTRWeight:           20.0,
			EngagementBonusCap:  0.3,
			EngagementRateScale: 10.0,
			TrendingMidpoint:    5.0,
			ChunkSize:           64,
		},
		Relevance: RelevanceConfig{
			SimilarityThreshold: 0.6,
			PartialMatchWeight:  0.65,
			CategoryMatchWeight: 0.5,
			SpecificityBonus:    0.1,
			DiversityBonus:      0.05,
			TopicShare:          0.7,
			TypeShare:           0.2,
			LanguageShare:       0.1,
		},
		Affinity: AffinityConfig{
			UnseenDefault:     0.3,
			DecayHalfLife:     168 * time.Hour,
			RecentWindow:      720 * time.Hour,
			NegativeAmplifier: 1.5,
			ConsistencyWeight: 0.15,
			RecencyWeight:     0.15,
			DiversityWeight:   0.10,
		},
		Contextual: ContextualConfig{
			TemporalWeight: 0.35,
			LocationWeight: 0.15,
			SessionWeight:  0.30,
			DeviceWeight:   0.20,
		},
		Blend: BlendConfig{
			LinearShare:          0.7,
			HarmonicShare:        0.3,
			TopicWeight:          0.40,
			SourceWeight:         0.35,
			ContextWeight:        0.25,
			AmplificationFloor:   0.8,
			AmplificationCeiling: 1.2,
			StrongMatchBonus:     0.2,
			ContextBonus:         0.1,
			WeakSourcePenalty:    0.15,
			RecencyBoostMax:      0.2,
			RecencyBoostHalfLife: 12 * time.Hour,
			MinMultiplier:        0.1,
			MaxMultiplier:        3.0,
			RatioControl:         false,
			MaxTopicRatio:        0.4,
			MaxSourceRatio:       0.3,
			RatioPenalty:         0.1,
		},
		Diversity: DiversityConfig{
			Enabled:             true,
			MaxPerAuthor:        3,
			MaxPerTopic:         5,
			MaxPerType:          10,
			AuthorSpacing:       3,
			TopicSpacing:        2,
			BasePenalty:         0.25,
			AuthorPenaltyWeight: 2.0,
			TypeDistribution: map[ContentType]float64{
				ContentText:  0.50,
				ContentImage: 0.30,
				ContentVideo: 0.15,
				ContentLink:  0.05,
			},
			RebalanceThreshold: 0.8,
		},
		ColdStart: ColdStartConfig{
			NewUserThresholdDays:  7,
			MinEngagementActions:  5,
			InactiveThresholdDays: 30,
			TrendingWeight:        0.5,
			DiversitySampling:     true,
			PopularFallback:       true,
			MaxTopics:             15,
			MinItemsPerTopic:      2,
			MaxItemsPerTopic:      5,
			TrendingWindow:        48 * time.Hour,
			PopularMinEngagement:  10,
		},
		Experiments: ExperimentConfig{
			Enabled: true,
			Salt:    "feedloom-v1",
		},
		Cache: CacheConfig{
			Enabled: true,
			FeedTTL: map[FeedType]time.Duration{
				FeedHome:      15 * time.Minute,
				FeedDiscover:  30 * time.Minute,
				FeedFollowing: 5 * time.Minute,
				FeedTrending:  60 * time.Minute,
			},
			PreferencesTTL:    time.Hour,
			PopularityTTL:     15 * time.Minute,
			VolatileThreshold: 0.5,
			StableThreshold:   0.7,
			MaxEntries:        10000,
			PrewarmBatchSize:  16,
			PrewarmRate:       10,
			PrewarmInterval:   10 * time.Minute,
		},
		Limits: LimitsConfig{
			DefaultLimit:        20,
			MaxLimit:            100,
			OversampleFactor:    3.0,
			MaxCandidates:       500,
			HistoryLookbackDays: 90,
			MaxHistoryEvents:    500,
		},
	}
}

// Validate checks the configuration for values that would break scoring.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Scoring.RecencyHalfLife <= 0 {
		return fmt.Errorf("scoring.recency_half_life must be positive, got %v", c.Scoring.RecencyHalfLife)
	}
	if c.Scoring.RecencyFloor < 0 || c.Scoring.RecencyFloor > 1 {
		return fmt.Errorf("scoring.recency_floor must be in [0, 1], got %f", c.Scoring.RecencyFloor)
	}
	if c.Scoring.PopularityHalfLife <= 0 {
		return fmt.Errorf("scoring.popularity_half_life must be positive, got %v", c.Scoring.PopularityHalfLife)
	}
	if c.Scoring.EngagementBonusCap < 0 || c.Scoring.EngagementBonusCap > 1 {
		return fmt.Errorf("scoring.engagement_bonus_cap must be in [0, 1], got %f", c.Scoring.EngagementBonusCap)
	}
	if c.Scoring.ChunkSize < 1 {
		return fmt.Errorf("scoring.chunk_size must be positive, got %d", c.Scoring.ChunkSize)
	}

	if c.Relevance.SimilarityThreshold < 0 || c.Relevance.SimilarityThreshold > 1 {
		return fmt.Errorf("relevance.similarity_threshold must be in [0, 1], got %f", c.Relevance.SimilarityThreshold)
	}

	if c.Affinity.UnseenDefault <= 0 || c.Affinity.UnseenDefault > 1 {
		return fmt.Errorf("affinity.unseen_default must be in (0, 1], got %f", c.Affinity.UnseenDefault)
	}
	if c.Affinity.DecayHalfLife <= 0 {
		return fmt.Errorf("affinity.decay_half_life must be positive, got %v", c.Affinity.DecayHalfLife)
	}

	if c.Blend.MinMultiplier <= 0 {
		return fmt.Errorf("blend.min_multiplier must be positive, got %f", c.Blend.MinMultiplier)
	}
	if c.Blend.MaxMultiplier < c.Blend.MinMultiplier {
		return fmt.Errorf("blend.max_multiplier must be >= blend.min_multiplier, got %f < %f",
			c.Blend.MaxMultiplier, c.Blend.MinMultiplier)
	}

	if c.Diversity.MaxPerAuthor < 1 {
		return fmt.Errorf("diversity.max_per_author must be positive, got %d", c.Diversity.MaxPerAuthor)
	}
	if c.Diversity.MaxPerTopic < 1 {
		return fmt.Errorf("diversity.max_per_topic must be positive, got %d", c.Diversity.MaxPerTopic)
	}
	if c.Diversity.AuthorSpacing < 0 || c.Diversity.TopicSpacing < 0 {
		return fmt.Errorf("diversity spacing must be non-negative, got author %d topic %d",
			c.Diversity.AuthorSpacing, c.Diversity.TopicSpacing)
	}
	if c.Diversity.RebalanceThreshold < 0 || c.Diversity.RebalanceThreshold > 1 {
		return fmt.Errorf("diversity.rebalance_threshold must be in [0, 1], got %f", c.Diversity.RebalanceThreshold)
	}

	if c.ColdStart.NewUserThresholdDays < 0 {
		return fmt.Errorf("cold_start.new_user_threshold_days must be non-negative, got %d", c.ColdStart.NewUserThresholdDays)
	}
	if c.ColdStart.MinItemsPerTopic > c.ColdStart.MaxItemsPerTopic {
		return fmt.Errorf("cold_start.min_items_per_topic must be <= max_items_per_topic, got %d > %d",
			c.ColdStart.MinItemsPerTopic, c.ColdStart.MaxItemsPerTopic)
	}

	for i := range c.Experiments.Experiments {
		exp := &c.Experiments.Experiments[i]
		if exp.ID == "" {
			return fmt.Errorf("experiments[%d].id must not be empty", i)
		}
		if exp.TrafficPercent < 0 || exp.TrafficPercent > 100 {
			return fmt.Errorf("experiment %q traffic_percent must be in [0, 100], got %d", exp.ID, exp.TrafficPercent)
		}
		if len(exp.Variants) == 0 {
			return fmt.Errorf("experiment %q must define at least one variant", exp.ID)
		}
		var allocation float64
		for _, v := range exp.Variants {
			if v.ID == "" {
				return fmt.Errorf("experiment %q has a variant with an empty id", exp.ID)
			}
			if v.Allocation < 0 {
				return fmt.Errorf("experiment %q variant %q allocation must be non-negative, got %f", exp.ID, v.ID, v.Allocation)
			}
			allocation += v.Allocation
		}
		if allocation <= 0 {
			return fmt.Errorf("experiment %q variant allocations must sum above zero", exp.ID)
		}
	}

	if c.Cache.VolatileThreshold < 0 || c.Cache.VolatileThreshold > 1 {
		return fmt.Errorf("cache.volatile_threshold must be in [0, 1], got %f", c.Cache.VolatileThreshold)
	}
	if c.Cache.StableThreshold < 0 || c.Cache.StableThreshold > 1 {
		return fmt.Errorf("cache.stable_threshold must be in [0, 1], got %f", c.Cache.StableThreshold)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}

	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= limits.default_limit, got %d < %d",
			c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.OversampleFactor < 1 {
		return fmt.Errorf("limits.oversample_factor must be >= 1, got %f", c.Limits.OversampleFactor)
	}
	if c.Limits.MaxCandidates < c.Limits.MaxLimit {
		return fmt.Errorf("limits.max_candidates must be >= limits.max_limit, got %d < %d",
			c.Limits.MaxCandidates, c.Limits.MaxLimit)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c

	out.Weights = make(map[FeedType]ScoringWeights, len(c.Weights))
	for t, w := range c.Weights {
		cw := w
		cw.Custom = cloneCustom(w.Custom)
		out.Weights[t] = cw
	}

	out.Diversity.TypeDistribution = make(map[ContentType]float64, len(c.Diversity.TypeDistribution))
	for t, share := range c.Diversity.TypeDistribution {
		out.Diversity.TypeDistribution[t] = share
	}

	out.Cache.FeedTTL = make(map[FeedType]time.Duration, len(c.Cache.FeedTTL))
	for t, ttl := range c.Cache.FeedTTL {
		out.Cache.FeedTTL[t] = ttl
	}

	out.Experiments.Experiments = make([]Experiment, len(c.Experiments.Experiments))
	for i, exp := range c.Experiments.Experiments {
		ce := exp
		ce.FeedTypes = append([]FeedType(nil), exp.FeedTypes...)
		ce.Variants = make([]Variant, len(exp.Variants))
		for j, v := range exp.Variants {
			cv := v
			cv.Parameters = cloneCustom(v.Parameters)
			ce.Variants[j] = cv
		}
		out.Experiments.Experiments[i] = ce
	}

	return &out
}
