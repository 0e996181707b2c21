// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package feed

import (
	"fmt"
	"strings"
	"time"
)

// FeedType identifies the surface a feed is generated for. Each surface
// carries its own default scoring weights and cache policy.
type FeedType string

const (
	// FeedHome is the primary personalized feed.
	FeedHome FeedType = "HOME"
	// FeedDiscover emphasizes exploration beyond the user's followed sources.
	FeedDiscover FeedType = "DISCOVER"
	// FeedFollowing restricts candidates to followed authors.
	FeedFollowing FeedType = "FOLLOWING"
	// FeedTrending ranks by platform-wide engagement velocity.
	FeedTrending FeedType = "TRENDING"
)

// FeedTypes returns all valid feed types in a stable order.
func FeedTypes() []FeedType {
	return []FeedType{FeedHome, FeedDiscover, FeedFollowing, FeedTrending}
}

// Valid reports whether t is a known feed type.
func (t FeedType) Valid() bool {
	switch t {
	case FeedHome, FeedDiscover, FeedFollowing, FeedTrending:
		return true
	default:
		return false
	}
}

// ParseFeedType converts a wire value into a FeedType.
// Matching is case-insensitive.
func ParseFeedType(s string) (FeedType, error) {
	t := FeedType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown feed type %q", s)
	}
	return t, nil
}

// ContentType classifies candidate content for type distribution balancing.
type ContentType string

const (
	// ContentText is plain text content.
	ContentText ContentType = "TEXT"
	// ContentImage is image-led content.
	ContentImage ContentType = "IMAGE"
	// ContentVideo is video content.
	ContentVideo ContentType = "VIDEO"
	// ContentLink is an external link share.
	ContentLink ContentType = "LINK"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentImage, ContentVideo, ContentLink:
		return true
	default:
		return false
	}
}

// EngagementType classifies a user action on content. Each type carries a
// signed weight used when deriving source affinity from engagement history.
type EngagementType string

const (
	// EngageLike is a positive appreciation signal.
	EngageLike EngagementType = "LIKE"
	// EngageUnlike retracts a prior like.
	EngageUnlike EngagementType = "UNLIKE"
	// EngageComment is a reply or comment.
	EngageComment EngagementType = "COMMENT"
	// EngageShare is a reshare to the user's own audience.
	EngageShare EngagementType = "SHARE"
	// EngageBookmark saves content for later.
	EngageBookmark EngagementType = "BOOKMARK"
	// EngageDwell is sustained attention beyond the dwell threshold.
	EngageDwell EngagementType = "DWELL"
	// EngageClick is a click-through on the content.
	EngageClick EngagementType = "CLICK"
	// EngageHide removes content from the user's view.
	EngageHide EngagementType = "HIDE"
	// EngageReport flags content as objectionable.
	EngageReport EngagementType = "REPORT"
)

// Weight returns the signed affinity contribution of this engagement type.
// Positive values indicate interest, negative values rejection. Explicit
// rejection outweighs the action it mirrors so that a hide or report is
// never cancelled by a single like.
func (t EngagementType) Weight() float64 {
	switch t {
	case EngageLike:
		return 1.0
	case EngageComment:
		return 1.2
	case EngageShare:
		return 1.5
	case EngageBookmark:
		return 1.3
	case EngageDwell:
		return 0.5
	case EngageClick:
		return 0.3
	case EngageUnlike:
		return -1.0
	case EngageHide:
		return -2.0
	case EngageReport:
		return -3.0
	default:
		return 0.0
	}
}

// Positive reports whether the engagement expresses interest.
func (t EngagementType) Positive() bool {
	return t.Weight() > 0
}

// InclusionReason explains why an entry was placed in a feed. Entries may
// carry multiple reasons; the first is the dominant one.
type InclusionReason string

const (
	// ReasonTopicInterest means the content matched the user's topic interests.
	ReasonTopicInterest InclusionReason = "TOPIC_INTEREST"
	// ReasonFollowedSource means the author is followed by the user.
	ReasonFollowedSource InclusionReason = "FOLLOWED_SOURCE"
	// ReasonSourceAffinity means engagement history favors the author.
	ReasonSourceAffinity InclusionReason = "SOURCE_AFFINITY"
	// ReasonTrending means the content has high platform-wide velocity.
	ReasonTrending InclusionReason = "TRENDING"
	// ReasonRecency means the content was boosted for freshness.
	ReasonRecency InclusionReason = "RECENCY"
	// ReasonPopular means the content has high lifetime engagement.
	ReasonPopular InclusionReason = "POPULAR"
	// ReasonSimilarUsers means users with similar taste engaged with it.
	ReasonSimilarUsers InclusionReason = "SIMILAR_USERS"
	// ReasonDiversity means the entry was admitted to balance the feed.
	ReasonDiversity InclusionReason = "DIVERSITY"
	// ReasonContextual means the current context favored the content.
	ReasonContextual InclusionReason = "CONTEXTUAL"
)

// SourceType classifies how a feed entry reached the user.
type SourceType string

const (
	// SourceFollowed is content from an author the user follows.
	SourceFollowed SourceType = "FOLLOWED"
	// SourceRecommendation is personalized content from unfollowed authors.
	SourceRecommendation SourceType = "RECOMMENDATION"
	// SourceTrending is platform-trending content.
	SourceTrending SourceType = "TRENDING"
	// SourcePromoted is sponsored content.
	SourcePromoted SourceType = "PROMOTED"
)

// ConfidenceLevel grades how much contextual signal backed a score.
type ConfidenceLevel string

const (
	// ConfidenceHigh means all contextual signals were present.
	ConfidenceHigh ConfidenceLevel = "HIGH"
	// ConfidenceMedium means most contextual signals were present.
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	// ConfidenceLow means few contextual signals were present.
	ConfidenceLow ConfidenceLevel = "LOW"
	// ConfidenceMinimal means the score is close to a neutral guess.
	ConfidenceMinimal ConfidenceLevel = "MINIMAL"
)

// ConfidenceFromSignals maps the number of available contextual signals
// (out of four: temporal, location, session, device) to a confidence level.
func ConfidenceFromSignals(n int) ConfidenceLevel {
	switch {
	case n >= 4:
		return ConfidenceHigh
	case n == 3:
		return ConfidenceMedium
	case n == 2:
		return ConfidenceLow
	default:
		return ConfidenceMinimal
	}
}

// DeviceType identifies the client device class.
type DeviceType string

const (
	// DeviceMobile is a phone client.
	DeviceMobile DeviceType = "MOBILE"
	// DeviceTablet is a tablet client.
	DeviceTablet DeviceType = "TABLET"
	// DeviceDesktop is a desktop or laptop client.
	DeviceDesktop DeviceType = "DESKTOP"
	// DeviceTV is a television client.
	DeviceTV DeviceType = "TV"
)

// EngagementMetrics aggregates interaction counts for a piece of content.
type EngagementMetrics struct {
	// Likes is the number of likes received.
	Likes int64 `json:"likes"`

	// Comments is the number of comments received.
	Comments int64 `json:"comments"`

	// Shares is the number of reshares.
	Shares int64 `json:"shares"`

	// Clicks is the number of click-throughs.
	Clicks int64 `json:"clicks"`

	// Impressions is the number of times the content was displayed.
	Impressions int64 `json:"impressions"`
}

// WeightedTotal returns the engagement sum with shares weighted highest.
// Comments count double and shares triple relative to likes, reflecting
// the increasing effort behind each action.
func (m EngagementMetrics) WeightedTotal() float64 {
	return float64(m.Likes) + 2*float64(m.Comments) + 3*float64(m.Shares)
}

// ClickThroughRate returns clicks per impression, or 0 when the content
// has not been displayed yet.
func (m EngagementMetrics) ClickThroughRate() float64 {
	if m.Impressions <= 0 {
		return 0
	}
	return float64(m.Clicks) / float64(m.Impressions)
}

// EngagementRate returns visible interactions per impression, or 0 when
// the content has not been displayed yet.
func (m EngagementMetrics) EngagementRate() float64 {
	if m.Impressions <= 0 {
		return 0
	}
	return (float64(m.Likes) + float64(m.Comments) + float64(m.Shares)) / float64(m.Impressions)
}

// ContentCandidate is a piece of content under consideration for a feed.
type ContentCandidate struct {
	// ID is the unique content identifier.
	ID string `json:"id"`

	// AuthorID identifies the content creator.
	AuthorID string `json:"author_id"`

	// Title is a short human-readable summary.
	Title string `json:"title,omitempty"`

	// Topics are the topic tags attached to the content.
	Topics []string `json:"topics"`

	// Type is the content format.
	Type ContentType `json:"type"`

	// Language is the BCP 47 language tag of the content.
	Language string `json:"language,omitempty"`

	// CreatedAt is when the content was published.
	CreatedAt time.Time `json:"created_at"`

	// Metrics are the aggregate engagement counts.
	Metrics EngagementMetrics `json:"metrics"`

	// FollowedAuthor marks content from an author the requesting user
	// follows. Set by the candidate source where known; the engine
	// backfills it from the preference profile before scoring.
	FollowedAuthor bool `json:"followed_author,omitempty"`

	// Promoted marks sponsored content.
	Promoted bool `json:"promoted,omitempty"`
}

// Age returns how long the candidate has been published relative to now.
// Future-dated content reports zero age.
func (c *ContentCandidate) Age(now time.Time) time.Duration {
	age := now.Sub(c.CreatedAt)
	if age < 0 {
		return 0
	}
	return age
}

// EngagementEvent records a single user action on content, used to derive
// source affinity and engaged-topic profiles from history.
type EngagementEvent struct {
	// ContentID is the content acted on.
	ContentID string `json:"content_id"`

	// AuthorID is the creator of the content acted on.
	AuthorID string `json:"author_id"`

	// Type is the action taken.
	Type EngagementType `json:"type"`

	// Topics are the topic tags of the content at engagement time.
	Topics []string `json:"topics,omitempty"`

	// OccurredAt is when the action happened.
	OccurredAt time.Time `json:"occurred_at"`
}

// UserPreferenceProfile holds a user's explicit and derived preferences.
type UserPreferenceProfile struct {
	// UserID is the profile owner.
	UserID string `json:"user_id"`

	// TopicInterests maps topic names to interest weights in [0, 1].
	TopicInterests map[string]float64 `json:"topic_interests,omitempty"`

	// FollowedAuthors are author IDs the user follows.
	FollowedAuthors []string `json:"followed_authors,omitempty"`

	// BlockedAuthors are author IDs whose content must never surface.
	BlockedAuthors []string `json:"blocked_authors,omitempty"`

	// BlockedTopics are topic terms whose content must never surface.
	// Matching is a case-insensitive substring test against candidate topics.
	BlockedTopics []string `json:"blocked_topics,omitempty"`

	// Languages are preferred content languages, most preferred first.
	Languages []string `json:"languages,omitempty"`

	// ContentTypeWeights maps content formats to preference weights.
	ContentTypeWeights map[ContentType]float64 `json:"content_type_weights,omitempty"`

	// EngagementCount is the user's lifetime engagement event count.
	EngagementCount int `json:"engagement_count"`

	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"created_at"`

	// LastActiveAt is the most recent activity timestamp.
	LastActiveAt time.Time `json:"last_active_at"`
}

// NeutralPreferences returns an empty profile used when the preference
// store is unavailable. Scoring against it yields neutral results rather
// than failing the feed.
func NeutralPreferences(userID string) *UserPreferenceProfile {
	return &UserPreferenceProfile{
		UserID:         userID,
		TopicInterests: map[string]float64{},
	}
}

// Follows reports whether the user follows the given author.
func (p *UserPreferenceProfile) Follows(authorID string) bool {
	for _, id := range p.FollowedAuthors {
		if id == authorID {
			return true
		}
	}
	return false
}

// BlocksAuthor reports whether the author is on the user's block list.
func (p *UserPreferenceProfile) BlocksAuthor(authorID string) bool {
	for _, id := range p.BlockedAuthors {
		if id == authorID {
			return true
		}
	}
	return false
}

// BlocksAnyTopic reports whether any candidate topic contains a blocked
// term. The comparison is case-insensitive so "NSFW-Art" matches a block
// on "nsfw".
func (p *UserPreferenceProfile) BlocksAnyTopic(topics []string) bool {
	if len(p.BlockedTopics) == 0 {
		return false
	}
	for _, topic := range topics {
		lower := strings.ToLower(topic)
		for _, blocked := range p.BlockedTopics {
			if blocked == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(blocked)) {
				return true
			}
		}
	}
	return false
}

// AccountAge returns how old the account is relative to now. A zero or
// future CreatedAt reports zero age, which the cold-start thresholds
// treat the same as a brand-new account.
func (p *UserPreferenceProfile) AccountAge(now time.Time) time.Duration {
	if p.CreatedAt.IsZero() {
		return 0
	}
	age := now.Sub(p.CreatedAt)
	if age < 0 {
		return 0
	}
	return age
}

// Location is a coarse user location for contextual scoring.
type Location struct {
	// Country is the ISO 3166-1 alpha-2 country code.
	Country string `json:"country"`

	// Region is a country-specific subdivision.
	Region string `json:"region,omitempty"`

	// Timezone is the IANA timezone name.
	Timezone string `json:"timezone,omitempty"`
}

// UserContext captures the situational signals available at request time.
// Any field may be missing; scoring degrades confidence rather than failing.
type UserContext struct {
	// Hour is the user's local hour of day (0-23), or -1 when unknown.
	Hour int `json:"hour"`

	// Weekday is the user's local day of week.
	Weekday time.Weekday `json:"weekday"`

	// Device is the client device class, empty when unknown.
	Device DeviceType `json:"device,omitempty"`

	// Location is the coarse user location, nil when unknown.
	Location *Location `json:"location,omitempty"`

	// SessionDuration is how long the current session has lasted.
	SessionDuration time.Duration `json:"session_duration,omitempty"`

	// SessionDepth is how many items the user has already consumed
	// this session.
	SessionDepth int `json:"session_depth,omitempty"`

	// RecentItemIDs are content IDs the user saw most recently, used to
	// penalize re-surfacing within a session.
	RecentItemIDs []string `json:"recent_item_ids,omitempty"`
}

// FeedRequest is a request for a generated feed.
type FeedRequest struct {
	// UserID is the user the feed is for.
	UserID string `json:"user_id" validate:"required,max=128"`

	// FeedType selects the feed surface.
	FeedType FeedType `json:"feed_type" validate:"required"`

	// Limit is the maximum number of entries to return.
	// Defaults to the configured limit when zero.
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`

	// SkipCache forces regeneration even when a fresh cached feed exists.
	SkipCache bool `json:"skip_cache,omitempty"`

	// WeightOverride replaces the feed-type default weights when set.
	// Experiment overrides still apply on top of it.
	WeightOverride *ScoringWeights `json:"weight_override,omitempty"`

	// Context carries situational signals, nil when unavailable.
	Context *UserContext `json:"context,omitempty"`
}

// FeedEntry is a single ranked item in a generated feed.
type FeedEntry struct {
	// ContentID is the content identifier.
	ContentID string `json:"content_id"`

	// Score is the final composite score in [0, 1].
	Score float64 `json:"score"`

	// Rank is the 1-based position in the feed.
	Rank int `json:"rank"`

	// Reasons explain the inclusion, dominant reason first.
	Reasons []InclusionReason `json:"reasons"`

	// Source classifies how the entry reached the user.
	Source SourceType `json:"source"`

	// Boosted marks entries whose personalization multiplier exceeded 1.
	Boosted bool `json:"boosted,omitempty"`

	// AlgorithmID names the scoring configuration that ranked the entry.
	AlgorithmID string `json:"algorithm_id,omitempty"`
}

// ExperimentInfo records the experiment arm a feed was generated under.
type ExperimentInfo struct {
	// ExperimentID is the experiment identifier.
	ExperimentID string `json:"experiment_id"`

	// VariantID is the assigned variant.
	VariantID string `json:"variant_id"`

	// IsControl marks the control arm.
	IsControl bool `json:"is_control"`
}

// FeedMetadata carries diagnostics about how a feed was produced.
type FeedMetadata struct {
	// GenerationID uniquely identifies this generation run.
	GenerationID string `json:"generation_id"`

	// AlgorithmID names the scoring configuration used.
	AlgorithmID string `json:"algorithm_id"`

	// Version is the engine version that produced the feed.
	Version string `json:"version"`

	// GeneratedAt is when generation completed.
	GeneratedAt time.Time `json:"generated_at"`

	// ExpiresAt is when the feed should be considered stale.
	ExpiresAt time.Time `json:"expires_at"`

	// DurationMS is the generation latency in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// CandidateCount is the number of candidates considered.
	CandidateCount int `json:"candidate_count"`

	// ContentCount is the number of entries returned.
	ContentCount int `json:"content_count"`

	// Parameters are the normalized scoring weights in effect,
	// including any experiment overrides.
	Parameters map[string]float64 `json:"parameters,omitempty"`

	// ColdStart marks feeds produced by the cold-start strategy.
	ColdStart bool `json:"cold_start,omitempty"`

	// CacheHit marks feeds served from cache.
	CacheHit bool `json:"cache_hit,omitempty"`

	// Experiment records the experiment arm, nil when not enrolled.
	Experiment *ExperimentInfo `json:"experiment,omitempty"`

	// Degraded lists inputs served from fallbacks ("preferences",
	// "history", "context").
	Degraded []string `json:"degraded,omitempty"`

	// Error carries the failure description when generation could not
	// produce entries. The feed itself is empty but still well-formed.
	Error string `json:"error,omitempty"`
}

// GeneratedFeed is the final product of feed generation.
type GeneratedFeed struct {
	// UserID is the user the feed was generated for.
	UserID string `json:"user_id"`

	// FeedType is the feed surface.
	FeedType FeedType `json:"feed_type"`

	// Entries are the ranked feed items.
	Entries []FeedEntry `json:"entries"`

	// Metadata carries generation diagnostics.
	Metadata FeedMetadata `json:"metadata"`

	// NextCursor is an opaque continuation token, empty on the last page.
	NextCursor string `json:"next_cursor,omitempty"`

	// HasMore reports whether more ranked content existed beyond the
	// requested limit.
	HasMore bool `json:"has_more"`
}
