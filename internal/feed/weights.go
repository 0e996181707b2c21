// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package feed

// SignalTrending is the well-known custom weight name for the
// engagement-velocity signal. Cold-start weighting and experiment
// parameters both address it by this name.
const SignalTrending = "trending"

// ScoringWeights defines the contribution of each core scoring dimension
// plus an open map of custom named weights for auxiliary signals such as
// "trending". Core weights are normalized before use; custom weights pass
// through unscaled.
type ScoringWeights struct {
	// Recency is the weight for content freshness.
	Recency float64 `koanf:"recency" json:"recency"`

	// Popularity is the weight for platform-wide engagement.
	Popularity float64 `koanf:"popularity" json:"popularity"`

	// Relevance is the weight for topic, content-type, and language
	// match against the user's preferences.
	Relevance float64 `koanf:"relevance" json:"relevance"`

	// Following is the bonus weight applied when the author is followed.
	Following float64 `koanf:"following" json:"following"`

	// Engagement is the bonus weight scaled by the content's engagement
	// rate.
	Engagement float64 `koanf:"engagement" json:"engagement"`

	// Custom maps auxiliary signal names to weights. Unknown names score
	// zero, so stray experiment parameters are harmless.
	Custom map[string]float64 `koanf:"custom" json:"custom,omitempty"`
}

// coreWeightNames are the named dimensions subject to normalization.
var coreWeightNames = map[string]struct{}{
	"recency":    {},
	"popularity": {},
	"relevance":  {},
	"following":  {},
	"engagement": {},
}

// CoreSum returns the sum of the raw core weights.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ScoringWeights) CoreSum() float64 {
	return w.Recency + w.Popularity + w.Relevance + w.Following + w.Engagement
}

// Normalize returns a copy whose core weights sum to 1.0 with negatives
// clamped to zero. When the raw core sum is not positive the weights pass
// through unchanged; callers opting out of weighted scoring that way keep
// their configuration intact.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ScoringWeights) Normalize() ScoringWeights {
	if w.CoreSum() <= 0 {
		out := w
		out.Custom = cloneCustom(w.Custom)
		return out
	}

	clamped := ScoringWeights{
		Recency:    clampNonNegative(w.Recency),
		Popularity: clampNonNegative(w.Popularity),
		Relevance:  clampNonNegative(w.Relevance),
		Following:  clampNonNegative(w.Following),
		Engagement: clampNonNegative(w.Engagement),
		Custom:     cloneCustom(w.Custom),
	}

	sum := clamped.CoreSum()
	clamped.Recency /= sum
	clamped.Popularity /= sum
	clamped.Relevance /= sum
	clamped.Following /= sum
	clamped.Engagement /= sum
	return clamped
}

// ToMap returns core and custom weights as a string-keyed map.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ScoringWeights) ToMap() map[string]float64 {
	out := map[string]float64{
		"recency":    w.Recency,
		"popularity": w.Popularity,
		"relevance":  w.Relevance,
		"following":  w.Following,
		"engagement": w.Engagement,
	}
	for name, weight := range w.Custom {
		out[name] = weight
	}
	return out
}

// CustomWeight returns the named custom weight, or 0 when absent.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ScoringWeights) CustomWeight(name string) float64 {
	return w.Custom[name]
}

// WithOverrides returns a normalized copy with parameters applied. Core
// weight names override their field directly; every other parameter folds
// into the custom-weights map.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ScoringWeights) WithOverrides(params map[string]float64) ScoringWeights {
	if len(params) == 0 {
		return w.Normalize()
	}

	out := w
	out.Custom = cloneCustom(w.Custom)
	for name, value := range params {
		switch name {
		case "recency":
			out.Recency = value
		case "popularity":
			out.Popularity = value
		case "relevance":
			out.Relevance = value
		case "following":
			out.Following = value
		case "engagement":
			out.Engagement = value
		default:
			if out.Custom == nil {
				out.Custom = make(map[string]float64, len(params))
			}
			out.Custom[name] = value
		}
	}
	return out.Normalize()
}

// WithCustom returns a copy with one custom weight set. The copy is not
// normalized since custom weights do not participate in normalization.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ScoringWeights) WithCustom(name string, value float64) ScoringWeights {
	out := w
	out.Custom = cloneCustom(w.Custom)
	if out.Custom == nil {
		out.Custom = make(map[string]float64, 1)
	}
	out.Custom[name] = value
	return out
}

// IsCoreWeight reports whether name is a normalized core dimension.
func IsCoreWeight(name string) bool {
	_, ok := coreWeightNames[name]
	return ok
}

// DefaultWeights returns the baseline weights for a feed surface.
// Following feeds favor recency and followed authors, discover feeds
// favor relevance and popularity, trending feeds favor popularity.
func DefaultWeights(t FeedType) ScoringWeights {
	switch t {
	case FeedDiscover:
		return ScoringWeights{
			Recency:    0.20,
			Popularity: 0.30,
			Relevance:  0.35,
			Following:  0.00,
			Engagement: 0.15,
		}
	case FeedFollowing:
		return ScoringWeights{
			Recency:    0.35,
			Popularity: 0.10,
			Relevance:  0.20,
			Following:  0.25,
			Engagement: 0.10,
		}
	case FeedTrending:
		return ScoringWeights{
			Recency:    0.30,
			Popularity: 0.45,
			Relevance:  0.10,
			Following:  0.05,
			Engagement: 0.10,
		}
	default:
		return ScoringWeights{
			Recency:    0.25,
			Popularity: 0.20,
			Relevance:  0.35,
			Following:  0.10,
			Engagement: 0.10,
		}
	}
}

func cloneCustom(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
