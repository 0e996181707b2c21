// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package experiment implements deterministic A/B assignment for feed
// scoring. Inclusion and variant selection both derive from FNV-64a
// hashes of the user, experiment, and salt, so assignment needs no
// coordination and repeated calls always agree. The variant hash mixes
// in an extra scope token; reusing the inclusion bucket would hand every
// enrolled user to the first variant whenever traffic is below 100%.
package experiment

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/feed"
	"github.com/tomtom215/feedloom/internal/kvstore"
	"github.com/tomtom215/feedloom/internal/metrics"
)

// bucketCount is the hash bucket space; traffic percentages and variant
// allocations are both expressed against it.
const bucketCount = 100

// variantScope is mixed into the variant-selection hash to decorrelate
// it from the inclusion bucket.
const variantScope = "variant"

// keyPrefix namespaces memoized assignments in the key-value store,
// keyed by experiment first so an experiment can be wiped with one
// prefix delete.
const keyPrefix = "exp:"

// Assigner implements feed.Assigner over the configured experiment
// registry, memoizing assignments through a key-value store.
type Assigner struct {
	cfg    feed.ExperimentConfig
	store  kvstore.Store
	logger zerolog.Logger
}

// NewAssigner creates an assigner. The store may be nil, in which case
// assignments are recomputed per call; purity makes that safe, the
// store only pins assignments across configuration changes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAssigner(cfg feed.ExperimentConfig, store kvstore.Store, logger zerolog.Logger) *Assigner {
	return &Assigner{
		cfg:    cfg,
		store:  store,
		logger: logger.With().Str("component", "experiment").Logger(),
	}
}

// Assign resolves the active experiment for the surface and returns the
// user's assignment, or nil when experiments are off or none applies.
// The first evaluation for a (user, experiment) pair is memoized; later
// calls return the stored assignment even if allocations have since
// changed.
func (a *Assigner) Assign(ctx context.Context, userID string, feedType feed.FeedType) (*feed.Assignment, error) {
	if !a.cfg.Enabled || userID == "" {
		return nil, nil
	}
	exp := a.activeExperiment(feedType)
	if exp == nil {
		return nil, nil
	}

	key := assignmentKey(exp.ID, userID)
	if a.store != nil {
		if raw, err := a.store.Get(ctx, key); err == nil {
			var cached feed.Assignment
			if uerr := json.Unmarshal(raw, &cached); uerr == nil {
				return &cached, nil
			}
		}
	}

	assignment := a.evaluate(userID, exp)
	a.memoize(ctx, key, assignment)
	if assignment.InExperiment {
		metrics.RecordExperimentAssignment(assignment.ExperimentID, assignment.VariantID)
	}
	return assignment, nil
}

// activeExperiment returns the first enabled experiment covering the
// surface. Registry order is significant: one experiment per surface at
// a time.
func (a *Assigner) activeExperiment(feedType feed.FeedType) *feed.Experiment {
	for i := range a.cfg.Experiments {
		exp := &a.cfg.Experiments[i]
		if exp.Enabled && exp.AppliesTo(feedType) {
			return exp
		}
	}
	return nil
}

// evaluate computes the assignment purely from hashes.
func (a *Assigner) evaluate(userID string, exp *feed.Experiment) *feed.Assignment {
	bucket := bucketFor(userID, exp.ID, a.cfg.Salt, "")
	assignment := &feed.Assignment{
		ExperimentID: exp.ID,
		Bucket:       bucket,
	}
	if bucket >= exp.TrafficPercent || len(exp.Variants) == 0 {
		return assignment
	}

	v := pickVariant(exp.Variants, bucketFor(userID, exp.ID, a.cfg.Salt, variantScope))
	assignment.InExperiment = true
	assignment.VariantID = v.ID
	assignment.IsControl = v.Control
	if !v.Control && len(v.Parameters) > 0 {
		params := make(map[string]float64, len(v.Parameters))
		for name, value := range v.Parameters {
			params[name] = value
		}
		assignment.Parameters = params
	}
	return assignment
}

// memoize stores the assignment without expiry. Failures degrade to
// recomputation, which yields the same result for a stable registry.
func (a *Assigner) memoize(ctx context.Context, key string, assignment *feed.Assignment) {
	if a.store == nil {
		return
	}
	raw, err := json.Marshal(assignment)
	if err != nil {
		return
	}
	if err := a.store.Set(ctx, key, raw, time.Duration(0)); err != nil {
		a.logger.Debug().Err(err).Str("key", key).Msg("assignment memoization failed")
	}
}

// pickVariant walks cumulative allocations and returns the first variant
// whose cumulative share exceeds the bucket, with the last variant as
// the rounding fallback.
func pickVariant(variants []feed.Variant, bucket int) *feed.Variant {
	cumulative := 0.0
	for i := range variants {
		cumulative += variants[i].Allocation
		if float64(bucket) < cumulative {
			return &variants[i]
		}
	}
	return &variants[len(variants)-1]
}

// bucketFor hashes (userID, experimentID, salt[, scope]) into [0, 100).
func bucketFor(userID, experimentID, salt, scope string) int {
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte{':'})
	h.Write([]byte(experimentID))
	h.Write([]byte{':'})
	h.Write([]byte(salt))
	if scope != "" {
		h.Write([]byte{':'})
		h.Write([]byte(scope))
	}
	return int(h.Sum64() % bucketCount)
}

func assignmentKey(experimentID, userID string) string {
	return keyPrefix + experimentID + ":" + userID
}

// Ensure Assigner implements the interface.
var _ feed.Assigner = (*Assigner)(nil)
