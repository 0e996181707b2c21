// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package feed

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedloom/internal/events"
	"github.com/tomtom215/feedloom/internal/metrics"
)

// Deps bundles the collaborators an engine is built from. Every field
// except Sink is required; a nil Sink defaults to a no-op.
type Deps struct {
	Source    CandidateSource
	Prefs     PreferenceStore
	History   EngagementHistory
	Contexts  ContextSource
	Scorer    Scorer
	Diversity Diversifier
	ColdStart ColdStartStrategy
	Assigner  Assigner
	Cache     Cache
	Sink      events.Sink
}

func (d *Deps) validate() error {
	switch {
	case d.Source == nil:
		return errors.New("engine: nil candidate source")
	case d.Prefs == nil:
		return errors.New("engine: nil preference store")
	case d.History == nil:
		return errors.New("engine: nil engagement history")
	case d.Contexts == nil:
		return errors.New("engine: nil context source")
	case d.Scorer == nil:
		return errors.New("engine: nil scorer")
	case d.Diversity == nil:
		return errors.New("engine: nil diversifier")
	case d.ColdStart == nil:
		return errors.New("engine: nil cold-start strategy")
	case d.Assigner == nil:
		return errors.New("engine: nil assigner")
	case d.Cache == nil:
		return errors.New("engine: nil cache")
	}
	return nil
}

// Engine orchestrates feed generation end to end: request validation,
// cache lookup, input gathering, experiment resolution, scoring,
// diversification, and assembly. All collaborators are chosen at
// construction; the pipeline itself carries no optional branches.
type Engine struct {
	cfg    *Config
	deps   Deps
	logger zerolog.Logger
}

// NewEngine builds an engine from a configuration and a full set of
// collaborators. A nil config uses DefaultConfig. The config is cloned
// so later mutations by the caller cannot reach a running engine.
func NewEngine(cfg *Config, deps Deps, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid config: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Sink == nil {
		deps.Sink = events.NopSink{}
	}
	return &Engine{
		cfg:    cfg.Clone(),
		deps:   deps,
		logger: logger.With().Str("component", "engine").Logger(),
	}, nil
}

// generation carries the accumulated state of one feed build so the
// pipeline stages stay small.
type generation struct {
	req        *FeedRequest
	start      time.Time
	now        time.Time
	log        zerolog.Logger
	profile    *UserPreferenceProfile
	history    []EngagementEvent
	uctx       *UserContext
	weights    ScoringWeights
	assignment *Assignment
	coldStart  bool
	candidates []ContentCandidate
	scored     []ScoredCandidate
	degraded   []string
}

// Generate produces a ranked feed for the request. Generation is total:
// apart from request validation, every failure degrades into a feed
// that is still well-formed, possibly empty with the fault recorded in
// its metadata. The only errors returned are *ValidationError.
func (e *Engine) Generate(ctx context.Context, req *FeedRequest) (*GeneratedFeed, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	gen := e.newGeneration(req)

	if f, ok := e.cachedFeed(ctx, gen); ok {
		return f, nil
	}
	return e.build(ctx, gen), nil
}

func validateRequest(req *FeedRequest) error {
	if req == nil {
		return NewValidationError("request", "missing request")
	}
	if req.UserID == "" {
		return NewValidationError("user_id", "required")
	}
	if len(req.UserID) > 128 {
		return NewValidationError("user_id", "longer than 128 characters")
	}
	if !req.FeedType.Valid() {
		return NewValidationError("feed_type", fmt.Sprintf("unknown feed type %q", req.FeedType))
	}
	if req.Limit < 0 {
		return NewValidationError("limit", "must not be negative")
	}
	return nil
}

// newGeneration copies the request, applies limit defaults, and seeds
// the per-request logger. The caller's request is never mutated.
func (e *Engine) newGeneration(req *FeedRequest) *generation {
	r := *req
	if r.Limit == 0 {
		r.Limit = e.cfg.Limits.DefaultLimit
	}
	if r.Limit > e.cfg.Limits.MaxLimit {
		r.Limit = e.cfg.Limits.MaxLimit
	}
	now := time.Now()
	return &generation{
		req:   &r,
		start: now,
		now:   now.UTC(),
		log: e.logger.With().
			Str("user_id", r.UserID).
			Str("feed_type", string(r.FeedType)).
			Logger(),
	}
}

// cachedFeed returns a copy of a fresh cached feed. The copy keeps the
// stored entry immutable while the served one is marked as a hit.
func (e *Engine) cachedFeed(ctx context.Context, gen *generation) (*GeneratedFeed, bool) {
	if gen.req.SkipCache {
		return nil, false
	}
	cached, ok := e.deps.Cache.GetFeed(ctx, gen.req.UserID, gen.req.FeedType)
	if !ok {
		return nil, false
	}
	f := *cached
	f.Entries = append([]FeedEntry(nil), cached.Entries...)
	f.Metadata.CacheHit = true
	f.Metadata.DurationMS = time.Since(gen.start).Milliseconds()
	gen.log.Debug().Int("entries", len(f.Entries)).Msg("serving cached feed")
	return &f, true
}

// build runs the full pipeline. It never fails: pipeline errors
// collapse into an empty feed, with the fault in the metadata unless
// the pool was legitimately empty.
func (e *Engine) build(ctx context.Context, gen *generation) *GeneratedFeed {
	f, err := e.tryBuild(ctx, gen)
	if err == nil {
		return f
	}
	if errors.Is(err, ErrNoCandidates) {
		gen.log.Debug().Msg("no candidates for feed")
		return e.emptyFeed(gen, nil)
	}
	metrics.RecordFeedGenerationFailure(string(gen.req.FeedType))
	gen.log.Error().Err(err).Msg("feed generation failed")
	return e.emptyFeed(gen, err)
}

func (e *Engine) tryBuild(ctx context.Context, gen *generation) (f *GeneratedFeed, err error) {
	// Generation must never propagate a fault to the caller, so a panic
	// anywhere in the pipeline is converted into the error path here.
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("panic in generation pipeline: %v", r)
		}
	}()

	e.gatherInputs(ctx, gen)
	e.resolveWeights(ctx, gen)
	if err := e.gatherCandidates(ctx, gen); err != nil {
		return nil, err
	}
	if err := e.scoreAndRank(ctx, gen); err != nil {
		return nil, err
	}
	return e.assembleFeed(ctx, gen), nil
}

// gatherInputs loads the profile, history, and context, substituting
// neutral fallbacks for unavailable upstreams so generation proceeds.
func (e *Engine) gatherInputs(ctx context.Context, gen *generation) {
	profile := e.fetchProfile(ctx, gen)
	gen.profile = profile.Value
	if profile.Degraded {
		gen.degraded = append(gen.degraded, profile.Reason)
	}

	history := e.fetchHistory(ctx, gen)
	gen.history = history.Value
	if history.Degraded {
		gen.degraded = append(gen.degraded, history.Reason)
	}

	uctx := e.fetchContext(ctx, gen)
	gen.uctx = uctx.Value
	if uctx.Degraded {
		gen.degraded = append(gen.degraded, uctx.Reason)
	}
}

func (e *Engine) fetchProfile(ctx context.Context, gen *generation) Fetched[*UserPreferenceProfile] {
	if p, ok := e.deps.Cache.GetPreferences(ctx, gen.req.UserID); ok {
		return Fresh(p)
	}
	p, err := e.deps.Prefs.Preferences(ctx, gen.req.UserID)
	if err != nil {
		metrics.RecordUpstreamFailure("preferences")
		gen.log.Warn().Err(err).Msg("preference store unavailable, using neutral profile")
		return Fallback(NeutralPreferences(gen.req.UserID), "preferences")
	}
	if p == nil {
		return Fallback(NeutralPreferences(gen.req.UserID), "preferences")
	}
	e.deps.Cache.StorePreferences(ctx, p)
	return Fresh(p)
}

func (e *Engine) fetchHistory(ctx context.Context, gen *generation) Fetched[[]EngagementEvent] {
	hist, err := e.deps.History.RecentEngagements(ctx, gen.req.UserID, e.cfg.Limits.MaxHistoryEvents)
	if err != nil {
		metrics.RecordUpstreamFailure("history")
		gen.log.Warn().Err(err).Msg("engagement history unavailable, scoring without it")
		return Fallback([]EngagementEvent(nil), "history")
	}
	if days := e.cfg.Limits.HistoryLookbackDays; days > 0 {
		hist = trimHistory(hist, gen.now.AddDate(0, 0, -days))
	}
	return Fresh(hist)
}

// trimHistory drops events older than the cutoff. Events arrive newest
// first, so the first stale event ends the useful prefix.
func trimHistory(hist []EngagementEvent, cutoff time.Time) []EngagementEvent {
	for i, ev := range hist {
		if ev.OccurredAt.Before(cutoff) {
			return hist[:i]
		}
	}
	return hist
}

// fetchContext prefers the context carried on the request; the provider
// only fills in when the request has none.
func (e *Engine) fetchContext(ctx context.Context, gen *generation) Fetched[*UserContext] {
	if gen.req.Context != nil {
		return Fresh(gen.req.Context)
	}
	uctx, err := e.deps.Contexts.Context(ctx, gen.req.UserID)
	if err != nil {
		metrics.RecordUpstreamFailure("context")
		gen.log.Warn().Err(err).Msg("context provider unavailable, scoring without context")
		return Fallback[*UserContext](nil, "context")
	}
	return Fresh(uctx)
}

// resolveWeights determines the scoring weights for the run: explicit
// request override or surface default, then any experiment arm on top.
// Assignment failures serve the defaults rather than failing the feed.
func (e *Engine) resolveWeights(ctx context.Context, gen *generation) {
	base := e.cfg.WeightsFor(gen.req.FeedType)
	if gen.req.WeightOverride != nil {
		base = *gen.req.WeightOverride
	}

	assignment, err := e.deps.Assigner.Assign(ctx, gen.req.UserID, gen.req.FeedType)
	switch {
	case err != nil:
		gen.log.Warn().Err(err).Msg("experiment assignment failed, serving defaults")
	case assignment != nil && assignment.InExperiment:
		gen.assignment = assignment
		if len(assignment.Parameters) > 0 {
			base = base.WithOverrides(assignment.Parameters)
			gen.log.Debug().
				Str("experiment_id", assignment.ExperimentID).
				Str("variant_id", assignment.VariantID).
				Msg("applying experiment weight overrides")
		}
	}

	gen.weights = base.Normalize()
}

// gatherCandidates fills the candidate pool, branching to the cold-start
// strategy for users without usable history. Both paths oversample the
// requested limit to leave the diversity pass room to drop items.
func (e *Engine) gatherCandidates(ctx context.Context, gen *generation) error {
	pool := e.poolSize(gen.req.Limit)

	var (
		candidates []ContentCandidate
		err        error
	)
	if e.deps.ColdStart.IsNewUser(gen.profile, gen.now) {
		gen.coldStart = true
		level := e.deps.ColdStart.PersonalizationLevel(gen.profile, gen.now)
		gen.weights = e.deps.ColdStart.Weights(gen.weights, level)
		gen.log.Debug().Float64("personalization_level", level).Msg("generating cold-start pool")

		candidates, err = e.deps.ColdStart.Generate(ctx, gen.req, gen.profile, gen.now)
		if err != nil {
			return fmt.Errorf("cold-start candidates: %w", err)
		}
	} else {
		candidates, err = e.deps.Source.Candidates(ctx, gen.req.UserID, gen.req.FeedType, pool)
		if err != nil {
			metrics.RecordUpstreamFailure("candidates")
			return fmt.Errorf("candidate retrieval: %w", err)
		}
	}

	gen.candidates = e.filterCandidates(candidates, gen.profile)
	if len(gen.candidates) > pool {
		gen.candidates = gen.candidates[:pool]
	}
	if len(gen.candidates) == 0 {
		return ErrNoCandidates
	}
	return nil
}

// poolSize returns the oversampled candidate pool size for a limit.
func (e *Engine) poolSize(limit int) int {
	pool := int(float64(limit) * e.cfg.Limits.OversampleFactor)
	if pool < limit {
		pool = limit
	}
	if pool > e.cfg.Limits.MaxCandidates {
		pool = e.cfg.Limits.MaxCandidates
	}
	return pool
}

// filterCandidates drops blocked and duplicate content and backfills
// the followed-author flag from the profile.
func (e *Engine) filterCandidates(candidates []ContentCandidate, profile *UserPreferenceProfile) []ContentCandidate {
	out := make([]ContentCandidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c.ID == "" {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		if profile.BlocksAuthor(c.AuthorID) || profile.BlocksAnyTopic(c.Topics) {
			continue
		}
		seen[c.ID] = struct{}{}
		if !c.FollowedAuthor && profile.Follows(c.AuthorID) {
			c.FollowedAuthor = true
		}
		out = append(out, c)
	}
	return out
}

// scoreAndRank scores the pool, orders it best first, and applies the
// blender's optional ratio control over the ordered list.
func (e *Engine) scoreAndRank(ctx context.Context, gen *generation) error {
	scored, err := e.deps.Scorer.ScoreAll(ctx, &ScoringInput{
		Candidates: gen.candidates,
		Profile:    gen.profile,
		History:    gen.history,
		Context:    gen.uctx,
		Weights:    gen.weights,
		Now:        gen.now,
	})
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	metrics.RecordCandidatesScored(len(scored))

	sortByScore(scored)
	e.deps.Scorer.ApplyRatioControl(scored)
	sortByScore(scored)

	gen.scored = scored
	return nil
}

// sortByScore orders candidates best first, breaking score ties by
// content id so ranking is deterministic.
func sortByScore(scored []ScoredCandidate) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Candidate.ID < scored[j].Candidate.ID
	})
}

// assembleFeed applies diversity constraints, truncates to the limit,
// and builds the final feed, storing it in the cache and emitting the
// experiment metric on the way out.
func (e *Engine) assembleFeed(ctx context.Context, gen *generation) *GeneratedFeed {
	ranked := e.deps.Diversity.Apply(ctx, gen.scored, gen.req.Limit)

	entries := make([]FeedEntry, len(ranked))
	for i, sc := range ranked {
		entries[i] = FeedEntry{
			ContentID:   sc.Candidate.ID,
			Score:       sc.Score,
			Rank:        i + 1,
			Reasons:     sc.Reasons,
			Source:      sc.Source,
			Boosted:     sc.Components["multiplier"] > 1,
			AlgorithmID: e.cfg.AlgorithmID,
		}
	}

	f := &GeneratedFeed{
		UserID:   gen.req.UserID,
		FeedType: gen.req.FeedType,
		Entries:  entries,
		Metadata: e.metadata(gen, len(entries)),
		HasMore:  len(gen.scored) > gen.req.Limit,
	}
	if f.HasMore {
		f.NextCursor = nextCursor(f.Metadata.GenerationID, len(ranked))
	}

	e.deps.Cache.StoreFeed(ctx, f)
	e.publishMetric(gen, f)
	metrics.RecordFeedGeneration(string(gen.req.FeedType), gen.coldStart, time.Since(gen.start))
	gen.log.Info().
		Int("entries", len(entries)).
		Int("candidates", len(gen.candidates)).
		Bool("cold_start", gen.coldStart).
		Int64("duration_ms", f.Metadata.DurationMS).
		Msg("feed generated")
	return f
}

// metadata assembles generation diagnostics. ExpiresAt is stamped by
// the cache when the feed is stored, since TTL policy lives there.
func (e *Engine) metadata(gen *generation, contentCount int) FeedMetadata {
	md := FeedMetadata{
		GenerationID:   uuid.New().String(),
		AlgorithmID:    e.cfg.AlgorithmID,
		Version:        e.cfg.Version,
		GeneratedAt:    gen.now,
		DurationMS:     time.Since(gen.start).Milliseconds(),
		CandidateCount: len(gen.candidates),
		ContentCount:   contentCount,
		Parameters:     gen.weights.ToMap(),
		ColdStart:      gen.coldStart,
		Degraded:       gen.degraded,
	}
	if gen.assignment != nil && gen.assignment.InExperiment {
		md.Experiment = &ExperimentInfo{
			ExperimentID: gen.assignment.ExperimentID,
			VariantID:    gen.assignment.VariantID,
			IsControl:    gen.assignment.IsControl,
		}
	}
	return md
}

// emptyFeed returns a well-formed feed with no entries. A non-nil
// genErr is recorded in the metadata so callers can see the fault.
func (e *Engine) emptyFeed(gen *generation, genErr error) *GeneratedFeed {
	md := e.metadata(gen, 0)
	if genErr != nil {
		md.Error = genErr.Error()
	}
	return &GeneratedFeed{
		UserID:   gen.req.UserID,
		FeedType: gen.req.FeedType,
		Entries:  []FeedEntry{},
		Metadata: md,
	}
}

// publishMetric emits the experiment exposure event fire-and-forget so
// sink latency never delays the response.
func (e *Engine) publishMetric(gen *generation, f *GeneratedFeed) {
	if gen.assignment == nil || !gen.assignment.InExperiment {
		return
	}
	metric := events.NewExperimentMetric(gen.req.UserID, gen.assignment.ExperimentID, gen.assignment.VariantID)
	metric.IsControl = gen.assignment.IsControl
	metric.FeedType = string(gen.req.FeedType)
	metric.AlgorithmID = e.cfg.AlgorithmID
	metric.DurationMs = f.Metadata.DurationMS
	metric.ContentCount = f.Metadata.ContentCount
	metric.CandidateCount = f.Metadata.CandidateCount

	log := gen.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.deps.Sink.PublishMetric(ctx, metric); err != nil {
			log.Warn().Err(err).Str("experiment_id", metric.ExperimentID).Msg("experiment metric publish failed")
		}
	}()
}

// nextCursor encodes an opaque continuation token tied to one
// generation run.
func nextCursor(generationID string, offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%d", generationID, offset)))
}
