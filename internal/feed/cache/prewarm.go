// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/feedloom/internal/feed"
	"github.com/tomtom215/feedloom/internal/metrics"
)

// Prewarm outcomes as reported to observability.
const (
	prewarmWarmed  = "warmed"
	prewarmSkipped = "skipped"
	prewarmFailed  = "failed"
)

// Generator produces a feed for one user and surface. Implemented by
// the feed engine; the prewarmer needs generation only, not the full
// engine surface.
type Generator interface {
	Generate(ctx context.Context, req *feed.FeedRequest) (*feed.GeneratedFeed, error)
}

// PairSource lists the (user, feed type) pairs worth keeping warm,
// typically recently active users on their primary surfaces.
type PairSource interface {
	PrewarmPairs(ctx context.Context, limit int) ([]feed.PrewarmPair, error)
}

// Prewarmer regenerates soon-to-expire feeds in the background so
// active users rarely pay generation latency. Sweeps are best-effort:
// pairs with a fresh cache entry are skipped, one pair's failure never
// aborts the batch, and generation is paced by a rate limiter so
// prewarming cannot crowd out interactive traffic.
type Prewarmer struct {
	cfg     feed.CacheConfig
	cache   *Manager
	gen     Generator
	source  PairSource
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewPrewarmer creates a background prewarmer over the given cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPrewarmer(cfg feed.CacheConfig, cache *Manager, gen Generator, source PairSource, logger zerolog.Logger) *Prewarmer {
	perSecond := cfg.PrewarmRate
	if perSecond <= 0 {
		perSecond = 10
	}
	return &Prewarmer{
		cfg:     cfg,
		cache:   cache,
		gen:     gen,
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:  logger.With().Str("component", "prewarmer").Logger(),
	}
}

// Run executes prewarm sweeps until the context is canceled. It
// implements suture.Service via the supervisor wrapper.
func (p *Prewarmer) Run(ctx context.Context) error {
	interval := p.cfg.PrewarmInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	p.sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

// sweep runs one prewarm batch.
func (p *Prewarmer) sweep(ctx context.Context) {
	evicted := p.cache.Sweep()

	batch := p.cfg.PrewarmBatchSize
	if batch <= 0 {
		batch = 16
	}
	pairs, err := p.source.PrewarmPairs(ctx, batch)
	if err != nil {
		p.logger.Warn().Err(err).Msg("prewarm pair listing failed")
		return
	}

	warmed, skipped, failed := 0, 0, 0
	for _, pair := range pairs {
		if ctx.Err() != nil {
			return
		}
		if p.cache.FreshFeed(pair.UserID, pair.FeedType) {
			skipped++
			metrics.RecordPrewarmPair(prewarmSkipped)
			continue
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		if p.warm(ctx, pair) {
			warmed++
		} else {
			failed++
		}
	}

	p.logger.Debug().
		Int("pairs", len(pairs)).
		Int("warmed", warmed).
		Int("skipped", skipped).
		Int("failed", failed).
		Int("evicted", evicted).
		Msg("prewarm sweep complete")
}

// warm regenerates one feed. Generation stores the result in the cache
// itself, so a successful call leaves the entry fresh.
func (p *Prewarmer) warm(ctx context.Context, pair feed.PrewarmPair) bool {
	req := &feed.FeedRequest{
		UserID:   pair.UserID,
		FeedType: pair.FeedType,
	}
	f, err := p.gen.Generate(ctx, req)
	if err != nil {
		metrics.RecordPrewarmPair(prewarmFailed)
		p.logger.Warn().Err(err).
			Str("user_id", pair.UserID).
			Str("feed_type", string(pair.FeedType)).
			Msg("prewarm generation failed")
		return false
	}
	if f != nil && f.Metadata.Error != "" {
		metrics.RecordPrewarmPair(prewarmFailed)
		p.logger.Warn().
			Str("user_id", pair.UserID).
			Str("feed_type", string(pair.FeedType)).
			Str("error", f.Metadata.Error).
			Msg("prewarm generation degraded")
		return false
	}
	metrics.RecordPrewarmPair(prewarmWarmed)
	return true
}

// String implements fmt.Stringer for supervisor logging.
func (p *Prewarmer) String() string {
	return "feed-prewarmer"
}
