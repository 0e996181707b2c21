// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"time"

	"github.com/tomtom215/feedloom/internal/feed"
	feedcache "github.com/tomtom215/feedloom/internal/feed/cache"
	"github.com/tomtom215/feedloom/internal/feed/experiment"
	"github.com/tomtom215/feedloom/internal/kvstore"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// feedTimeout bounds a single feed generation call. Generation degrades
// internally, so this only guards against a wedged collaborator.
const feedTimeout = 10 * time.Second

// Handler holds the dependencies shared by all API endpoints.
type Handler struct {
	engine   *feed.Engine
	cache    *feedcache.Manager
	assigner *experiment.Assigner
	kv       kvstore.Store
	cfg      *feed.Config

	startTime time.Time
}

// NewHandler creates the API handler. The engine and cache manager are
// required; assigner and kv may be nil, which disables the corresponding
// endpoints' detail payloads.
func NewHandler(engine *feed.Engine, cache *feedcache.Manager, assigner *experiment.Assigner, kv kvstore.Store, cfg *feed.Config) *Handler {
	return &Handler{
		engine:    engine,
		cache:     cache,
		assigner:  assigner,
		kv:        kv,
		cfg:       cfg,
		startTime: time.Now(),
	}
}
