// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Warmer defines the interface for the cache prewarmer. This allows the
// service to wrap the prewarmer without importing the cache package.
type Warmer interface {
	// Run executes prewarm sweeps until the context is canceled.
	Run(ctx context.Context) error
}

// PrewarmService wraps the cache prewarmer for suture supervision. The
// prewarmer's Run loop already honors context cancellation; the wrapper
// adds lifecycle logging and normalizes the shutdown return value so a
// clean stop is not counted as a failure.
type PrewarmService struct {
	warmer Warmer
	logger zerolog.Logger
	name   string
}

// NewPrewarmService creates a new prewarm service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPrewarmService(warmer Warmer, logger zerolog.Logger) *PrewarmService {
	return &PrewarmService{
		warmer: warmer,
		logger: logger.With().Str("service", "prewarm").Logger(),
		name:   "prewarm-service",
	}
}

// Serve implements the suture.Service interface.
func (s *PrewarmService) Serve(ctx context.Context) error {
	s.logger.Info().Msg("prewarm service starting")

	err := s.warmer.Run(ctx)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Info().Msg("prewarm service shutting down")
		return err
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("prewarm service failed")
	}
	return err
}

// String returns the service name for logging.
func (s *PrewarmService) String() string {
	return s.name
}
