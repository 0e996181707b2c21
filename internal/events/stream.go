// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

//go:build nats

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamExperimentMetrics is the JetStream stream holding experiment metric
// events. The stream is named separately from the topic because stream names
// cannot contain subject separators.
const StreamExperimentMetrics = "FEED_EXPERIMENTS"

// StreamConfig defines the experiment metric stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the production stream configuration. The
// duplicate window backs publish deduplication via the Nats-Msg-Id header.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            StreamExperimentMetrics,
		Subjects:        []string{"feed.experiment.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        1 << 30,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// EnsureStream creates the metric stream or updates an existing one to the
// given configuration. Publishing requires the stream to exist because the
// publisher does not auto-provision.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg StreamConfig) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:       cfg.Name,
		Subjects:   cfg.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     cfg.MaxAge,
		MaxBytes:   cfg.MaxBytes,
		MaxMsgs:    cfg.MaxMsgs,
		Duplicates: cfg.DuplicateWindow,
		Replicas:   cfg.Replicas,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	if _, err := js.Stream(ctx, cfg.Name); err == nil {
		stream, err := js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	}

	stream, err := js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("create stream %s: %w", cfg.Name, err)
	}
	return stream, nil
}
