// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// MetricRelay is a supervised service that consumes experiment metric events
// and surfaces them in the log. In standalone mode this is the only consumer;
// production deployments consume from NATS with their own pipelines.
type MetricRelay struct {
	subscriber message.Subscriber
	logger     zerolog.Logger
}

// NewMetricRelay creates a relay reading from the given subscriber.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewMetricRelay(sub message.Subscriber, logger zerolog.Logger) *MetricRelay {
	return &MetricRelay{subscriber: sub, logger: logger}
}

// Serve consumes metric events until the context is canceled. Implements
// suture.Service.
func (r *MetricRelay) Serve(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, TopicExperimentMetrics)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// Subscriber closed; happens only at shutdown.
				return suture.ErrDoNotRestart
			}
			r.handle(msg)
		}
	}
}

// handle logs one metric event and acks it.
func (r *MetricRelay) handle(msg *message.Message) {
	defer msg.Ack()

	metric, err := DeserializeMetric(msg.Payload)
	if err != nil {
		r.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("undecodable experiment metric")
		return
	}

	r.logger.Info().
		Str("experiment_id", metric.ExperimentID).
		Str("variant_id", metric.VariantID).
		Bool("is_control", metric.IsControl).
		Str("user_id", metric.UserID).
		Str("feed_type", metric.FeedType).
		Int64("duration_ms", metric.DurationMs).
		Int("content_count", metric.ContentCount).
		Int("candidate_count", metric.CandidateCount).
		Msg("experiment metric")
}

// String names the service in supervisor logs.
func (r *MetricRelay) String() string {
	return "events.MetricRelay"
}
