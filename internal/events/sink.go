// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/feedloom/internal/metrics"
)

// Sink receives experiment metric events. Implementations must be safe for
// concurrent use; callers publish from detached goroutines.
type Sink interface {
	PublishMetric(ctx context.Context, metric *ExperimentMetric) error
	Close() error
}

// Publisher implements Sink over a Watermill publisher with circuit breaker
// protection, so a dead transport fails fast instead of accumulating blocked
// goroutines.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[interface{}]
	logger    zerolog.Logger
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher wraps a Watermill publisher as a metric sink.
func NewPublisher(pub message.Publisher, cfg BreakerConfig, logger zerolog.Logger) *Publisher {
	p := &Publisher{
		publisher: pub,
		logger:    logger,
	}
	if cfg.Enabled {
		p.breaker = newBreaker(cfg)
	}
	return p
}

// newBreaker builds the publish circuit breaker.
func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "experiment-metrics",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	})
}

// PublishMetric validates, serializes, and publishes one metric event.
func (p *Publisher) PublishMetric(_ context.Context, metric *ExperimentMetric) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("metric sink is closed")
	}
	p.mu.RUnlock()

	if err := metric.Validate(); err != nil {
		return fmt.Errorf("validate metric: %w", err)
	}

	data, err := metric.Serialize()
	if err != nil {
		return fmt.Errorf("serialize metric: %w", err)
	}

	msg := message.NewMessage(metric.EventID, data)
	msg.Metadata.Set("experiment_id", metric.ExperimentID)
	msg.Metadata.Set("variant_id", metric.VariantID)
	msg.Metadata.Set("user_id", metric.UserID)

	if p.breaker != nil {
		_, err = p.breaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(TopicExperimentMetrics, msg)
		})
	} else {
		err = p.publisher.Publish(TopicExperimentMetrics, msg)
	}

	if err != nil {
		metrics.RecordEventPublishFailure()
		return fmt.Errorf("publish metric: %w", err)
	}

	metrics.RecordEventPublished()
	return nil
}

// Close shuts down the underlying publisher. Subsequent publishes fail.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}

// BreakerState reports the circuit breaker state for the health surface,
// or "disabled" when no breaker is configured.
func (p *Publisher) BreakerState() string {
	if p.breaker == nil {
		return "disabled"
	}
	return p.breaker.State().String()
}

// NewChannelSink builds an in-process GoChannel-backed sink. The returned
// subscriber consumes the same channel and feeds the metric relay.
func NewChannelSink(cfg BreakerConfig, logger zerolog.Logger) (*Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		NewWatermillLogger(logger),
	)
	return NewPublisher(pubSub, cfg, logger), pubSub
}

// NopSink drops every metric. Used when the sink is disabled by config.
type NopSink struct{}

// PublishMetric discards the metric.
func (NopSink) PublishMetric(context.Context, *ExperimentMetric) error { return nil }

// Close is a no-op.
func (NopSink) Close() error { return nil }

var (
	_ Sink = (*Publisher)(nil)
	_ Sink = NopSink{}
)
