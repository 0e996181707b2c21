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

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// NewNATSSink builds a metric sink publishing to NATS JetStream. With the
// embedded server enabled the sink starts an in-process server and owns its
// lifecycle; otherwise it dials the configured external URL. The metric
// stream is provisioned before the first publish, and the message UUID
// doubles as the Nats-Msg-Id for deduplication within the stream's
// duplicate window.
func NewNATSSink(cfg Config, logger zerolog.Logger) (*Publisher, error) {
	url := cfg.NATS.URL

	var embedded *EmbeddedServer
	if cfg.NATS.Embedded.Enabled {
		srv, err := StartEmbeddedServer(cfg.NATS.Embedded)
		if err != nil {
			return nil, fmt.Errorf("start embedded nats server: %w", err)
		}
		embedded = srv
		url = srv.ClientURL()
		logger.Info().
			Str("url", url).
			Bool("jetstream", srv.JetStreamEnabled()).
			Msg("embedded nats server ready")
	}

	fail := func(err error) (*Publisher, error) {
		if embedded != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = embedded.Shutdown(ctx)
			cancel()
		}
		return nil, err
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.NATS.MaxReconnects),
		natsgo.ReconnectWait(cfg.NATS.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	// The publisher does not auto-provision because the stream name differs
	// from the dotted topic. Provision it here on a short-lived connection.
	if err := provisionStream(url, natsOpts); err != nil {
		return fail(fmt.Errorf("provision metric stream: %w", err))
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, NewWatermillLogger(logger))
	if err != nil {
		return fail(fmt.Errorf("create nats publisher: %w", err))
	}

	return NewPublisher(&natsPublisher{pub, embedded}, cfg.Breaker, logger), nil
}

// provisionStream ensures the metric stream exists before publishing starts.
func provisionStream(url string, opts []natsgo.Option) error {
	nc, err := natsgo.Connect(url, opts...)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = EnsureStream(ctx, js, DefaultStreamConfig())
	return err
}

// natsPublisher stamps the NATS dedup header before delegating and ties an
// optional embedded server's lifetime to the publisher's.
type natsPublisher struct {
	*wmNats.Publisher
	embedded *EmbeddedServer
}

func (p *natsPublisher) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
		}
	}
	return p.Publisher.Publish(topic, messages...)
}

// Close closes the publisher connection and then stops the embedded server,
// if one was started.
func (p *natsPublisher) Close() error {
	err := p.Publisher.Close()

	if p.embedded != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if sErr := p.embedded.Shutdown(ctx); sErr != nil && err == nil {
			err = sErr
		}
	}
	return err
}
