// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

//go:build nats && integration

package events

import (
	"context"
	"testing"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

func testEmbeddedConfig(t *testing.T) EmbeddedConfig {
	t.Helper()
	return EmbeddedConfig{
		Enabled:   true,
		Host:      "127.0.0.1",
		Port:      -1, // random port
		StoreDir:  t.TempDir(),
		MaxMemory: 64 << 20,
		MaxStore:  256 << 20,
	}
}

func TestEmbeddedServerLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	srv, err := StartEmbeddedServer(testEmbeddedConfig(t))
	if err != nil {
		t.Fatalf("StartEmbeddedServer() error = %v", err)
	}

	if !srv.IsRunning() {
		t.Error("IsRunning() = false after start")
	}
	if !srv.JetStreamEnabled() {
		t.Error("JetStreamEnabled() = false")
	}
	if srv.ClientURL() == "" {
		t.Error("ClientURL() is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

// TestNATSSinkRoundTrip publishes through the JetStream sink and consumes
// from the provisioned stream, covering stream provisioning, publish
// deduplication, and payload fidelity against a real server.
func TestNATSSinkRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	srv, err := StartEmbeddedServer(testEmbeddedConfig(t))
	if err != nil {
		t.Fatalf("StartEmbeddedServer() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	cfg := DefaultConfig()
	cfg.Transport = "nats"
	cfg.NATS.URL = srv.ClientURL()

	// Sink construction provisions the metric stream.
	sink, err := NewNATSSink(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewNATSSink() error = %v", err)
	}
	defer sink.Close()

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:         srv.ClientURL(),
		NatsOptions: []natsgo.Option{natsgo.RetryOnFailedConnect(true)},
		Unmarshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(StreamExperimentMetrics),
				natsgo.DeliverAll(),
			},
		},
	}, NewWatermillLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("NewSubscriber() error = %v", err)
	}
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	messages, err := sub.Subscribe(ctx, TopicExperimentMetrics)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// Publishing the same metric twice exercises Nats-Msg-Id dedup: the
	// second publish lands inside the duplicate window and is dropped.
	first := testMetric()
	if err := sink.PublishMetric(ctx, first); err != nil {
		t.Fatalf("PublishMetric() error = %v", err)
	}
	if err := sink.PublishMetric(ctx, first); err != nil {
		t.Fatalf("duplicate PublishMetric() error = %v", err)
	}

	second := NewExperimentMetric("u-99", "exp-ranking-v2", "control")
	second.AlgorithmID = "personalized_v2"
	if err := sink.PublishMetric(ctx, second); err != nil {
		t.Fatalf("PublishMetric() second metric error = %v", err)
	}

	// The duplicate must not be delivered, so the stream holds exactly two
	// events and the second delivery is the second metric.
	wantIDs := []string{first.EventID, second.EventID}
	for i, want := range wantIDs {
		select {
		case msg := <-messages:
			got, err := DeserializeMetric(msg.Payload)
			if err != nil {
				t.Fatalf("DeserializeMetric() error = %v", err)
			}
			if got.EventID != want {
				t.Errorf("delivery %d EventID = %s, want %s", i, got.EventID, want)
			}
			msg.Ack()
		case <-ctx.Done():
			t.Fatalf("timed out waiting for delivery %d", i)
		}
	}
}

func TestNATSSinkEmbedded(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := DefaultConfig()
	cfg.Transport = "nats"
	cfg.NATS.Embedded = testEmbeddedConfig(t)

	sink, err := NewNATSSink(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewNATSSink() with embedded server error = %v", err)
	}

	if err := sink.PublishMetric(context.Background(), testMetric()); err != nil {
		t.Errorf("PublishMetric() error = %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := sink.PublishMetric(context.Background(), testMetric()); err == nil {
		t.Error("PublishMetric() after Close() should fail")
	}
}
