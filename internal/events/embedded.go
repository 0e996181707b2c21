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

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer wraps an in-process NATS server with lifecycle management.
// It provides a self-contained JetStream instance for single-instance
// deployments without external infrastructure.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// StartEmbeddedServer creates and starts an embedded NATS server configured
// for JetStream with the given limits. Returns an error if the server is not
// ready within 30 seconds.
func StartEmbeddedServer(cfg EmbeddedConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName:         "feedloom-events",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		// Keep the TCP listener so external consumers can subscribe to
		// the metric stream alongside the in-process publisher.
		DontListen: false,
		Debug:      false,
		Trace:      false,
		NoLog:      false,
		MaxPayload: 1 << 20,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	ns.ConfigureLogger()

	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("nats server not ready within timeout")
	}

	return &EmbeddedServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server, waiting for completion or context cancellation.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning reports server health.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled reports whether JetStream is active.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}
