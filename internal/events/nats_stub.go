// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

//go:build !nats

package events

import (
	"fmt"

	"github.com/rs/zerolog"
)

// NewNATSSink returns an error when NATS support is not compiled in.
// Build with -tags=nats to enable the NATS-backed metric sink.
func NewNATSSink(_ Config, _ zerolog.Logger) (*Publisher, error) {
	return nil, fmt.Errorf("nats sink not available: build with -tags=nats")
}
