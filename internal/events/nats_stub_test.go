// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

//go:build !nats

package events

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNATSSinkStub(t *testing.T) {
	pub, err := NewNATSSink(DefaultConfig(), zerolog.Nop())
	if err == nil {
		t.Fatal("NewNATSSink() should fail without the nats build tag")
	}
	if pub != nil {
		t.Error("NewNATSSink() stub should return a nil publisher")
	}
	if !strings.Contains(err.Error(), "-tags=nats") {
		t.Errorf("error %q should mention the build tag", err)
	}
}
