// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package kvstore provides the key-value abstraction used for state that must
// survive a single generation call, most importantly experiment assignment
// memoization. Production deployments back it with BadgerDB; tests and
// standalone mode use the in-memory implementation.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a minimal key-value contract with per-key TTL.
//
// A zero TTL means the entry never expires. Concurrent writes to the same key
// are last-write-wins; callers that require idempotency must write idempotent
// payloads.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL (0 = no expiry).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix and reports how
	// many entries were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
