// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package kvstore

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. Entries expire lazily on read.
// Suitable for tests and standalone mode; state is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry's TTL has elapsed at now.
func (e memoryEntry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get returns a copy of the value for key, or ErrNotFound. Expired entries
// are evicted on the way out.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if entry.expired(time.Now()) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores a copy of value under key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: stored, createdAt: time.Now(), ttl: ttl}
	return nil
}

// Delete removes key if present.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// DeletePrefix removes all keys with the given prefix.
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the number of live entries, counting not-yet-evicted expired
// ones. Used by tests and the stats surface.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
