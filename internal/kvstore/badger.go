// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store on BadgerDB for durable state across restarts.
// TTLs map onto Badger's native entry expiry.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// NewBadgerStore wraps an already-opened Badger database. Close will not
// close the underlying database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens (or creates) a Badger database at path and returns a store
// that owns it. Badger's own logger is silenced; operational visibility comes
// from the store's callers.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// Get returns the value for key, or ErrNotFound. Badger handles TTL expiry
// internally, so expired entries surface as missing keys.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		return item.Value(func(val []byte) error {
			value = make([]byte, len(val))
			copy(value, val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Set stores value under key, with Badger-native TTL when ttl > 0.
func (s *BadgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes key. Missing keys are not an error.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// DeletePrefix removes every key with the given prefix.
func (s *BadgerStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan prefix %s: %w", prefix, err)
	}

	// One transaction per key keeps large prefixes under Badger's
	// transaction size limit; partial failure leaves a partial delete,
	// which callers treat as retryable.
	count := 0
	for _, key := range keys {
		err := s.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			return nil
		})
		if err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// Close closes the underlying database if this store opened it.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
