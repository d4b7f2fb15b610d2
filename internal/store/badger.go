// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package store

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

// interactionPrefix namespaces event keys. Keys embed the event timestamp in
// fixed-width nanoseconds so replay iterates in chronological order.
const interactionPrefix = "interaction:"

// EventLog is a durable append-only log of interaction events backed by
// Badger. At startup the log is replayed into the in-memory store so
// snapshots survive restarts.
type EventLog struct {
	db     *badger.DB
	logger zerolog.Logger
}

// OpenEventLog opens (or creates) the event log at path.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenEventLog(path string, logger zerolog.Logger) (*EventLog, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &EventLog{db: db, logger: logger}, nil
}

// Append persists one interaction event.
func (l *EventLog) Append(ev recommend.Interaction) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	key := fmt.Sprintf("%s%020d:%s", interactionPrefix, ev.At.UnixNano(), uuid.NewString())

	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Replay calls fn for every stored event in chronological order. Undecodable
// records are logged and skipped rather than aborting the replay.
func (l *EventLog) Replay(fn func(recommend.Interaction) error) error {
	return l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(interactionPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var ev recommend.Interaction
				if uerr := json.Unmarshal(val, &ev); uerr != nil {
					l.logger.Warn().
						Err(uerr).
						Str("key", string(item.Key())).
						Msg("skipping undecodable event")
					return nil
				}
				return fn(ev)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Close flushes and closes the underlying database.
func (l *EventLog) Close() error {
	return l.db.Close()
}
