// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

// Package store owns the catalog and interaction state behind the
// recommendation engine: an immutable snapshot published via atomic pointer
// swap, a durable Badger event log, a watermill ingest consumer, and the
// circuit-broken profile service client.
package store

import (
	"sort"
	"time"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

// Snapshot is an immutable view of the catalog and interaction matrix.
// In-flight requests keep reading the snapshot they started with; refreshes
// publish a new one and never mutate an existing snapshot.
type Snapshot struct {
	version uint64
	builtAt time.Time

	items []recommend.ItemEmbedding // sorted by item ID ascending
	index map[string]int

	// signals is user -> item -> strongest signal.
	signals map[string]map[string]float64

	events []recommend.Interaction
}

// newSnapshot builds a snapshot from the raw catalog and event log. Items are
// sorted by ID so every consumer observes one canonical order.
func newSnapshot(version uint64, items []recommend.ItemEmbedding, events []recommend.Interaction) *Snapshot {
	sorted := make([]recommend.ItemEmbedding, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemID < sorted[j].ItemID })

	index := make(map[string]int, len(sorted))
	for i := range sorted {
		index[sorted[i].ItemID] = i
	}

	signals := make(map[string]map[string]float64)
	for i := range events {
		ev := &events[i]
		userSignals, ok := signals[ev.UserID]
		if !ok {
			userSignals = make(map[string]float64)
			signals[ev.UserID] = userSignals
		}
		if ev.Signal > userSignals[ev.ItemID] {
			userSignals[ev.ItemID] = ev.Signal
		}
	}

	return &Snapshot{
		version: version,
		builtAt: time.Now().UTC(),
		items:   sorted,
		index:   index,
		signals: signals,
		events:  events,
	}
}

// Version returns the snapshot's monotonic version.
func (s *Snapshot) Version() uint64 { return s.version }

// BuiltAt returns when the snapshot was published.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// ItemCount returns the number of catalog items.
func (s *Snapshot) ItemCount() int { return len(s.items) }

// UserCount returns the number of users with interactions.
func (s *Snapshot) UserCount() int { return len(s.signals) }
