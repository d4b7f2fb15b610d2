// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/stylemesh/stylemesh/internal/metrics"
	"github.com/stylemesh/stylemesh/internal/recommend"
)

// Store accumulates catalog items and interaction events and publishes them
// as immutable snapshots. Writers hold a mutex over the builder state; the
// read path is a single atomic pointer load, so request handling never
// contends with ingestion.
type Store struct {
	logger zerolog.Logger

	mu     sync.Mutex
	items  map[string]recommend.ItemEmbedding
	events []recommend.Interaction

	version atomic.Uint64
	current atomic.Pointer[Snapshot]
}

// New creates an empty store. No snapshot is published until the first
// Publish call; until then the engine reports service-unavailable.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(logger zerolog.Logger) *Store {
	return &Store{
		logger: logger,
		items:  make(map[string]recommend.ItemEmbedding),
	}
}

// UpsertItems adds or replaces catalog items in the builder state. Changes
// become visible on the next Publish.
func (s *Store) UpsertItems(items ...recommend.ItemEmbedding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if item.ItemID == "" {
			continue
		}
		s.items[item.ItemID] = item
	}
}

// AppendInteractions records interaction events in the builder state.
func (s *Store) AppendInteractions(events ...recommend.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// Publish builds a snapshot from the builder state and swaps it in
// atomically. In-flight readers keep their old snapshot.
func (s *Store) Publish() *Snapshot {
	s.mu.Lock()
	items := make([]recommend.ItemEmbedding, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	events := make([]recommend.Interaction, len(s.events))
	copy(events, s.events)
	s.mu.Unlock()

	snap := newSnapshot(s.version.Add(1), items, events)
	s.current.Store(snap)

	metrics.SnapshotVersion.Set(float64(snap.Version()))
	metrics.SnapshotItems.Set(float64(snap.ItemCount()))
	metrics.SnapshotUsers.Set(float64(snap.UserCount()))

	s.logger.Info().
		Uint64("version", snap.Version()).
		Int("items", snap.ItemCount()).
		Int("users", snap.UserCount()).
		Msg("snapshot published")
	return snap
}

// Current returns the published snapshot, or nil before the first Publish.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// LoadCatalogFile reads a JSON array of catalog items, upserts them, and
// publishes a fresh snapshot.
func (s *Store) LoadCatalogFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var items []recommend.ItemEmbedding
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	s.UpsertItems(items...)
	s.Publish()
	s.logger.Info().Str("path", path).Int("items", len(items)).Msg("catalog loaded")
	return nil
}

// Ready reports whether a snapshot has been published.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Version returns the current snapshot version, 0 before the first Publish.
func (s *Store) Version() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.version
	}
	return 0
}

// Items returns the current snapshot's catalog, sorted by item ID. The slice
// is shared and must be treated as read-only.
func (s *Store) Items(_ context.Context) ([]recommend.ItemEmbedding, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, recommend.ErrNotReady
	}
	return snap.items, nil
}

// Item returns a single catalog item by ID.
func (s *Store) Item(_ context.Context, itemID string) (recommend.ItemEmbedding, bool) {
	snap := s.current.Load()
	if snap == nil {
		return recommend.ItemEmbedding{}, false
	}
	i, ok := snap.index[itemID]
	if !ok {
		return recommend.ItemEmbedding{}, false
	}
	return snap.items[i], true
}

// UserPreferenceVector derives the user's preference embedding as the
// signal-weighted centroid of the items they interacted with. The request
// context does not alter the vector; context filtering happens in the
// content-based source.
func (s *Store) UserPreferenceVector(_ context.Context, userID, _ string) ([]float64, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, recommend.ErrNotReady
	}

	userSignals := snap.signals[userID]
	if len(userSignals) == 0 {
		return nil, recommend.ErrNoPreference
	}

	var vec []float64
	total := 0.0
	for itemID, signal := range userSignals {
		if signal <= 0 {
			continue
		}
		i, ok := snap.index[itemID]
		if !ok {
			continue
		}
		item := &snap.items[i]
		if len(item.Vector) == 0 {
			continue
		}
		if vec == nil {
			vec = make([]float64, len(item.Vector))
		}
		if len(item.Vector) != len(vec) {
			continue
		}
		for d := range item.Vector {
			vec[d] += signal * item.Vector[d]
		}
		total += signal
	}
	if vec == nil || total == 0 {
		return nil, recommend.ErrNoPreference
	}

	for d := range vec {
		vec[d] /= total
	}
	return vec, nil
}

// UserSignals returns the user's item signals from the current snapshot. The
// map is shared and must be treated as read-only.
func (s *Store) UserSignals(_ context.Context, userID string) (map[string]float64, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, recommend.ErrNotReady
	}
	return snap.signals[userID], nil
}

// AllSignals returns the full interaction matrix. Read-only.
func (s *Store) AllSignals(_ context.Context) (map[string]map[string]float64, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, recommend.ErrNotReady
	}
	return snap.signals, nil
}

// Interactions returns all timestamped events. Read-only.
func (s *Store) Interactions(_ context.Context) ([]recommend.Interaction, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, recommend.ErrNotReady
	}
	return snap.events, nil
}

var _ recommend.DataProvider = (*Store)(nil)
