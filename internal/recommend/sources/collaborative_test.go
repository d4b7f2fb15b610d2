// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package sources

import (
	"context"
	"testing"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

func collaborativeProvider() *mockProvider {
	return &mockProvider{
		items: []recommend.ItemEmbedding{
			{ItemID: "item-a", Category: "tops"},
			{ItemID: "item-b", Category: "shoes"},
			{ItemID: "item-c", Category: "bags"},
		},
		signals: map[string]map[string]float64{
			"u1": {"item-a": 1},
			"u2": {"item-a": 1, "item-b": 1},
			"u3": {"item-a": 1, "item-c": 0.5},
		},
	}
}

func TestCollaborativeNeighborWeightedScores(t *testing.T) {
	t.Parallel()

	gen := NewCollaborative(DefaultCollaborativeConfig(), collaborativeProvider())

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}

	// item-b carries a full-strength signal from its neighbor, item-c only
	// half. After min-max normalization they land at 1 and 0.
	if cands[0].ItemID != "item-b" || !almostEqual(cands[0].Score, 1.0) {
		t.Errorf("top = %s/%v, want item-b/1", cands[0].ItemID, cands[0].Score)
	}
	if cands[1].ItemID != "item-c" || !almostEqual(cands[1].Score, 0) {
		t.Errorf("second = %s/%v, want item-c/0", cands[1].ItemID, cands[1].Score)
	}
	if cands[0].Metadata.Category != "shoes" {
		t.Errorf("category = %s, want shoes", cands[0].Metadata.Category)
	}
}

func TestCollaborativeExcludesSeenItems(t *testing.T) {
	t.Parallel()

	gen := NewCollaborative(DefaultCollaborativeConfig(), collaborativeProvider())

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, c := range cands {
		if c.ItemID == "item-a" {
			t.Error("item-a is already in the user's history")
		}
	}
}

func TestCollaborativeColdStart(t *testing.T) {
	t.Parallel()

	gen := NewCollaborative(DefaultCollaborativeConfig(), collaborativeProvider())

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "stranger"})
	if err != nil {
		t.Fatalf("cold start must not error, got %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("got %d candidates, want none for cold start", len(cands))
	}
}

func TestCollaborativeMinSimilarityFilter(t *testing.T) {
	t.Parallel()

	cfg := DefaultCollaborativeConfig()
	cfg.MinSimilarity = 0.95
	gen := NewCollaborative(cfg, collaborativeProvider())

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("got %d candidates, want none when no neighbor clears 0.95", len(cands))
	}
}

func TestCollaborativeMinCommonItemsFilter(t *testing.T) {
	t.Parallel()

	cfg := DefaultCollaborativeConfig()
	cfg.MinCommonItems = 2
	gen := NewCollaborative(cfg, collaborativeProvider())

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("got %d candidates, want none when no user shares two items", len(cands))
	}
}
