// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

func TestTrendingDecayOrdering(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	halfLife := 7 * 24 * time.Hour
	provider := &mockProvider{
		items: []recommend.ItemEmbedding{
			{ItemID: "hot", Category: "tops"},
			{ItemID: "fresh", Category: "shoes"},
			{ItemID: "stale", Category: "bags"},
		},
		events: []recommend.Interaction{
			{UserID: "a", ItemID: "hot", Signal: 1, At: now},
			{UserID: "b", ItemID: "hot", Signal: 1, At: now},
			{UserID: "c", ItemID: "fresh", Signal: 1, At: now},
			{UserID: "d", ItemID: "stale", Signal: 1, At: now.Add(-2 * halfLife)},
		},
	}

	gen := NewTrending(TrendingConfig{HalfLife: halfLife}, provider)
	gen.now = func() time.Time { return now }

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 3 {
		t.Fatalf("got %d candidates, want 3", len(cands))
	}

	// Raw scores 2, 1, 0.25 land at 1, ~0.43, 0 after min-max normalization.
	order := []string{cands[0].ItemID, cands[1].ItemID, cands[2].ItemID}
	want := []string{"hot", "fresh", "stale"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if !almostEqual(cands[0].Score, 1.0) || !almostEqual(cands[2].Score, 0) {
		t.Errorf("scores = %v/%v, want 1/0 at the extremes", cands[0].Score, cands[2].Score)
	}
}

func TestTrendingExcludesSeenItems(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	provider := &mockProvider{
		signals: map[string]map[string]float64{
			"u1": {"hot": 0.9},
		},
		events: []recommend.Interaction{
			{UserID: "a", ItemID: "hot", Signal: 1, At: now},
			{UserID: "b", ItemID: "fresh", Signal: 1, At: now},
		},
	}

	gen := NewTrending(DefaultTrendingConfig(), provider)

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 1 || cands[0].ItemID != "fresh" {
		t.Errorf("candidates = %v, want only fresh", cands)
	}
}

func TestTrendingEmptyEventLog(t *testing.T) {
	t.Parallel()

	gen := NewTrending(DefaultTrendingConfig(), &mockProvider{})

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("got %d candidates, want none without events", len(cands))
	}
}

func TestTrendingZeroSignalCountsAsOne(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	provider := &mockProvider{
		events: []recommend.Interaction{
			{UserID: "a", ItemID: "clicked", Signal: 0, At: now},
			{UserID: "b", ItemID: "skimmed", Signal: 0.5, At: now},
		},
	}

	gen := NewTrending(DefaultTrendingConfig(), provider)
	gen.now = func() time.Time { return now }

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 2 || cands[0].ItemID != "clicked" {
		t.Errorf("candidates = %v, want clicked ranked first", cands)
	}
}

func TestTrendingFutureEventsClampToNow(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	provider := &mockProvider{
		events: []recommend.Interaction{
			{UserID: "a", ItemID: "early", Signal: 1, At: now.Add(time.Hour)},
			{UserID: "b", ItemID: "current", Signal: 1, At: now},
		},
	}

	gen := NewTrending(DefaultTrendingConfig(), provider)
	gen.now = func() time.Time { return now }

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// Clamped ages make both raw scores equal, so both normalize to 0.5.
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	for _, c := range cands {
		if !almostEqual(c.Score, 0.5) {
			t.Errorf("%s score = %v, want 0.5", c.ItemID, c.Score)
		}
	}
}
