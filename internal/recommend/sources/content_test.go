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

func contentProvider() *mockProvider {
	return &mockProvider{
		items: []recommend.ItemEmbedding{
			{ItemID: "liked-top", Category: "tops", Attributes: map[string]string{"color": "red"}},
			{ItemID: "new-top", Category: "tops", Attributes: map[string]string{"color": "red"}},
			{ItemID: "half-match", Category: "tops", Attributes: map[string]string{"color": "blue"}},
			{ItemID: "new-shoe", Category: "shoes", Attributes: map[string]string{"color": "green"}},
		},
		signals: map[string]map[string]float64{
			"u1": {"liked-top": 1.0},
		},
	}
}

func TestContentBasedOverlapScores(t *testing.T) {
	t.Parallel()

	gen := NewContentBased(DefaultContentConfig(), contentProvider())

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}

	// new-top shares category and color: full score. half-match shares only
	// the category: half. new-shoe shares nothing and is dropped.
	if cands[0].ItemID != "new-top" || !almostEqual(cands[0].Score, 1.0) {
		t.Errorf("top = %s/%v, want new-top/1", cands[0].ItemID, cands[0].Score)
	}
	if cands[1].ItemID != "half-match" || !almostEqual(cands[1].Score, 0.5) {
		t.Errorf("second = %s/%v, want half-match/0.5", cands[1].ItemID, cands[1].Score)
	}
	for _, c := range cands {
		if c.ItemID == "liked-top" {
			t.Error("liked-top is already in the user's history")
		}
	}
}

func TestContentBasedNoLikedItems(t *testing.T) {
	t.Parallel()

	provider := contentProvider()
	provider.signals["u1"]["liked-top"] = 0.2 // below the like threshold

	gen := NewContentBased(DefaultContentConfig(), provider)

	cands, err := gen.Generate(context.Background(), recommend.Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("got %d candidates, want none without a taste profile", len(cands))
	}
}

func TestContentBasedContextFilter(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		items: []recommend.ItemEmbedding{
			{ItemID: "liked-top", Category: "tops", Attributes: map[string]string{"color": "red"}},
			{ItemID: "office-top", Category: "tops", Attributes: map[string]string{
				"color": "red", "contexts": "work, formal",
			}},
			{ItemID: "anywhere-top", Category: "tops", Attributes: map[string]string{"color": "red"}},
		},
		signals: map[string]map[string]float64{
			"u1": {"liked-top": 1.0},
		},
	}
	gen := NewContentBased(DefaultContentConfig(), provider)

	tests := []struct {
		name       string
		reqContext string
		wantIDs    map[string]bool
	}{
		{"no context matches everything", "", map[string]bool{"office-top": true, "anywhere-top": true}},
		{"declared context matches case-insensitively", "Work", map[string]bool{"office-top": true, "anywhere-top": true}},
		{"mismatched context drops declared items", "party", map[string]bool{"anywhere-top": true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cands, err := gen.Generate(context.Background(), recommend.Request{
				UserID:  "u1",
				Context: tt.reqContext,
			})
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if len(cands) != len(tt.wantIDs) {
				t.Fatalf("got %d candidates, want %d", len(cands), len(tt.wantIDs))
			}
			for _, c := range cands {
				if !tt.wantIDs[c.ItemID] {
					t.Errorf("unexpected candidate %s", c.ItemID)
				}
			}
		})
	}
}
