// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package recommend

import (
	"math"
	"math/rand"
	"testing"
)

const scoreTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < scoreTolerance
}

func TestFuseCandidatesWeightedSumAndBoost(t *testing.T) {
	t.Parallel()

	bySource := map[Source][]Candidate{
		SourceVector: {
			{ItemID: "item-a", Source: SourceVector, Score: 0.9},
			{ItemID: "item-b", Source: SourceVector, Score: 0.8},
		},
		SourceCollaborative: {
			{ItemID: "item-a", Source: SourceCollaborative, Score: 0.7},
			{ItemID: "item-c", Source: SourceCollaborative, Score: 0.6},
		},
		SourceContent: {
			{ItemID: "item-b", Source: SourceContent, Score: 0.65},
		},
	}
	weights := map[Source]float64{
		SourceVector:        0.4,
		SourceCollaborative: 0.35,
		SourceContent:       0.25,
	}

	fused := fuseCandidates(bySource, weights)
	if len(fused) != 3 {
		t.Fatalf("fused %d items, want 3", len(fused))
	}

	// item-a: (0.9*0.4 + 0.7*0.35) * 1.1 = 0.6655
	// item-b: (0.8*0.4 + 0.65*0.25) * 1.1 = 0.53075
	// item-c: 0.6*0.35 = 0.21
	wantOrder := []string{"item-a", "item-b", "item-c"}
	wantScores := []float64{0.6655, 0.53075, 0.21}
	for i := range wantOrder {
		if fused[i].ItemID != wantOrder[i] {
			t.Errorf("position %d = %s, want %s", i, fused[i].ItemID, wantOrder[i])
		}
		if !almostEqual(fused[i].TotalScore, wantScores[i]) {
			t.Errorf("%s score = %v, want %v", fused[i].ItemID, fused[i].TotalScore, wantScores[i])
		}
	}

	// Confidence is the max raw score among contributing sources.
	if !almostEqual(fused[0].Confidence, 0.9) {
		t.Errorf("item-a confidence = %v, want 0.9", fused[0].Confidence)
	}
	if len(fused[0].Sources) != 2 {
		t.Errorf("item-a sources = %v, want two", fused[0].Sources)
	}
}

func TestFuseCandidatesBoostAppliedOnce(t *testing.T) {
	t.Parallel()

	bySource := map[Source][]Candidate{
		SourceVector:        {{ItemID: "x", Score: 0.5}},
		SourceCollaborative: {{ItemID: "x", Score: 0.5}},
		SourceContent:       {{ItemID: "x", Score: 0.5}},
	}
	weights := map[Source]float64{
		SourceVector:        0.4,
		SourceCollaborative: 0.35,
		SourceContent:       0.25,
	}

	fused := fuseCandidates(bySource, weights)
	if len(fused) != 1 {
		t.Fatalf("fused %d items, want 1", len(fused))
	}

	// Three sources: boost 1 + 0.1*2 = 1.2, applied to the full weighted sum.
	want := 0.5 * 1.2
	if !almostEqual(fused[0].TotalScore, want) {
		t.Errorf("score = %v, want %v", fused[0].TotalScore, want)
	}
}

func TestFuseCandidatesDedupWithinSource(t *testing.T) {
	t.Parallel()

	bySource := map[Source][]Candidate{
		SourceVector: {
			{ItemID: "x", Score: 0.9},
			{ItemID: "x", Score: 0.4},
		},
	}
	weights := map[Source]float64{SourceVector: 1}

	fused := fuseCandidates(bySource, weights)
	if len(fused) != 1 {
		t.Fatalf("fused %d items, want 1", len(fused))
	}
	if !almostEqual(fused[0].TotalScore, 0.9) {
		t.Errorf("score = %v, want first occurrence 0.9", fused[0].TotalScore)
	}
}

func TestFuseCandidatesTieBreaksByItemID(t *testing.T) {
	t.Parallel()

	bySource := map[Source][]Candidate{
		SourceVector: {
			{ItemID: "zebra", Score: 0.5},
			{ItemID: "apple", Score: 0.5},
		},
	}
	fused := fuseCandidates(bySource, map[Source]float64{SourceVector: 1})

	if fused[0].ItemID != "apple" || fused[1].ItemID != "zebra" {
		t.Errorf("tie order = [%s %s], want [apple zebra]", fused[0].ItemID, fused[1].ItemID)
	}
}

func TestRedistributeWeights(t *testing.T) {
	t.Parallel()

	base := map[Source]float64{
		SourceVector:        0.4,
		SourceCollaborative: 0.35,
		SourceContent:       0.25,
	}

	t.Run("all active unchanged", func(t *testing.T) {
		t.Parallel()

		out := redistributeWeights(base, []Source{SourceVector, SourceCollaborative, SourceContent})
		for src, want := range base {
			if !almostEqual(out[src], want) {
				t.Errorf("%s = %v, want %v", src, out[src], want)
			}
		}
	})

	t.Run("dropped source redistributes proportionally", func(t *testing.T) {
		t.Parallel()

		out := redistributeWeights(base, []Source{SourceVector, SourceContent})
		if !almostEqual(out[SourceVector], 0.4/0.65) {
			t.Errorf("vector = %v, want %v", out[SourceVector], 0.4/0.65)
		}
		if !almostEqual(out[SourceContent], 0.25/0.65) {
			t.Errorf("content = %v, want %v", out[SourceContent], 0.25/0.65)
		}
		if _, ok := out[SourceCollaborative]; ok {
			t.Error("collaborative should carry no weight")
		}
	})

	t.Run("no active sources", func(t *testing.T) {
		t.Parallel()

		out := redistributeWeights(base, nil)
		if len(out) != 0 {
			t.Errorf("weights = %v, want empty", out)
		}
	})

	t.Run("zero total splits equally", func(t *testing.T) {
		t.Parallel()

		out := redistributeWeights(map[Source]float64{}, []Source{SourceVector, SourceContent})
		if !almostEqual(out[SourceVector], 0.5) || !almostEqual(out[SourceContent], 0.5) {
			t.Errorf("weights = %v, want equal halves", out)
		}
	})
}

func TestApplyDiversity(t *testing.T) {
	t.Parallel()

	mkRec := func(id, category string, score float64) Recommendation {
		return Recommendation{
			ItemID:     id,
			TotalScore: score,
			Metadata:   ItemMetadata{Category: category},
		}
	}

	t.Run("factor zero is no-op", func(t *testing.T) {
		t.Parallel()

		recs := []Recommendation{
			mkRec("a", "tops", 0.9),
			mkRec("b", "tops", 0.8),
			mkRec("c", "tops", 0.7),
		}
		out := applyDiversity(recs, 3, 0)
		if len(out) != 3 {
			t.Fatalf("got %d results, want 3", len(out))
		}
	})

	t.Run("max factor caps one per category then backfills", func(t *testing.T) {
		t.Parallel()

		recs := []Recommendation{
			mkRec("a", "tops", 0.9),
			mkRec("b", "tops", 0.8),
			mkRec("c", "tops", 0.7),
			mkRec("d", "tops", 0.6),
			mkRec("e", "tops", 0.5),
		}
		out := applyDiversity(recs, 5, 1.0)
		if len(out) != 5 {
			t.Fatalf("got %d results, want 5 after backfill", len(out))
		}
		if out[0].ItemID != "a" {
			t.Errorf("first pick = %s, want top-scored a", out[0].ItemID)
		}
	})

	t.Run("mixed categories interleave", func(t *testing.T) {
		t.Parallel()

		recs := []Recommendation{
			mkRec("a", "tops", 0.9),
			mkRec("b", "tops", 0.85),
			mkRec("c", "tops", 0.8),
			mkRec("d", "shoes", 0.4),
		}
		// maxResults 3, factor 0.5: cap = ceil(1.5) = 2 per category.
		out := applyDiversity(recs, 3, 0.5)
		if len(out) != 3 {
			t.Fatalf("got %d results, want 3", len(out))
		}
		ids := []string{out[0].ItemID, out[1].ItemID, out[2].ItemID}
		want := []string{"a", "b", "d"}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("order = %v, want %v", ids, want)
				break
			}
		}
	})
}

func TestInjectSerendipity(t *testing.T) {
	t.Parallel()

	mkRecs := func(n int) []Recommendation {
		recs := make([]Recommendation, 0, n)
		for i := 0; i < n; i++ {
			recs = append(recs, Recommendation{
				ItemID:     string(rune('a' + i)),
				TotalScore: 1.0 - float64(i)*0.05,
				Sources:    []Source{SourceVector},
			})
		}
		return recs
	}

	pool := []ItemEmbedding{
		{ItemID: "p1", Category: "hats"},
		{ItemID: "p2", Category: "hats"},
		{ItemID: "p3", Category: "bags"},
		{ItemID: "p4", Category: "bags"},
	}
	cfg := SerendipityConfig{Rate: 0.15, MinScore: 0.70, MaxScore: 0.85}

	t.Run("replaces floor of n times rate", func(t *testing.T) {
		t.Parallel()

		recs := mkRecs(10)
		out := injectSerendipity(recs, pool, map[string]struct{}{}, cfg, rand.New(rand.NewSource(7)))
		if len(out) != 10 {
			t.Fatalf("got %d results, want 10", len(out))
		}

		injected := 0
		for _, rec := range out {
			if rec.Sources[0] == SourceSerendipity {
				injected++
				if rec.TotalScore < cfg.MinScore || rec.TotalScore > cfg.MaxScore {
					t.Errorf("injected score %v outside [%v,%v]", rec.TotalScore, cfg.MinScore, cfg.MaxScore)
				}
			}
		}
		if injected != 1 {
			t.Errorf("injected %d picks, want floor(10*0.15)=1", injected)
		}
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		t.Parallel()

		a := injectSerendipity(mkRecs(10), pool, map[string]struct{}{}, cfg, rand.New(rand.NewSource(42)))
		b := injectSerendipity(mkRecs(10), pool, map[string]struct{}{}, cfg, rand.New(rand.NewSource(42)))
		for i := range a {
			if a[i].ItemID != b[i].ItemID || !almostEqual(a[i].TotalScore, b[i].TotalScore) {
				t.Fatalf("run mismatch at %d: %v vs %v", i, a[i], b[i])
			}
		}
	})

	t.Run("seen items never picked", func(t *testing.T) {
		t.Parallel()

		seen := map[string]struct{}{"p1": {}, "p2": {}, "p3": {}}
		out := injectSerendipity(mkRecs(10), pool, seen, cfg, rand.New(rand.NewSource(1)))
		for _, rec := range out {
			if len(rec.Sources) > 0 && rec.Sources[0] == SourceSerendipity && rec.ItemID != "p4" {
				t.Errorf("picked seen item %s", rec.ItemID)
			}
		}
	})

	t.Run("no eligible pool is a no-op", func(t *testing.T) {
		t.Parallel()

		seen := map[string]struct{}{"p1": {}, "p2": {}, "p3": {}, "p4": {}}
		recs := mkRecs(10)
		out := injectSerendipity(recs, pool, seen, cfg, rand.New(rand.NewSource(1)))
		if len(out) != 10 {
			t.Fatalf("got %d results, want 10", len(out))
		}
		for _, rec := range out {
			if rec.Sources[0] == SourceSerendipity {
				t.Error("unexpected injection with empty eligible pool")
			}
		}
	})

	t.Run("small lists skip injection", func(t *testing.T) {
		t.Parallel()

		out := injectSerendipity(mkRecs(3), pool, map[string]struct{}{}, cfg, rand.New(rand.NewSource(1)))
		for _, rec := range out {
			if rec.Sources[0] == SourceSerendipity {
				t.Error("floor(3*0.15)=0 must inject nothing")
			}
		}
	})
}
