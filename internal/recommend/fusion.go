// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package recommend

import (
	"math"
	"math/rand"
	"sort"
)

// agreementBoostStep is the per-extra-source multiplier increment: an item
// backed by n sources scores weighted_sum * (1 + 0.1*(n-1)).
const agreementBoostStep = 0.1

// redistributeWeights renormalizes base weights over the sources that
// actually contributed. A failed or empty source contributes no weight; its
// share is spread proportionally across the rest.
func redistributeWeights(base map[Source]float64, active []Source) map[Source]float64 {
	out := make(map[Source]float64, len(active))
	if len(active) == 0 {
		return out
	}

	total := 0.0
	for _, s := range active {
		total += base[s]
	}
	if total <= 0 {
		eq := 1.0 / float64(len(active))
		for _, s := range active {
			out[s] = eq
		}
		return out
	}
	for _, s := range active {
		out[s] = base[s] / total
	}
	return out
}

// fuseCandidates merges per-source candidate lists into ranked
// recommendations. Sources are walked in canonical order so the result does
// not depend on goroutine completion order; the agreement boost is applied
// exactly once per item, from its final source count.
func fuseCandidates(bySource map[Source][]Candidate, weights map[Source]float64) []Recommendation {
	merged := make(map[string]*Recommendation)
	weighted := make(map[string]float64)
	order := make([]string, 0, len(bySource)*8)

	for _, src := range CanonicalSources() {
		w := weights[src]
		for _, c := range bySource[src] {
			rec, ok := merged[c.ItemID]
			if !ok {
				rec = &Recommendation{
					ItemID:       c.ItemID,
					SourceScores: make(map[Source]float64, 3),
					Metadata:     c.Metadata,
				}
				merged[c.ItemID] = rec
				order = append(order, c.ItemID)
			}
			if _, dup := rec.SourceScores[src]; dup {
				// a source contributes at most once per item
				continue
			}

			rec.Sources = append(rec.Sources, src)
			rec.SourceScores[src] = c.Score
			if c.Reason != "" {
				rec.Reasons = append(rec.Reasons, c.Reason)
			}
			if c.Score > rec.Confidence {
				rec.Confidence = c.Score
			}
			if rec.Metadata.Category == "" {
				rec.Metadata = c.Metadata
			}
			weighted[c.ItemID] += w * c.Score
		}
	}

	out := make([]Recommendation, 0, len(merged))
	for _, id := range order {
		rec := merged[id]
		if rec.Metadata.Category == "" {
			rec.Metadata.Category = "unknown"
		}
		boost := 1 + agreementBoostStep*float64(len(rec.Sources)-1)
		rec.TotalScore = weighted[id] * boost
		out = append(out, *rec)
	}

	sortByScore(out)
	return out
}

// sortByScore orders recommendations by total score descending, item ID
// ascending on ties.
func sortByScore(recs []Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].TotalScore != recs[j].TotalScore {
			return recs[i].TotalScore > recs[j].TotalScore
		}
		return recs[i].ItemID < recs[j].ItemID
	})
}

// applyDiversity enforces a per-category cap of
// ceil(maxResults * (1 - factor)), clamped to at least 1. One greedy pass in
// score order selects within the cap; cap-excluded items backfill afterwards
// so the output still reaches maxResults when enough candidates exist.
// A factor of 0 is a no-op.
func applyDiversity(recs []Recommendation, maxResults int, factor float64) []Recommendation {
	if factor <= 0 || len(recs) == 0 {
		return recs
	}

	perCategory := int(math.Ceil(float64(maxResults) * (1 - factor)))
	if perCategory < 1 {
		perCategory = 1
	}

	selected := make([]Recommendation, 0, maxResults)
	var excluded []Recommendation
	counts := make(map[string]int)

	for _, rec := range recs {
		if len(selected) == maxResults {
			break
		}
		if counts[rec.Metadata.Category] < perCategory {
			counts[rec.Metadata.Category]++
			selected = append(selected, rec)
		} else {
			excluded = append(excluded, rec)
		}
	}
	for _, rec := range excluded {
		if len(selected) == maxResults {
			break
		}
		selected = append(selected, rec)
	}

	return selected
}

// injectSerendipity replaces the floor(n*rate) lowest-scoring entries with
// catalog items absent from every source's candidate list. Selection and
// scores come from the provided seeded random source only; everything else is
// deterministic. pool must be sorted by item ID ascending.
func injectSerendipity(recs []Recommendation, pool []ItemEmbedding, seen map[string]struct{},
	cfg SerendipityConfig, rng *rand.Rand) []Recommendation {
	if len(recs) == 0 || rng == nil {
		return recs
	}

	k := int(math.Floor(float64(len(recs)) * cfg.Rate))
	if k <= 0 {
		return recs
	}

	eligible := make([]ItemEmbedding, 0, len(pool))
	for _, item := range pool {
		if _, ok := seen[item.ItemID]; !ok {
			eligible = append(eligible, item)
		}
	}
	if len(eligible) == 0 {
		return recs
	}
	if k > len(eligible) {
		k = len(eligible)
	}

	picks := make([]Recommendation, 0, k)
	for i := 0; i < k; i++ {
		idx := rng.Intn(len(eligible))
		item := eligible[idx]
		eligible = append(eligible[:idx], eligible[idx+1:]...)

		score := cfg.MinScore + rng.Float64()*(cfg.MaxScore-cfg.MinScore)
		picks = append(picks, Recommendation{
			ItemID:       item.ItemID,
			TotalScore:   score,
			Sources:      []Source{SourceSerendipity},
			SourceScores: map[Source]float64{SourceSerendipity: score},
			Reasons:      []string{"discovery pick from outside your usual candidates"},
			Confidence:   score,
			Metadata:     item.Metadata(),
		})
	}

	kept := recs[: len(recs)-k : len(recs)-k]
	out := append(kept, picks...)
	sortByScore(out)
	return out
}
