// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

// Package sources implements the candidate generators behind the engine:
// vector similarity search, user-based collaborative filtering, content-based
// attribute matching, and time-decayed trending. Each generator reads only
// from the immutable snapshot exposed by recommend.DataProvider and returns
// raw scores in [0,1].
package sources

import (
	"math"
	"sort"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

// cosineSimilarity computes the cosine of the angle between two equal-length
// dense vectors. Returns 0 when either vector has zero norm.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sparseCosine computes cosine similarity between two sparse signal maps.
func sparseCosine(a, b map[string]float64) float64 {
	var dot float64
	for key, av := range a {
		if bv, ok := b[key]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// commonKeys counts keys present in both maps.
func commonKeys(a, b map[string]float64) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for key := range a {
		if _, ok := b[key]; ok {
			n++
		}
	}
	return n
}

// normalizeScores min-max normalizes scores to [0,1]. When every score is
// equal, all map to 0.5 so downstream weighting still has signal.
func normalizeScores(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}

	minScore := math.Inf(1)
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	normalized := make(map[string]float64, len(scores))
	spread := maxScore - minScore
	if spread == 0 {
		for id := range scores {
			normalized[id] = 0.5
		}
		return normalized
	}
	for id, s := range scores {
		normalized[id] = (s - minScore) / spread
	}
	return normalized
}

// topCandidates sorts candidates by score descending, item ID ascending on
// ties, and trims to limit. A limit of 0 keeps everything.
func topCandidates(candidates []recommend.Candidate, limit int) []recommend.Candidate {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ItemID < candidates[j].ItemID
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// clamp01 bounds a score to [0,1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
