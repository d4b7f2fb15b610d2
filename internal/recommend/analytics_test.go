// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package recommend

import "testing"

func TestComputeConfidence(t *testing.T) {
	t.Parallel()

	t.Run("empty results", func(t *testing.T) {
		t.Parallel()

		if got := computeConfidence(nil); got != 0 {
			t.Errorf("confidence = %v, want 0", got)
		}
	})

	t.Run("averages top five", func(t *testing.T) {
		t.Parallel()

		recs := []Recommendation{
			{Confidence: 1.0, Sources: []Source{SourceVector}},
			{Confidence: 0.8, Sources: []Source{SourceVector}},
			{Confidence: 0.6, Sources: []Source{SourceVector}},
			{Confidence: 0.4, Sources: []Source{SourceVector}},
			{Confidence: 0.2, Sources: []Source{SourceVector}},
			{Confidence: 0.0, Sources: []Source{SourceVector}}, // beyond top five
		}
		if got := computeConfidence(recs); !almostEqual(got, 0.6) {
			t.Errorf("confidence = %v, want 0.6", got)
		}
	})

	t.Run("multi-source agreement bonus", func(t *testing.T) {
		t.Parallel()

		recs := []Recommendation{
			{Confidence: 0.5, Sources: []Source{SourceVector, SourceContent}},
			{Confidence: 0.5, Sources: []Source{SourceVector}},
		}
		// avg 0.5 + 0.1 * (1/2) = 0.55
		if got := computeConfidence(recs); !almostEqual(got, 0.55) {
			t.Errorf("confidence = %v, want 0.55", got)
		}
	})

	t.Run("capped at one", func(t *testing.T) {
		t.Parallel()

		recs := []Recommendation{
			{Confidence: 1.0, Sources: []Source{SourceVector, SourceContent}},
		}
		if got := computeConfidence(recs); got != 1.0 {
			t.Errorf("confidence = %v, want cap 1.0", got)
		}
	})
}

func TestComputeDiversity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		categories []string
		want       float64
	}{
		{"empty", nil, 0},
		{"all same", []string{"tops", "tops", "tops", "tops"}, 0.25},
		{"all unique", []string{"tops", "shoes", "bags", "hats"}, 1.0},
		{"mixed", []string{"tops", "tops", "shoes", "bags"}, 0.75},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recs := make([]Recommendation, 0, len(tt.categories))
			for _, c := range tt.categories {
				recs = append(recs, Recommendation{Metadata: ItemMetadata{Category: c}})
			}
			if got := computeDiversity(recs); !almostEqual(got, tt.want) {
				t.Errorf("diversity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeSerendipity(t *testing.T) {
	t.Parallel()

	recs := []Recommendation{
		{Sources: []Source{SourceVector}},
		{Sources: []Source{SourceSerendipity}},
		{Sources: []Source{SourceCollaborative}},
		{Sources: []Source{SourceSerendipity}},
	}
	if got := computeSerendipity(recs); !almostEqual(got, 0.5) {
		t.Errorf("serendipity = %v, want 0.5", got)
	}
	if got := computeSerendipity(nil); got != 0 {
		t.Errorf("serendipity = %v, want 0 for empty", got)
	}
}

func TestComputePersonalization(t *testing.T) {
	t.Parallel()

	if got := computePersonalization(0.9, 0.7, true); !almostEqual(got, 0.8) {
		t.Errorf("personalization = %v, want 0.8", got)
	}
	if got := computePersonalization(0.9, 0, false); !almostEqual(got, 0.5) {
		t.Errorf("personalization = %v, want neutral 0.5", got)
	}
}
