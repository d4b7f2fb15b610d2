// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package recommend

import (
	"testing"
	"time"
)

func TestSourceWeightsNormalize(t *testing.T) {
	t.Parallel()

	t.Run("already normalized", func(t *testing.T) {
		t.Parallel()

		w := SourceWeights{Vector: 0.4, Collaborative: 0.35, Content: 0.25}.Normalize()
		if !almostEqual(w.Vector+w.Collaborative+w.Content, 1.0) {
			t.Errorf("weights sum = %v, want 1", w.Vector+w.Collaborative+w.Content)
		}
		if !almostEqual(w.Vector, 0.4) {
			t.Errorf("vector = %v, want 0.4", w.Vector)
		}
	})

	t.Run("scales arbitrary totals", func(t *testing.T) {
		t.Parallel()

		w := SourceWeights{Vector: 2, Collaborative: 1, Content: 1}.Normalize()
		if !almostEqual(w.Vector, 0.5) || !almostEqual(w.Collaborative, 0.25) {
			t.Errorf("normalized = %+v", w)
		}
	})

	t.Run("zero total falls back to equal", func(t *testing.T) {
		t.Parallel()

		w := SourceWeights{}.Normalize()
		if !almostEqual(w.Vector, 1.0/3.0) {
			t.Errorf("vector = %v, want one third", w.Vector)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative weight", func(c *Config) { c.Weights.Vector = -1 }},
		{"zero timeout", func(c *Config) { c.SourceTimeout = 0 }},
		{"default above limit", func(c *Config) { c.DefaultMaxResults = 100 }},
		{"zero limit", func(c *Config) { c.MaxResultsLimit = 0; c.DefaultMaxResults = 0 }},
		{"diversity above one", func(c *Config) { c.DefaultDiversityFactor = 1.5 }},
		{"serendipity rate above one", func(c *Config) { c.Serendipity.Rate = 2 }},
		{"serendipity min above max", func(c *Config) { c.Serendipity.MinScore = 0.9 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.SourceTimeout != 2*time.Second {
		t.Errorf("source timeout = %v, want 2s", cfg.SourceTimeout)
	}
	if cfg.DefaultMaxResults != 10 || cfg.MaxResultsLimit != 50 {
		t.Errorf("max results defaults = %d/%d, want 10/50",
			cfg.DefaultMaxResults, cfg.MaxResultsLimit)
	}
	if !almostEqual(cfg.Serendipity.Rate, 0.15) {
		t.Errorf("serendipity rate = %v, want 0.15", cfg.Serendipity.Rate)
	}
}

func TestStrategySources(t *testing.T) {
	t.Parallel()

	hybrid := StrategyHybrid.Sources()
	want := []Source{SourceVector, SourceCollaborative, SourceContent}
	if len(hybrid) != len(want) {
		t.Fatalf("hybrid sources = %v, want %v", hybrid, want)
	}
	for i := range want {
		if hybrid[i] != want[i] {
			t.Errorf("hybrid sources = %v, want %v", hybrid, want)
			break
		}
	}

	if s := StrategyTrending.Sources(); len(s) != 1 || s[0] != SourceTrending {
		t.Errorf("trending sources = %v", s)
	}
	if !StrategyHybrid.Valid() || Strategy("psychic").Valid() {
		t.Error("strategy validity check broken")
	}
}
