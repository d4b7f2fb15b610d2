// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package recommend

import (
	"fmt"
	"time"
)

// SourceWeights controls the relative contribution of each hybrid source.
// Weights are normalized to sum to 1 before use.
type SourceWeights struct {
	Vector        float64 `koanf:"vector" json:"vector"`
	Collaborative float64 `koanf:"collaborative" json:"collaborative"`
	Content       float64 `koanf:"content" json:"content"`
}

// Normalize returns weights scaled to sum to 1. Zero or negative totals fall
// back to equal weights.
func (w SourceWeights) Normalize() SourceWeights {
	total := w.Vector + w.Collaborative + w.Content
	if total <= 0 {
		third := 1.0 / 3.0
		return SourceWeights{Vector: third, Collaborative: third, Content: third}
	}
	return SourceWeights{
		Vector:        w.Vector / total,
		Collaborative: w.Collaborative / total,
		Content:       w.Content / total,
	}
}

// ToMap returns the weights keyed by source. The trending source always runs
// alone, so it carries the full weight.
func (w SourceWeights) ToMap() map[Source]float64 {
	return map[Source]float64{
		SourceVector:        w.Vector,
		SourceCollaborative: w.Collaborative,
		SourceContent:       w.Content,
		SourceTrending:      1.0,
	}
}

// SerendipityConfig controls the discovery injection pass.
type SerendipityConfig struct {
	// Rate is the fraction of results replaced by discovery picks.
	Rate float64 `koanf:"rate" json:"rate"`

	// MinScore and MaxScore bound the uniform score drawn for injected items.
	MinScore float64 `koanf:"min_score" json:"min_score"`
	MaxScore float64 `koanf:"max_score" json:"max_score"`
}

// Config holds engine configuration.
type Config struct {
	// Weights are the hybrid-strategy source weights.
	Weights SourceWeights `koanf:"weights" json:"weights"`

	// SourceTimeout bounds each source's candidate generation.
	SourceTimeout time.Duration `koanf:"source_timeout" json:"source_timeout"`

	// DefaultMaxResults applies when a request omits max_results.
	DefaultMaxResults int `koanf:"default_max_results" json:"default_max_results"`

	// MaxResultsLimit is the hard upper bound on max_results.
	MaxResultsLimit int `koanf:"max_results_limit" json:"max_results_limit"`

	// DefaultDiversityFactor applies when a request omits diversity_factor.
	DefaultDiversityFactor float64 `koanf:"default_diversity_factor" json:"default_diversity_factor"`

	Serendipity SerendipityConfig `koanf:"serendipity" json:"serendipity"`

	// Seed initializes the engine's random source. A fixed seed makes
	// serendipity injection reproducible.
	Seed int64 `koanf:"seed" json:"seed"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Weights: SourceWeights{
			Vector:        0.4,
			Collaborative: 0.35,
			Content:       0.25,
		},
		SourceTimeout:          2 * time.Second,
		DefaultMaxResults:      10,
		MaxResultsLimit:        50,
		DefaultDiversityFactor: 0.3,
		Serendipity: SerendipityConfig{
			Rate:     0.15,
			MinScore: 0.70,
			MaxScore: 0.85,
		},
		Seed: 1,
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Weights.Vector < 0 || c.Weights.Collaborative < 0 || c.Weights.Content < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", c.Weights)
	}
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("source_timeout must be positive, got %v", c.SourceTimeout)
	}
	if c.DefaultMaxResults < 1 || c.DefaultMaxResults > c.MaxResultsLimit {
		return fmt.Errorf("default_max_results must be in [1,%d], got %d",
			c.MaxResultsLimit, c.DefaultMaxResults)
	}
	if c.MaxResultsLimit < 1 {
		return fmt.Errorf("max_results_limit must be positive, got %d", c.MaxResultsLimit)
	}
	if c.DefaultDiversityFactor < 0 || c.DefaultDiversityFactor > 1 {
		return fmt.Errorf("default_diversity_factor must be in [0,1], got %f",
			c.DefaultDiversityFactor)
	}
	if c.Serendipity.Rate < 0 || c.Serendipity.Rate > 1 {
		return fmt.Errorf("serendipity rate must be in [0,1], got %f", c.Serendipity.Rate)
	}
	if c.Serendipity.MinScore > c.Serendipity.MaxScore {
		return fmt.Errorf("serendipity min_score %f exceeds max_score %f",
			c.Serendipity.MinScore, c.Serendipity.MaxScore)
	}
	if c.Serendipity.MinScore < 0 || c.Serendipity.MaxScore > 1 {
		return fmt.Errorf("serendipity scores must be in [0,1]")
	}
	return nil
}
