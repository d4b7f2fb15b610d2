// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package sources

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

// TrendingConfig configures the trending generator.
type TrendingConfig struct {
	// HalfLife controls the exponential decay: an interaction this old counts
	// half as much as one happening now.
	HalfLife time.Duration `koanf:"half_life" json:"half_life"`

	// PoolSize caps the candidates returned per request. 0 means unlimited.
	PoolSize int `koanf:"pool_size" json:"pool_size"`
}

// DefaultTrendingConfig returns production defaults.
func DefaultTrendingConfig() TrendingConfig {
	return TrendingConfig{
		HalfLife: 7 * 24 * time.Hour,
		PoolSize: 100,
	}
}

// Trending ranks items by time-decayed interaction volume across all users.
// It backs the trending strategy and needs no per-user state beyond excluding
// items the requesting user already interacted with.
type Trending struct {
	config   TrendingConfig
	provider recommend.DataProvider

	// now is swappable in tests.
	now func() time.Time
}

// NewTrending creates a trending generator.
func NewTrending(cfg TrendingConfig, provider recommend.DataProvider) *Trending {
	if cfg.HalfLife <= 0 {
		cfg.HalfLife = 7 * 24 * time.Hour
	}
	return &Trending{config: cfg, provider: provider, now: time.Now}
}

// Source returns the trending source tag.
func (t *Trending) Source() recommend.Source {
	return recommend.SourceTrending
}

// Generate returns the currently trending items. An empty interaction log
// yields an empty list.
func (t *Trending) Generate(ctx context.Context, req recommend.Request) ([]recommend.Candidate, error) {
	events, err := t.provider.Interactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("interactions: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	userSignals, err := t.provider.UserSignals(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user signals: %w", err)
	}

	now := t.now()
	halfLife := t.config.HalfLife.Seconds()
	scores := make(map[string]float64)
	for i := range events {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ev := &events[i]
		if _, seen := userSignals[ev.ItemID]; seen {
			continue
		}

		weight := ev.Signal
		if weight <= 0 {
			weight = 1
		}
		age := now.Sub(ev.At).Seconds()
		if age < 0 {
			age = 0
		}
		scores[ev.ItemID] += weight * math.Exp(-math.Ln2*age/halfLife)
	}
	scores = normalizeScores(scores)

	candidates := make([]recommend.Candidate, 0, len(scores))
	for itemID, score := range scores {
		metadata := recommend.ItemMetadata{Category: "unknown"}
		if item, ok := t.provider.Item(ctx, itemID); ok {
			metadata = item.Metadata()
		}
		candidates = append(candidates, recommend.Candidate{
			ItemID:   itemID,
			Source:   recommend.SourceTrending,
			Score:    clamp01(score),
			Reason:   "trending across the catalog right now",
			Metadata: metadata,
		})
	}

	return topCandidates(candidates, t.config.PoolSize), nil
}

var _ recommend.Generator = (*Trending)(nil)
