// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

// VectorConfig configures the vector similarity generator.
type VectorConfig struct {
	// PoolSize caps the candidates returned per request. 0 means unlimited.
	PoolSize int `koanf:"pool_size" json:"pool_size"`
}

// DefaultVectorConfig returns production defaults.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{PoolSize: 100}
}

// VectorSearch ranks catalog items by cosine similarity between the user's
// preference vector and each item embedding. Brute force over the snapshot;
// the fusion contract is identical if an ANN index replaces the scan later.
type VectorSearch struct {
	config   VectorConfig
	provider recommend.DataProvider
}

// NewVectorSearch creates a vector similarity generator.
func NewVectorSearch(cfg VectorConfig, provider recommend.DataProvider) *VectorSearch {
	if cfg.PoolSize < 0 {
		cfg.PoolSize = 0
	}
	return &VectorSearch{config: cfg, provider: provider}
}

// Source returns the vector source tag.
func (s *VectorSearch) Source() recommend.Source {
	return recommend.SourceVector
}

// Generate returns the top items by similarity, excluding anything below the
// request threshold. Users without a preference vector get an empty list.
func (s *VectorSearch) Generate(ctx context.Context, req recommend.Request) ([]recommend.Candidate, error) {
	vec, err := s.provider.UserPreferenceVector(ctx, req.UserID, req.Context)
	if errors.Is(err, recommend.ErrNoPreference) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("preference vector: %w", err)
	}

	items, err := s.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog items: %w", err)
	}

	candidates := make([]recommend.Candidate, 0, len(items)/4)
	for i := range items {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		item := &items[i]
		if len(item.Vector) != len(vec) {
			continue
		}

		sim := cosineSimilarity(vec, item.Vector)
		if sim < req.SimilarityThreshold {
			continue
		}

		score := clamp01(sim)
		candidates = append(candidates, recommend.Candidate{
			ItemID:   item.ItemID,
			Source:   recommend.SourceVector,
			Score:    score,
			Reason:   fmt.Sprintf("close match to your style profile (similarity %.2f)", score),
			Metadata: item.Metadata(),
		})
	}

	return topCandidates(candidates, s.config.PoolSize), nil
}

var _ recommend.Generator = (*VectorSearch)(nil)
