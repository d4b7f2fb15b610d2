// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package sources

import (
	"context"
	"fmt"
	"sort"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

// CollaborativeConfig configures the user-based collaborative filter.
type CollaborativeConfig struct {
	// Neighbors is the number of most-similar users considered.
	Neighbors int `koanf:"neighbors" json:"neighbors"`

	// MinCommonItems is the minimum co-rated items before two users are
	// comparable at all.
	MinCommonItems int `koanf:"min_common_items" json:"min_common_items"`

	// MinSimilarity discards neighbors below this cosine similarity.
	MinSimilarity float64 `koanf:"min_similarity" json:"min_similarity"`

	// PoolSize caps the candidates returned per request. 0 means unlimited.
	PoolSize int `koanf:"pool_size" json:"pool_size"`
}

// DefaultCollaborativeConfig returns production defaults.
func DefaultCollaborativeConfig() CollaborativeConfig {
	return CollaborativeConfig{
		Neighbors:      20,
		MinCommonItems: 1,
		MinSimilarity:  0.0,
		PoolSize:       100,
	}
}

// Collaborative scores items liked by users whose interaction patterns
// resemble the target user's. Candidate score is the neighbor-similarity
// weighted signal, min-max normalized to [0,1].
type Collaborative struct {
	config   CollaborativeConfig
	provider recommend.DataProvider
}

// NewCollaborative creates a collaborative filtering generator.
func NewCollaborative(cfg CollaborativeConfig, provider recommend.DataProvider) *Collaborative {
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = 20
	}
	if cfg.MinCommonItems < 1 {
		cfg.MinCommonItems = 1
	}
	return &Collaborative{config: cfg, provider: provider}
}

// Source returns the collaborative source tag.
func (c *Collaborative) Source() recommend.Source {
	return recommend.SourceCollaborative
}

type neighbor struct {
	userID     string
	similarity float64
}

// Generate returns neighbor-weighted candidates. Cold-start users (no
// interaction history) get an empty list, never fabricated candidates.
func (c *Collaborative) Generate(ctx context.Context, req recommend.Request) ([]recommend.Candidate, error) {
	userSignals, err := c.provider.UserSignals(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user signals: %w", err)
	}
	if len(userSignals) == 0 {
		return nil, nil
	}

	allSignals, err := c.provider.AllSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("interaction matrix: %w", err)
	}

	neighbors := c.findNeighbors(ctx, req.UserID, userSignals, allSignals)
	if len(neighbors) == 0 {
		return nil, nil
	}

	// Weighted signal per unseen item: sum(sim * signal) / sum(sim).
	weightedSum := make(map[string]float64)
	simSum := make(map[string]float64)
	for _, n := range neighbors {
		for itemID, signal := range allSignals[n.userID] {
			if _, seen := userSignals[itemID]; seen {
				continue
			}
			weightedSum[itemID] += n.similarity * signal
			simSum[itemID] += n.similarity
		}
	}

	scores := make(map[string]float64, len(weightedSum))
	for itemID, sum := range weightedSum {
		if simSum[itemID] > 0 {
			scores[itemID] = sum / simSum[itemID]
		}
	}
	scores = normalizeScores(scores)

	candidates := make([]recommend.Candidate, 0, len(scores))
	for itemID, score := range scores {
		metadata := recommend.ItemMetadata{Category: "unknown"}
		if item, ok := c.provider.Item(ctx, itemID); ok {
			metadata = item.Metadata()
		}
		candidates = append(candidates, recommend.Candidate{
			ItemID:   itemID,
			Source:   recommend.SourceCollaborative,
			Score:    clamp01(score),
			Reason:   fmt.Sprintf("popular with %d users whose taste matches yours", len(neighbors)),
			Metadata: metadata,
		})
	}

	return topCandidates(candidates, c.config.PoolSize), nil
}

// findNeighbors returns the top-K most similar users, ordered by similarity
// descending then user ID ascending for determinism.
func (c *Collaborative) findNeighbors(ctx context.Context, userID string,
	userSignals map[string]float64, allSignals map[string]map[string]float64) []neighbor {
	neighbors := make([]neighbor, 0, len(allSignals))
	count := 0
	for otherID, otherSignals := range allSignals {
		if otherID == userID {
			continue
		}
		count++
		if count%256 == 0 && ctx.Err() != nil {
			return nil
		}
		if commonKeys(userSignals, otherSignals) < c.config.MinCommonItems {
			continue
		}

		sim := sparseCosine(userSignals, otherSignals)
		if sim <= c.config.MinSimilarity {
			continue
		}
		neighbors = append(neighbors, neighbor{userID: otherID, similarity: sim})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	if len(neighbors) > c.config.Neighbors {
		neighbors = neighbors[:c.config.Neighbors]
	}
	return neighbors
}

var _ recommend.Generator = (*Collaborative)(nil)
