// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

// ContentConfig configures the content-based generator.
type ContentConfig struct {
	// CategoryWeight and AttributeWeight blend the two overlap components.
	CategoryWeight  float64 `koanf:"category_weight" json:"category_weight"`
	AttributeWeight float64 `koanf:"attribute_weight" json:"attribute_weight"`

	// LikeThreshold is the minimum signal for an interaction to shape the
	// taste profile.
	LikeThreshold float64 `koanf:"like_threshold" json:"like_threshold"`

	// ContextsKey names the item attribute listing compatible contexts as a
	// comma-separated list. Items without the attribute match every context.
	ContextsKey string `koanf:"contexts_key" json:"contexts_key"`

	// PoolSize caps the candidates returned per request. 0 means unlimited.
	PoolSize int `koanf:"pool_size" json:"pool_size"`
}

// DefaultContentConfig returns production defaults.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		CategoryWeight:  0.5,
		AttributeWeight: 0.5,
		LikeThreshold:   0.5,
		ContextsKey:     "contexts",
		PoolSize:        100,
	}
}

// ContentBased scores catalog items by how well their category and attributes
// overlap the taste profile built from the user's liked items, filtered to
// items compatible with the request context.
type ContentBased struct {
	config   ContentConfig
	provider recommend.DataProvider
}

// NewContentBased creates a content-based generator.
func NewContentBased(cfg ContentConfig, provider recommend.DataProvider) *ContentBased {
	if cfg.CategoryWeight <= 0 && cfg.AttributeWeight <= 0 {
		cfg.CategoryWeight = 0.5
		cfg.AttributeWeight = 0.5
	}
	if cfg.ContextsKey == "" {
		cfg.ContextsKey = "contexts"
	}
	return &ContentBased{config: cfg, provider: provider}
}

// Source returns the content source tag.
func (g *ContentBased) Source() recommend.Source {
	return recommend.SourceContent
}

// tasteProfile holds normalized category and attribute preferences in [0,1].
type tasteProfile struct {
	categories map[string]float64
	attributes map[string]float64 // keyed "name=value"
}

// Generate returns attribute-overlap candidates. Users with no liked items
// get an empty list.
func (g *ContentBased) Generate(ctx context.Context, req recommend.Request) ([]recommend.Candidate, error) {
	signals, err := g.provider.UserSignals(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user signals: %w", err)
	}

	profile := g.buildProfile(ctx, signals)
	if profile == nil {
		return nil, nil
	}

	items, err := g.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog items: %w", err)
	}

	totalWeight := g.config.CategoryWeight + g.config.AttributeWeight
	candidates := make([]recommend.Candidate, 0, len(items)/4)
	for i := range items {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		item := &items[i]
		if _, seen := signals[item.ItemID]; seen {
			continue
		}
		if !g.contextCompatible(item.Attributes, req.Context) {
			continue
		}

		metadata := item.Metadata()
		score := g.config.CategoryWeight*profile.categories[metadata.Category] +
			g.config.AttributeWeight*g.attributeOverlap(profile, item.Attributes)
		score = clamp01(score / totalWeight)
		if score == 0 {
			continue
		}

		candidates = append(candidates, recommend.Candidate{
			ItemID:   item.ItemID,
			Source:   recommend.SourceContent,
			Score:    score,
			Reason:   "shares category and attributes with items you liked",
			Metadata: metadata,
		})
	}

	return topCandidates(candidates, g.config.PoolSize), nil
}

// buildProfile aggregates signal-weighted category and attribute frequencies
// from liked items and normalizes each map by its maximum. Returns nil when
// no interaction clears the like threshold.
func (g *ContentBased) buildProfile(ctx context.Context, signals map[string]float64) *tasteProfile {
	profile := &tasteProfile{
		categories: make(map[string]float64),
		attributes: make(map[string]float64),
	}

	liked := 0
	for itemID, signal := range signals {
		if signal < g.config.LikeThreshold {
			continue
		}
		item, ok := g.provider.Item(ctx, itemID)
		if !ok {
			continue
		}
		liked++

		metadata := item.Metadata()
		profile.categories[metadata.Category] += signal
		for name, value := range item.Attributes {
			if name == g.config.ContextsKey {
				continue
			}
			profile.attributes[name+"="+value] += signal
		}
	}
	if liked == 0 {
		return nil
	}

	normalizeByMax(profile.categories)
	normalizeByMax(profile.attributes)
	return profile
}

// attributeOverlap averages the profile preference over the item's
// attributes. Items with no attributes score 0 on this component.
func (g *ContentBased) attributeOverlap(profile *tasteProfile, attrs map[string]string) float64 {
	counted := 0
	sum := 0.0
	for name, value := range attrs {
		if name == g.config.ContextsKey {
			continue
		}
		counted++
		sum += profile.attributes[name+"="+value]
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// contextCompatible checks the item's declared contexts against the request
// context. No declared contexts means compatible with everything.
func (g *ContentBased) contextCompatible(attrs map[string]string, reqContext string) bool {
	if reqContext == "" {
		return true
	}
	declared, ok := attrs[g.config.ContextsKey]
	if !ok || declared == "" {
		return true
	}
	for _, c := range strings.Split(declared, ",") {
		if strings.EqualFold(strings.TrimSpace(c), reqContext) {
			return true
		}
	}
	return false
}

// normalizeByMax scales map values so the largest becomes 1.
func normalizeByMax(m map[string]float64) {
	maxVal := 0.0
	for _, v := range m {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		return
	}
	for k, v := range m {
		m[k] = v / maxVal
	}
}

var _ recommend.Generator = (*ContentBased)(nil)
