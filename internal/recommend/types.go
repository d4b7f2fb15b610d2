// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

// Package recommend implements the Stylemesh recommendation engine: candidate
// generation from multiple sources, weighted score fusion, diversity
// enforcement, serendipity injection, and per-response quality analytics.
package recommend

import (
	"context"
	"time"
)

// Source identifies a candidate generation strategy.
type Source string

// Known candidate sources. Serendipity is a synthetic tag applied during
// injection, never a generator.
const (
	SourceVector        Source = "vector"
	SourceCollaborative Source = "collaborative"
	SourceContent       Source = "content"
	SourceTrending      Source = "trending"
	SourceSerendipity   Source = "serendipity"
)

// CanonicalSources returns generator sources in canonical merge order.
// Fusion always walks sources in this order so that equal inputs produce
// identical outputs regardless of goroutine completion order.
func CanonicalSources() []Source {
	return []Source{SourceVector, SourceCollaborative, SourceContent, SourceTrending}
}

// Strategy selects which sources participate in a request.
type Strategy string

// Supported strategies.
const (
	StrategyHybrid        Strategy = "hybrid"
	StrategyContentBased  Strategy = "content_based"
	StrategyCollaborative Strategy = "collaborative"
	StrategyTrending      Strategy = "trending"
)

// Valid reports whether the strategy is one of the supported values.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyHybrid, StrategyContentBased, StrategyCollaborative, StrategyTrending:
		return true
	}
	return false
}

// Sources returns the generator sources this strategy enables, in canonical
// order.
func (s Strategy) Sources() []Source {
	switch s {
	case StrategyContentBased:
		return []Source{SourceContent}
	case StrategyCollaborative:
		return []Source{SourceCollaborative}
	case StrategyTrending:
		return []Source{SourceTrending}
	default:
		return []Source{SourceVector, SourceCollaborative, SourceContent}
	}
}

// ItemMetadata carries the descriptive attributes of a catalog item that the
// engine surfaces alongside scores.
type ItemMetadata struct {
	// Category is the item's primary category. Defaults to "unknown" when the
	// catalog does not provide one.
	Category string `json:"category"`

	// Attributes holds free-form item attributes (color, material, brand...).
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ItemEmbedding is a catalog item with its dense embedding vector.
type ItemEmbedding struct {
	ItemID     string            `json:"item_id"`
	Vector     []float64         `json:"vector"`
	Category   string            `json:"category"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Metadata returns the item's metadata with the category default applied.
func (e ItemEmbedding) Metadata() ItemMetadata {
	category := e.Category
	if category == "" {
		category = "unknown"
	}
	return ItemMetadata{Category: category, Attributes: e.Attributes}
}

// Interaction is a single user-item signal event.
type Interaction struct {
	UserID string    `json:"user_id"`
	ItemID string    `json:"item_id"`
	Signal float64   `json:"signal"`
	At     time.Time `json:"at"`
}

// Candidate is one scored item produced by a single source, before fusion.
type Candidate struct {
	ItemID   string
	Source   Source
	Score    float64 // raw score in [0,1]
	Reason   string
	Metadata ItemMetadata
}

// Recommendation is a fused, ranked result item.
type Recommendation struct {
	ItemID string `json:"item_id"`

	// TotalScore is the weighted sum across sources with the agreement boost
	// applied exactly once.
	TotalScore float64 `json:"total_score"`

	// Sources lists the contributing sources in canonical order.
	Sources []Source `json:"sources"`

	// SourceScores maps each contributing source to its raw score.
	SourceScores map[Source]float64 `json:"source_scores"`

	// Reasons collects the per-source explanations.
	Reasons []string `json:"reasons,omitempty"`

	// Confidence is the highest raw score among contributing sources.
	Confidence float64 `json:"confidence"`

	Metadata ItemMetadata `json:"metadata"`
}

// Request is a recommendation request after transport-level decoding.
type Request struct {
	UserID              string   `json:"user_id"`
	Context             string   `json:"context,omitempty"`
	Strategy            Strategy `json:"strategy"`
	MaxResults          int      `json:"max_results"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
	DiversityFactor     float64  `json:"diversity_factor"`
	Serendipity         bool     `json:"serendipity_enabled"`
	IncludeAnalytics    bool     `json:"include_analytics"`
	RequestID           string   `json:"-"`
}

// Analytics holds per-response quality metrics.
type Analytics struct {
	Confidence      float64 `json:"confidence"`
	Diversity       float64 `json:"diversity"`
	Serendipity     float64 `json:"serendipity"`
	Personalization float64 `json:"personalization"`

	// ProcessingTimeMS is the total pipeline duration in milliseconds.
	ProcessingTimeMS int64 `json:"processing_time_ms"`

	// AllSourcesEmpty is set when every enabled source failed or returned no
	// candidates and the engine degraded to an empty result.
	AllSourcesEmpty bool `json:"all_sources_empty,omitempty"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID       string    `json:"request_id,omitempty"`
	UserID          string    `json:"user_id"`
	Strategy        Strategy  `json:"strategy"`
	SnapshotVersion uint64    `json:"snapshot_version"`
	LatencyMS       int64     `json:"latency_ms"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Response is the engine's answer to a Request.
type Response struct {
	Recommendations []Recommendation `json:"recommendations"`

	// StrategiesUsed lists the sources that actually contributed candidates,
	// in canonical order.
	StrategiesUsed []Source `json:"strategies_used"`

	Analytics *Analytics       `json:"analytics,omitempty"`
	Metadata  ResponseMetadata `json:"metadata"`
}

// Generator produces candidates for a single source. Implementations must be
// safe for concurrent use; the engine runs one Generate per enabled source in
// parallel, each under its own timeout.
type Generator interface {
	// Source returns the source tag this generator produces.
	Source() Source

	// Generate returns scored candidates for the request. An empty slice with
	// a nil error is a valid outcome (cold start, nothing above threshold).
	Generate(ctx context.Context, req Request) ([]Candidate, error)
}

// DataProvider supplies the read-only inputs for candidate generation. All
// methods operate on an immutable snapshot; implementations swap snapshots
// atomically so a request never observes a half-updated catalog.
type DataProvider interface {
	// Ready reports whether a snapshot has been loaded.
	Ready() bool

	// Version returns the current snapshot version.
	Version() uint64

	// Items returns all catalog items sorted by item ID ascending.
	Items(ctx context.Context) ([]ItemEmbedding, error)

	// Item returns a single catalog item.
	Item(ctx context.Context, itemID string) (ItemEmbedding, bool)

	// UserPreferenceVector returns the user's preference embedding for the
	// given context. Returns ErrNoPreference for users without history.
	UserPreferenceVector(ctx context.Context, userID, reqContext string) ([]float64, error)

	// UserSignals returns the item signals of a single user.
	UserSignals(ctx context.Context, userID string) (map[string]float64, error)

	// AllSignals returns the item signals of every user.
	AllSignals(ctx context.Context) (map[string]map[string]float64, error)

	// Interactions returns all timestamped interaction events.
	Interactions(ctx context.Context) ([]Interaction, error)
}

// ProfileProvider reports how well the external profile service knows a user.
type ProfileProvider interface {
	// ProfileConfidence returns a confidence in [0,1]. Any error means no
	// usable profile; callers degrade to the neutral default.
	ProfileConfidence(ctx context.Context, userID string) (float64, error)
}
