// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package api

import (
	"time"

	"github.com/stylemesh/stylemesh/internal/recommend"
)

// recommendRequestBody is the POST /api/v1/recommendations payload.
// Pointer fields distinguish "absent" from an explicit zero so that omitted
// values fall back to configured defaults while explicit zeros are honored.
type recommendRequestBody struct {
	UserID              string   `json:"user_id" validate:"required,max=128"`
	Context             string   `json:"context" validate:"omitempty,max=64"`
	Strategy            string   `json:"strategy" validate:"omitempty,oneof=hybrid content_based collaborative trending"`
	MaxResults          int      `json:"max_results" validate:"omitempty,min=1,max=50"`
	SimilarityThreshold float64  `json:"similarity_threshold" validate:"min=0,max=1"`
	DiversityFactor     *float64 `json:"diversity_factor" validate:"omitempty,min=0,max=1"`
	Serendipity         *bool    `json:"serendipity_enabled"`
	IncludeAnalytics    bool     `json:"include_analytics"`
}

// toEngineRequest resolves absent optional fields against engine defaults.
func (b *recommendRequestBody) toEngineRequest(defaultDiversity float64, requestID string) recommend.Request {
	diversity := defaultDiversity
	if b.DiversityFactor != nil {
		diversity = *b.DiversityFactor
	}
	serendipity := true
	if b.Serendipity != nil {
		serendipity = *b.Serendipity
	}

	return recommend.Request{
		UserID:              b.UserID,
		Context:             b.Context,
		Strategy:            recommend.Strategy(b.Strategy),
		MaxResults:          b.MaxResults,
		SimilarityThreshold: b.SimilarityThreshold,
		DiversityFactor:     diversity,
		Serendipity:         serendipity,
		IncludeAnalytics:    b.IncludeAnalytics,
		RequestID:           requestID,
	}
}

// interactionRequestBody is the POST /api/v1/interactions payload.
type interactionRequestBody struct {
	UserID string  `json:"user_id" validate:"required,max=128"`
	ItemID string  `json:"item_id" validate:"required,max=128"`
	Signal float64 `json:"signal" validate:"min=0,max=1"`

	// At is an optional RFC3339 event time; defaults to now.
	At *time.Time `json:"at"`
}

func (b *interactionRequestBody) toInteraction() recommend.Interaction {
	at := time.Now().UTC()
	if b.At != nil {
		at = b.At.UTC()
	}
	return recommend.Interaction{
		UserID: b.UserID,
		ItemID: b.ItemID,
		Signal: b.Signal,
		At:     at,
	}
}
