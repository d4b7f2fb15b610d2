// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/stylemesh/stylemesh/internal/logging"
	"github.com/stylemesh/stylemesh/internal/recommend"
	"github.com/stylemesh/stylemesh/internal/store"
	"github.com/stylemesh/stylemesh/internal/validation"
)

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	engine    *recommend.Engine
	store     *store.Store
	publisher message.Publisher
	startTime time.Time
}

// NewHandler creates the HTTP handler set.
func NewHandler(engine *recommend.Engine, st *store.Store, publisher message.Publisher) *Handler {
	return &Handler{
		engine:    engine,
		store:     st,
		publisher: publisher,
		startTime: time.Now(),
	}
}

// CreateRecommendations handles POST /api/v1/recommendations.
func (h *Handler) CreateRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body recommendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	req := body.toEngineRequest(h.engine.Config().DefaultDiversityFactor,
		logging.RequestIDFromContext(r.Context()))
	h.recommend(rw, r, req)
}

// GetUserRecommendations handles GET /api/v1/recommendations/users/{userID}.
// Query parameters: strategy, max_results, context, include_analytics.
func (h *Handler) GetUserRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID := chi.URLParam(r, "userID")
	if userID == "" {
		rw.BadRequest("user ID is required")
		return
	}

	q := r.URL.Query()
	body := recommendRequestBody{
		UserID:   userID,
		Context:  q.Get("context"),
		Strategy: q.Get("strategy"),
	}
	if raw := q.Get("max_results"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			rw.BadRequest("max_results must be an integer")
			return
		}
		body.MaxResults = parsed
	}
	body.IncludeAnalytics = q.Get("include_analytics") == "true"

	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	req := body.toEngineRequest(h.engine.Config().DefaultDiversityFactor,
		logging.RequestIDFromContext(r.Context()))
	h.recommend(rw, r, req)
}

// recommend runs the engine and maps its error taxonomy onto HTTP statuses.
func (h *Handler) recommend(rw *ResponseWriter, r *http.Request, req recommend.Request) {
	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		if ve, ok := recommend.AsValidationError(err); ok {
			rw.ValidationError(ve.Error(), map[string]interface{}{"field": ve.Field})
			return
		}
		if errors.Is(err, recommend.ErrNotReady) {
			rw.ServiceUnavailable("recommendation engine not initialized")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).
			Str("user_id", req.UserID).
			Msg("recommendation request failed")
		rw.InternalError("failed to generate recommendations")
		return
	}

	rw.Success(resp)
}

// CreateInteraction handles POST /api/v1/interactions. The event is published
// to the ingestion pipeline and acknowledged before it becomes visible in a
// snapshot.
func (h *Handler) CreateInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body interactionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ev := body.toInteraction()
	if err := store.PublishInteraction(h.publisher, ev); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("user_id", ev.UserID).
			Str("item_id", ev.ItemID).
			Msg("failed to publish interaction")
		rw.InternalError("failed to record interaction")
		return
	}

	rw.Accepted(map[string]interface{}{
		"user_id": ev.UserID,
		"item_id": ev.ItemID,
		"at":      ev.At,
	})
}

// Status handles GET /api/v1/status with engine counters, snapshot info, and
// the effective fusion configuration.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats := h.engine.Stats()
	cfg := h.engine.Config()

	snapshot := map[string]interface{}{"loaded": false}
	if snap := h.store.Current(); snap != nil {
		snapshot = map[string]interface{}{
			"loaded":   true,
			"version":  snap.Version(),
			"built_at": snap.BuiltAt(),
			"items":    snap.ItemCount(),
			"users":    snap.UserCount(),
		}
	}

	rw.Success(map[string]interface{}{
		"uptime_seconds": time.Since(h.startTime).Seconds(),
		"requests":       stats.Requests,
		"failures":       stats.Failures,
		"snapshot":       snapshot,
		"fusion": map[string]interface{}{
			"weights":             cfg.Weights,
			"default_max_results": cfg.DefaultMaxResults,
			"max_results_limit":   cfg.MaxResultsLimit,
			"diversity_factor":    cfg.DefaultDiversityFactor,
			"serendipity_rate":    cfg.Serendipity.Rate,
		},
	})
}
