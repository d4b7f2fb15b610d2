// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package api

import (
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stylemesh/stylemesh/internal/recommend"
	"github.com/stylemesh/stylemesh/internal/store"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates the service router.
func NewRouter(engine *recommend.Engine, st *store.Store, publisher message.Publisher,
	mwConfig *MiddlewareConfig) *Router {
	return &Router{
		handler:    NewHandler(engine, st, publisher),
		middleware: NewMiddleware(mwConfig),
	}
}

// Handler returns the fully wired http.Handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.middleware.CORS())

	// Registered before subrouters are mounted so they inherit it.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("resource not found")
	})

	// Probes stay outside the rate limit so orchestrators are never throttled.
	r.Get("/health/live", rt.handler.HealthLive)
	r.Get("/health/ready", rt.handler.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.middleware.RateLimit())
		r.Use(SecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Post("/recommendations", rt.handler.CreateRecommendations)
		r.Get("/recommendations/users/{userID}", rt.handler.GetUserRecommendations)
		r.Post("/interactions", rt.handler.CreateInteraction)
		r.Get("/status", rt.handler.Status)
	})

	return r
}
