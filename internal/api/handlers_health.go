// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package api

import (
	"net/http"
	"time"
)

// HealthLive handles liveness probe requests. Returns 200 if the process is
// alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests. Returns 200 only once a
// catalog snapshot has been published; 503 before that.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.store.Ready() {
		NewResponseWriter(w, r).ServiceUnavailable("catalog snapshot not loaded")
		return
	}

	WriteSuccess(w, r, map[string]interface{}{
		"ready":            true,
		"snapshot_version": h.store.Version(),
	})
}
