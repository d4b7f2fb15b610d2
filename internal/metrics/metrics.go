// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

// Package metrics defines the Prometheus collectors for Stylemesh:
// recommendation pipeline latency and per-source health, HTTP endpoint
// throughput, snapshot state, and ingestion counters. Collectors are
// package-level promauto variables registered on the default registry and
// exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics.

	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylemesh_recommend_requests_total",
			Help: "Recommendation requests by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stylemesh_recommend_duration_seconds",
			Help:    "End-to-end recommendation pipeline duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendSourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylemesh_recommend_source_failures_total",
			Help: "Candidate sources disabled for a request after error or timeout",
		},
		[]string{"source"},
	)

	RecommendSourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stylemesh_recommend_source_duration_seconds",
			Help:    "Per-source candidate generation duration",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"source"},
	)

	// HTTP metrics.

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylemesh_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stylemesh_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Snapshot metrics.

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stylemesh_snapshot_version",
			Help: "Version of the currently published catalog snapshot",
		},
	)

	SnapshotItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stylemesh_snapshot_items",
			Help: "Catalog items in the current snapshot",
		},
	)

	SnapshotUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stylemesh_snapshot_users",
			Help: "Users with interactions in the current snapshot",
		},
	)

	// Ingestion metrics.

	IngestEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylemesh_ingest_events_total",
			Help: "Interaction events consumed from the ingest topic by outcome",
		},
		[]string{"outcome"},
	)

	// Profile service client metrics.

	ProfileLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylemesh_profile_lookups_total",
			Help: "Profile service lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
