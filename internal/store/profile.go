// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/stylemesh/stylemesh/internal/metrics"
	"github.com/stylemesh/stylemesh/internal/recommend"
)

// ProfileClientConfig configures the external profile service client.
type ProfileClientConfig struct {
	// BaseURL of the profile service, e.g. http://profiles:8080.
	BaseURL string `koanf:"base_url" json:"base_url"`

	// Timeout bounds one lookup.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

// DefaultProfileClientConfig returns production defaults.
func DefaultProfileClientConfig() ProfileClientConfig {
	return ProfileClientConfig{Timeout: time.Second}
}

// ProfileClient fetches user profile confidence over HTTP behind a circuit
// breaker. Any failure (including an open breaker) means "no profile"; the
// personalization metric then falls back to its neutral default, so a flaky
// profile service can never fail a recommendation request.
type ProfileClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[float64]
	logger  zerolog.Logger
}

// NewProfileClient creates a profile service client.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewProfileClient(cfg ProfileClientConfig, logger zerolog.Logger) *ProfileClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	settings := gobreaker.Settings{
		Name:        "profile-service",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &ProfileClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[float64](settings),
		logger:  logger,
	}
}

// ProfileConfidence returns the profile service's confidence for the user,
// clamped to [0,1].
func (c *ProfileClient) ProfileConfidence(ctx context.Context, userID string) (float64, error) {
	confidence, err := c.breaker.Execute(func() (float64, error) {
		return c.fetch(ctx, userID)
	})
	if err != nil {
		metrics.ProfileLookupsTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.ProfileLookupsTotal.WithLabelValues("ok").Inc()
	return confidence, nil
}

func (c *ProfileClient) fetch(ctx context.Context, userID string) (float64, error) {
	endpoint := fmt.Sprintf("%s/v1/profiles/%s/confidence", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("profile lookup: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("no profile for user %s", userID)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("profile service returned %d", resp.StatusCode)
	}

	var body struct {
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode profile response: %w", err)
	}

	confidence := body.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence, nil
}

var _ recommend.ProfileProvider = (*ProfileClient)(nil)
