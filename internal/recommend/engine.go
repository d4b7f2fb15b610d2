// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylemesh/stylemesh/internal/metrics"
)

// Engine fuses candidates from the registered generators into a single
// ranked, diversified list. It is immutable after construction and holds no
// per-request state; a single Engine serves concurrent requests without
// synchronization beyond the seeded random source.
type Engine struct {
	config     Config
	weights    map[Source]float64
	logger     zerolog.Logger
	provider   DataProvider
	profiles   ProfileProvider
	generators map[Source]Generator

	// rng is the only source of randomness in the pipeline. Guarded by rngMu;
	// injectable for reproducible tests.
	rngMu sync.Mutex
	rng   *rand.Rand

	requests atomic.Uint64
	failures atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithProfileProvider wires the optional profile service used by the
// personalization metric.
func WithProfileProvider(p ProfileProvider) Option {
	return func(e *Engine) { e.profiles = p }
}

// WithRand replaces the engine's random source. Tests use a fixed-seed
// rand.Rand to make serendipity injection reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// New creates an engine with the given configuration and data provider.
func New(cfg Config, provider DataProvider, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}

	e := &Engine{
		config:     cfg,
		weights:    cfg.Weights.Normalize().ToMap(),
		logger:     zerolog.Nop(),
		provider:   provider,
		generators: make(map[Source]Generator),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // not used for security
	}
	return e, nil
}

// RegisterGenerator adds a candidate generator. Must be called before the
// engine starts serving; registration is not safe concurrently with
// Recommend.
func (e *Engine) RegisterGenerator(g Generator) {
	e.generators[g.Source()] = g
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Stats reports engine counters for the status endpoint.
type Stats struct {
	Requests        uint64 `json:"requests"`
	Failures        uint64 `json:"failures"`
	SnapshotVersion uint64 `json:"snapshot_version"`
	Ready           bool   `json:"ready"`
}

// Stats returns current engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:        e.requests.Load(),
		Failures:        e.failures.Load(),
		SnapshotVersion: e.provider.Version(),
		Ready:           e.provider.Ready(),
	}
}

// Recommend runs the full pipeline: validate, generate candidates in
// parallel, fuse, diversify, inject serendipity, truncate, compute analytics.
//
// Per-source failures are absorbed (weight redistribution); validation
// failures return *ValidationError; an unloaded snapshot returns ErrNotReady;
// anything unexpected is recovered and returned as ErrInternal.
func (e *Engine) Recommend(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	e.requests.Add(1)

	defer func() {
		outcome := "ok"
		switch {
		case err == nil:
		case errors.Is(err, ErrNotReady):
			outcome = "unavailable"
		case errors.Is(err, ErrInternal):
			outcome = "internal_error"
		default:
			if _, ok := AsValidationError(err); ok {
				outcome = "validation_error"
			} else {
				outcome = "error"
			}
		}
		metrics.RecommendRequestsTotal.WithLabelValues(string(req.Strategy), outcome).Inc()
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	req = e.applyDefaults(req)
	if verr := validateRequest(req, e.config.MaxResultsLimit); verr != nil {
		return nil, verr
	}
	if !e.provider.Ready() {
		return nil, ErrNotReady
	}

	// Recover anything the pipeline throws; callers get an opaque error,
	// logs get the detail.
	defer func() {
		if r := recover(); r != nil {
			e.failures.Add(1)
			e.logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Str("user_id", req.UserID).
				Msg("recommendation pipeline panicked")
			resp = nil
			err = ErrInternal
		}
	}()

	bySource, active := e.generateCandidates(ctx, req)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	weights := redistributeWeights(e.weights, active)
	fused := fuseCandidates(bySource, weights)
	fused = applyDiversity(fused, req.MaxResults, req.DiversityFactor)

	if req.Serendipity && len(fused) > 0 {
		fused = e.serendipityPass(ctx, fused, bySource)
	}
	if len(fused) > req.MaxResults {
		fused = fused[:req.MaxResults]
	}

	resp = &Response{
		Recommendations: fused,
		StrategiesUsed:  active,
		Metadata: ResponseMetadata{
			RequestID:       req.RequestID,
			UserID:          req.UserID,
			Strategy:        req.Strategy,
			SnapshotVersion: e.provider.Version(),
			LatencyMS:       time.Since(start).Milliseconds(),
			GeneratedAt:     time.Now().UTC(),
		},
	}
	if req.IncludeAnalytics {
		analytics := e.buildAnalytics(ctx, req, fused, len(active) == 0)
		analytics.ProcessingTimeMS = time.Since(start).Milliseconds()
		resp.Analytics = &analytics
	}

	e.logger.Debug().
		Str("user_id", req.UserID).
		Str("strategy", string(req.Strategy)).
		Int("results", len(fused)).
		Int("sources", len(active)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation served")

	return resp, nil
}

// applyDefaults fills unset request fields. A zero MaxResults means the field
// was omitted; explicit out-of-range values are rejected by validation.
func (e *Engine) applyDefaults(req Request) Request {
	if req.Strategy == "" {
		req.Strategy = StrategyHybrid
	}
	if req.MaxResults == 0 {
		req.MaxResults = e.config.DefaultMaxResults
	}
	return req
}

func validateRequest(req Request, maxResultsLimit int) error {
	if req.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if !req.Strategy.Valid() {
		return &ValidationError{
			Field:  "strategy",
			Reason: fmt.Sprintf("unknown value %q", req.Strategy),
		}
	}
	if req.MaxResults < 1 || req.MaxResults > maxResultsLimit {
		return &ValidationError{
			Field:  "max_results",
			Reason: fmt.Sprintf("must be in [1,%d], got %d", maxResultsLimit, req.MaxResults),
		}
	}
	if req.SimilarityThreshold < 0 || req.SimilarityThreshold > 1 {
		return &ValidationError{Field: "similarity_threshold", Reason: "must be in [0,1]"}
	}
	if req.DiversityFactor < 0 || req.DiversityFactor > 1 {
		return &ValidationError{Field: "diversity_factor", Reason: "must be in [0,1]"}
	}
	return nil
}

type sourceResult struct {
	source     Source
	candidates []Candidate
	err        error
}

// generateCandidates runs one generator per enabled source in parallel, each
// under its own timeout. Failed sources are logged and dropped; the returned
// active list holds sources that contributed at least one candidate, in
// canonical order.
func (e *Engine) generateCandidates(ctx context.Context, req Request) (map[Source][]Candidate, []Source) {
	srcs := req.Strategy.Sources()
	results := make([]sourceResult, len(srcs))

	var wg sync.WaitGroup
	for i, src := range srcs {
		gen, ok := e.generators[src]
		if !ok {
			results[i] = sourceResult{source: src, err: fmt.Errorf("no generator registered for source %q", src)}
			continue
		}
		wg.Add(1)
		go func(i int, gen Generator) {
			defer wg.Done()
			results[i] = e.runGenerator(ctx, gen, req)
		}(i, gen)
	}
	wg.Wait()

	bySource := make(map[Source][]Candidate, len(srcs))
	active := make([]Source, 0, len(srcs))
	for _, res := range results {
		if res.err != nil {
			metrics.RecommendSourceFailures.WithLabelValues(string(res.source)).Inc()
			e.logger.Warn().
				Err(res.err).
				Str("source", string(res.source)).
				Str("user_id", req.UserID).
				Msg("source disabled for this request")
			continue
		}
		if len(res.candidates) == 0 {
			continue
		}
		bySource[res.source] = res.candidates
		active = append(active, res.source)
	}
	return bySource, active
}

// runGenerator executes one generator under the per-source timeout. Panics
// are converted to errors so a broken source degrades instead of crashing the
// request.
func (e *Engine) runGenerator(ctx context.Context, gen Generator, req Request) (res sourceResult) {
	res.source = gen.Source()

	defer func() {
		if r := recover(); r != nil {
			res.candidates = nil
			res.err = fmt.Errorf("generator panicked: %v", r)
		}
	}()

	sctx, cancel := context.WithTimeout(ctx, e.config.SourceTimeout)
	defer cancel()

	start := time.Now()
	candidates, err := gen.Generate(sctx, req)
	metrics.RecommendSourceDuration.
		WithLabelValues(string(res.source)).
		Observe(time.Since(start).Seconds())

	if err != nil {
		res.err = fmt.Errorf("generate: %w", err)
		return res
	}
	res.candidates = candidates
	return res
}

// serendipityPass injects discovery picks drawn from the catalog items no
// source proposed.
func (e *Engine) serendipityPass(ctx context.Context, fused []Recommendation,
	bySource map[Source][]Candidate) []Recommendation {
	pool, err := e.provider.Items(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("catalog unavailable, skipping serendipity")
		return fused
	}

	seen := make(map[string]struct{})
	for _, candidates := range bySource {
		for _, c := range candidates {
			seen[c.ItemID] = struct{}{}
		}
	}

	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return injectSerendipity(fused, pool, seen, e.config.Serendipity, e.rng)
}

func (e *Engine) buildAnalytics(ctx context.Context, req Request,
	recs []Recommendation, allEmpty bool) Analytics {
	profileConfidence, hasProfile := 0.0, false
	if e.profiles != nil {
		c, err := e.profiles.ProfileConfidence(ctx, req.UserID)
		if err != nil {
			e.logger.Debug().Err(err).Str("user_id", req.UserID).Msg("profile unavailable")
		} else {
			profileConfidence, hasProfile = c, true
		}
	}

	analytics := computeAnalytics(recs, profileConfidence, hasProfile)
	analytics.AllSourcesEmpty = allEmpty
	return analytics
}
