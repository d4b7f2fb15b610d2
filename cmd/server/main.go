// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

// Package main is the entry point for the Stylemesh recommendation server.
//
// Stylemesh fuses candidates from multiple recommendation strategies (vector
// similarity, collaborative filtering, content-based matching, trending) into
// one ranked, diversified, serendipity-augmented list per request.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 loading (defaults, YAML file, env)
//  2. Store: in-memory snapshot store, optional Badger event log replay,
//     optional JSON catalog load
//  3. Ingestion: watermill pub/sub channel with a supervised consumer that
//     batches interactions into new snapshots
//  4. Engine: fusion engine with one registered generator per source
//  5. HTTP server: chi REST API with Prometheus metrics and health probes
//
// All long-running components run under a suture supervisor tree; the
// ingestion consumer and the HTTP server live in separate layers so a crash
// in one never stops the other.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): STYLEMESH_-prefixed environment variables, config.yaml,
// built-in defaults. See internal/config for the full key list.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops accepting
// connections, drains in-flight requests, flushes pending interaction
// batches, and closes the event log.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/stylemesh/stylemesh/internal/api"
	"github.com/stylemesh/stylemesh/internal/config"
	"github.com/stylemesh/stylemesh/internal/logging"
	"github.com/stylemesh/stylemesh/internal/recommend"
	"github.com/stylemesh/stylemesh/internal/recommend/sources"
	"github.com/stylemesh/stylemesh/internal/store"
	"github.com/stylemesh/stylemesh/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
	}
}

//nolint:gocyclo // sequential component wiring
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Str("catalog_path", cfg.Store.CatalogPath).
		Bool("event_log", cfg.Store.EventLogPath != "").
		Bool("profile_client", cfg.Profile.Enabled).
		Msg("starting stylemesh")

	st := store.New(logging.WithComponent("store"))

	var eventLog *store.EventLog
	if cfg.Store.EventLogPath != "" {
		eventLog, err = store.OpenEventLog(cfg.Store.EventLogPath, logging.WithComponent("eventlog"))
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer func() {
			if cerr := eventLog.Close(); cerr != nil {
				logging.Error().Err(cerr).Msg("error closing event log")
			}
		}()

		replayed := 0
		err = eventLog.Replay(func(ev recommend.Interaction) error {
			st.AppendInteractions(ev)
			replayed++
			return nil
		})
		if err != nil {
			return fmt.Errorf("replay event log: %w", err)
		}
		logging.Info().Int("events", replayed).Msg("event log replayed")
	}

	if cfg.Store.CatalogPath != "" {
		if err := st.LoadCatalogFile(cfg.Store.CatalogPath); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	} else {
		logging.Warn().Msg("no catalog path configured; waiting for interactions to publish a snapshot")
		st.Publish()
	}

	engineCfg := recommend.Config{
		Weights: recommend.SourceWeights{
			Vector:        cfg.Engine.VectorWeight,
			Collaborative: cfg.Engine.CollaborativeWeight,
			Content:       cfg.Engine.ContentWeight,
		},
		SourceTimeout:          cfg.Engine.SourceTimeout,
		DefaultMaxResults:      cfg.Engine.DefaultMaxResults,
		MaxResultsLimit:        cfg.Engine.MaxResultsLimit,
		DefaultDiversityFactor: cfg.Engine.DefaultDiversityFactor,
		Serendipity: recommend.SerendipityConfig{
			Rate:     cfg.Engine.SerendipityRate,
			MinScore: cfg.Engine.SerendipityMinScore,
			MaxScore: cfg.Engine.SerendipityMaxScore,
		},
		Seed: cfg.Engine.Seed,
	}

	opts := []recommend.Option{recommend.WithLogger(logging.WithComponent("engine"))}
	if cfg.Profile.Enabled {
		profile := store.NewProfileClient(store.ProfileClientConfig{
			BaseURL: cfg.Profile.BaseURL,
			Timeout: cfg.Profile.Timeout,
		}, logging.WithComponent("profile"))
		opts = append(opts, recommend.WithProfileProvider(profile))
	}

	engine, err := recommend.New(engineCfg, st, opts...)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	engine.RegisterGenerator(sources.NewVectorSearch(sources.VectorConfig{
		PoolSize: cfg.Sources.Vector.PoolSize,
	}, st))
	engine.RegisterGenerator(sources.NewCollaborative(sources.CollaborativeConfig{
		Neighbors:      cfg.Sources.Collaborative.Neighbors,
		MinCommonItems: cfg.Sources.Collaborative.MinCommonItems,
		MinSimilarity:  cfg.Sources.Collaborative.MinSimilarity,
		PoolSize:       cfg.Sources.Collaborative.PoolSize,
	}, st))
	engine.RegisterGenerator(sources.NewContentBased(sources.ContentConfig{
		CategoryWeight:  cfg.Sources.Content.CategoryWeight,
		AttributeWeight: cfg.Sources.Content.AttributeWeight,
		LikeThreshold:   cfg.Sources.Content.LikeThreshold,
		ContextsKey:     cfg.Sources.Content.ContextsKey,
		PoolSize:        cfg.Sources.Content.PoolSize,
	}, st))
	engine.RegisterGenerator(sources.NewTrending(sources.TrendingConfig{
		HalfLife: cfg.Sources.Trending.HalfLife,
		PoolSize: cfg.Sources.Trending.PoolSize,
	}, st))

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, watermill.NewStdLogger(false, false))
	defer func() {
		if cerr := pubsub.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("error closing pub/sub")
		}
	}()

	consumer := store.NewConsumer(pubsub, st, eventLog, logging.WithComponent("ingest"))

	router := api.NewRouter(engine, st, pubsub, &api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		RateLimitDisabled:  cfg.Server.RateLimitReqs == 0,
	})

	httpCfg := supervisor.DefaultHTTPServerConfig(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	httpCfg.ReadTimeout = cfg.Server.Timeout
	httpCfg.WriteTimeout = cfg.Server.Timeout

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(consumer)
	tree.AddAPIService(supervisor.NewHTTPServer(httpCfg, router.Handler(), logging.WithComponent("http")))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	logging.Info().Msg("shutdown complete")
	return nil
}
