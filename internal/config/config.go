// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

// Package config defines the service configuration and its layered loader:
// struct defaults, then an optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the root service configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Engine  EngineConfig  `koanf:"engine"`
	Sources SourcesConfig `koanf:"sources"`
	Store   StoreConfig   `koanf:"store"`
	Profile ProfileConfig `koanf:"profile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed origins; "*" allows all.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP. 0 disables
	// rate limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EngineConfig holds fusion engine settings.
type EngineConfig struct {
	VectorWeight        float64 `koanf:"vector_weight"`
	CollaborativeWeight float64 `koanf:"collaborative_weight"`
	ContentWeight       float64 `koanf:"content_weight"`

	SourceTimeout          time.Duration `koanf:"source_timeout"`
	DefaultMaxResults      int           `koanf:"default_max_results"`
	MaxResultsLimit        int           `koanf:"max_results_limit"`
	DefaultDiversityFactor float64       `koanf:"default_diversity_factor"`

	SerendipityRate     float64 `koanf:"serendipity_rate"`
	SerendipityMinScore float64 `koanf:"serendipity_min_score"`
	SerendipityMaxScore float64 `koanf:"serendipity_max_score"`

	Seed int64 `koanf:"seed"`
}

// SourcesConfig holds per-generator settings.
type SourcesConfig struct {
	Vector        VectorSourceConfig        `koanf:"vector"`
	Collaborative CollaborativeSourceConfig `koanf:"collaborative"`
	Content       ContentSourceConfig       `koanf:"content"`
	Trending      TrendingSourceConfig      `koanf:"trending"`
}

// VectorSourceConfig configures the vector similarity source.
type VectorSourceConfig struct {
	PoolSize int `koanf:"pool_size"`
}

// CollaborativeSourceConfig configures the collaborative filtering source.
type CollaborativeSourceConfig struct {
	Neighbors      int     `koanf:"neighbors"`
	MinCommonItems int     `koanf:"min_common_items"`
	MinSimilarity  float64 `koanf:"min_similarity"`
	PoolSize       int     `koanf:"pool_size"`
}

// ContentSourceConfig configures the content-based source.
type ContentSourceConfig struct {
	CategoryWeight  float64 `koanf:"category_weight"`
	AttributeWeight float64 `koanf:"attribute_weight"`
	LikeThreshold   float64 `koanf:"like_threshold"`
	ContextsKey     string  `koanf:"contexts_key"`
	PoolSize        int     `koanf:"pool_size"`
}

// TrendingSourceConfig configures the trending source.
type TrendingSourceConfig struct {
	HalfLife time.Duration `koanf:"half_life"`
	PoolSize int           `koanf:"pool_size"`
}

// StoreConfig holds catalog and event log settings.
type StoreConfig struct {
	// CatalogPath is an optional JSON catalog loaded at startup.
	CatalogPath string `koanf:"catalog_path"`

	// EventLogPath enables the durable Badger interaction log. Empty means
	// memory-only.
	EventLogPath string `koanf:"event_log_path"`
}

// ProfileConfig holds the external profile service client settings.
type ProfileConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// defaultConfig returns the built-in defaults, overridden by file and env.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8460,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			VectorWeight:           0.4,
			CollaborativeWeight:    0.35,
			ContentWeight:          0.25,
			SourceTimeout:          2 * time.Second,
			DefaultMaxResults:      10,
			MaxResultsLimit:        50,
			DefaultDiversityFactor: 0.3,
			SerendipityRate:        0.15,
			SerendipityMinScore:    0.70,
			SerendipityMaxScore:    0.85,
			Seed:                   1,
		},
		Sources: SourcesConfig{
			Vector: VectorSourceConfig{PoolSize: 100},
			Collaborative: CollaborativeSourceConfig{
				Neighbors:      20,
				MinCommonItems: 1,
				MinSimilarity:  0.0,
				PoolSize:       100,
			},
			Content: ContentSourceConfig{
				CategoryWeight:  0.5,
				AttributeWeight: 0.5,
				LikeThreshold:   0.5,
				ContextsKey:     "contexts",
				PoolSize:        100,
			},
			Trending: TrendingSourceConfig{
				HalfLife: 7 * 24 * time.Hour,
				PoolSize: 100,
			},
		},
		Store: StoreConfig{},
		Profile: ProfileConfig{
			Enabled: false,
			Timeout: time.Second,
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("server.rate_limit_reqs must not be negative, got %d", c.Server.RateLimitReqs)
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Engine.VectorWeight < 0 || c.Engine.CollaborativeWeight < 0 || c.Engine.ContentWeight < 0 {
		return fmt.Errorf("engine source weights must not be negative")
	}
	if c.Engine.SourceTimeout <= 0 {
		return fmt.Errorf("engine.source_timeout must be positive, got %v", c.Engine.SourceTimeout)
	}
	if c.Engine.MaxResultsLimit < 1 {
		return fmt.Errorf("engine.max_results_limit must be positive, got %d", c.Engine.MaxResultsLimit)
	}
	if c.Engine.DefaultMaxResults < 1 || c.Engine.DefaultMaxResults > c.Engine.MaxResultsLimit {
		return fmt.Errorf("engine.default_max_results must be in [1,%d], got %d",
			c.Engine.MaxResultsLimit, c.Engine.DefaultMaxResults)
	}
	if c.Engine.DefaultDiversityFactor < 0 || c.Engine.DefaultDiversityFactor > 1 {
		return fmt.Errorf("engine.default_diversity_factor must be in [0,1], got %f",
			c.Engine.DefaultDiversityFactor)
	}
	if c.Engine.SerendipityRate < 0 || c.Engine.SerendipityRate > 1 {
		return fmt.Errorf("engine.serendipity_rate must be in [0,1], got %f", c.Engine.SerendipityRate)
	}

	if c.Profile.Enabled && c.Profile.BaseURL == "" {
		return fmt.Errorf("profile.base_url is required when the profile client is enabled")
	}

	return nil
}
