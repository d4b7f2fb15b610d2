// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/stylemesh/config.yaml",
	"/etc/stylemesh/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces all environment overrides.
const envPrefix = "STYLEMESH_"

// Load builds the configuration from layered sources with the precedence
// ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env values into slices. YAML
// sources already produce slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps STYLEMESH_-stripped variable names to config paths.
// Unmapped variables are ignored so stray environment noise never leaks into
// the configuration.
var envMappings = map[string]string{
	"server_host":        "server.host",
	"server_port":        "server.port",
	"server_timeout":     "server.timeout",
	"cors_origins":       "server.cors_origins",
	"rate_limit_reqs":    "server.rate_limit_reqs",
	"rate_limit_window":  "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"engine_vector_weight":            "engine.vector_weight",
	"engine_collaborative_weight":     "engine.collaborative_weight",
	"engine_content_weight":           "engine.content_weight",
	"engine_source_timeout":           "engine.source_timeout",
	"engine_default_max_results":      "engine.default_max_results",
	"engine_max_results_limit":        "engine.max_results_limit",
	"engine_default_diversity_factor": "engine.default_diversity_factor",
	"engine_serendipity_rate":         "engine.serendipity_rate",
	"engine_serendipity_min_score":    "engine.serendipity_min_score",
	"engine_serendipity_max_score":    "engine.serendipity_max_score",
	"engine_seed":                     "engine.seed",

	"vector_pool_size": "sources.vector.pool_size",

	"collaborative_neighbors":        "sources.collaborative.neighbors",
	"collaborative_min_common_items": "sources.collaborative.min_common_items",
	"collaborative_min_similarity":   "sources.collaborative.min_similarity",
	"collaborative_pool_size":        "sources.collaborative.pool_size",

	"content_category_weight":  "sources.content.category_weight",
	"content_attribute_weight": "sources.content.attribute_weight",
	"content_like_threshold":   "sources.content.like_threshold",
	"content_contexts_key":     "sources.content.contexts_key",
	"content_pool_size":        "sources.content.pool_size",

	"trending_half_life": "sources.trending.half_life",
	"trending_pool_size": "sources.trending.pool_size",

	"catalog_path":   "store.catalog_path",
	"event_log_path": "store.event_log_path",

	"profile_enabled":  "profile.enabled",
	"profile_base_url": "profile.base_url",
	"profile_timeout":  "profile.timeout",
}

// envTransformFunc maps STYLEMESH_SERVER_PORT style variables to koanf paths.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
