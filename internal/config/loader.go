package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if OPSTRACK_CONFIG is set
//  3. env (prefix OPSTRACK_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("OPSTRACK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: OPSTRACK_ADDR, OPSTRACK_FEED_URL, ...
	// Map env keys like OPSTRACK_INGEST_QUEUE_SIZE -> ingest_queue_size.
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("OPSTRACK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "opstrack_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("%w: feed_url must not be empty", ErrInvalidConfig)
	}
	if cfg.DedupeWindow <= 0 {
		return nil, fmt.Errorf("%w: dedupe_window must be positive", ErrInvalidConfig)
	}
	if cfg.SubscribeBatchSize <= 0 {
		return nil, fmt.Errorf("%w: subscribe_batch_size must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
