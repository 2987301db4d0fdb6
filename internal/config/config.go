// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FeedURL is the websocket endpoint of the upstream event stream.
	FeedURL string `koanf:"feed_url"`

	// ServiceID authenticates against the upstream data provider.
	ServiceID string `koanf:"service_id"`

	// WorldID selects the server for login/logout and facility channels.
	WorldID string `koanf:"world_id"`

	// IngestQueueSize bounds the in-memory raw message queue.
	IngestQueueSize int `koanf:"ingest_queue_size"`

	// DedupeWindow sets how many recent raw payloads are held for
	// duplicate rejection.
	DedupeWindow int `koanf:"dedupe_window"`

	// SubscribeBatchSize caps the number of characters per subscription
	// request sent to the feed.
	SubscribeBatchSize int `koanf:"subscribe_batch_size"`

	// ReviveWindowSeconds bounds how long after a death a revive may
	// still be linked to it.
	ReviveWindowSeconds int `koanf:"revive_window_seconds"`

	// TrendBucketSeconds sets the width of time-series report windows.
	TrendBucketSeconds int `koanf:"trend_bucket_seconds"`

	// MinKillsForRatios suppresses K/D, KPM, and HSR below this kill count.
	MinKillsForRatios int `koanf:"min_kills_for_ratios"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		FeedURL:             "wss://push.planetside2.com/streaming",
		ServiceID:           "",
		WorldID:             "17",
		IngestQueueSize:     100_000,
		DedupeWindow:        5,
		SubscribeBatchSize:  200,
		ReviveWindowSeconds: 40,
		TrendBucketSeconds:  60,
		MinKillsForRatios:   25,
	}
	return c
}
