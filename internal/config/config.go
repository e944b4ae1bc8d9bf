// Package config defines service configuration structures and loading hooks.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the PostgreSQL connection string. When empty the
	// service runs on the in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// QueueSize bounds the in-memory rating event queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of read-model workers.
	WorkerCount int `koanf:"worker_count"`

	// BallotCacheSize bounds the matchup token guard.
	BallotCacheSize int `koanf:"ballot_cache_size"`

	// MaxLeaderboardLimit caps GET /rankings?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SeedEntities lists entity names created at startup when the store is
	// empty. Useful for demos and local development.
	SeedEntities []string `koanf:"seed_entities"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU(),
		BallotCacheSize:     100_000,
		MaxLeaderboardLimit: 500,
	}
}
