// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers file, .env and environment on top of New().
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the encoder: console or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory scoring job queue.
	QueueSize int `koanf:"queue_size"`

	// ParallelThreshold is the pool size at which ranking fans out to the workers.
	ParallelThreshold int `koanf:"parallel_threshold"`

	// MaxCandidates caps the candidate pool accepted by a single rank request.
	MaxCandidates int `koanf:"max_candidates"`

	// RankBaseTimeoutMS and RankTimeoutPerCandidateUS build the per-request deadline.
	RankBaseTimeoutMS         int `koanf:"rank_base_timeout_ms"`
	RankTimeoutPerCandidateUS int `koanf:"rank_timeout_per_candidate_us"`

	// MaxWeight is the inclusive upper bound of every weight.
	MaxWeight float64 `koanf:"max_weight"`

	// Store selects the persistence backend: memory or postgres.
	Store string `koanf:"store"`

	PostgresDSN      string `koanf:"postgres_dsn"`
	PostgresMaxConns int    `koanf:"postgres_max_conns"`
	PostgresMaxIdle  int    `koanf:"postgres_max_idle"`

	// RedisAddr enables the read-through cache when set.
	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`

	// TraceSampleRatio is the fraction of requests traced, 0 to 1.
	TraceSampleRatio float64 `koanf:"trace_sample_ratio"`

	// ReferenceAliases maps kind -> alias -> canonical id.
	ReferenceAliases map[string]map[string]string `koanf:"reference_aliases"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "console",
		Addr:                      ":9080",
		WorkerCount:               runtime.NumCPU() * 2,
		QueueSize:                 10_000,
		ParallelThreshold:         64,
		MaxCandidates:             5_000,
		RankBaseTimeoutMS:         500,
		RankTimeoutPerCandidateUS: 200,
		MaxWeight:                 1.0,
		Store:                     StoreMemory,
		PostgresMaxConns:          25,
		PostgresMaxIdle:           5,
		CacheTTLSeconds:           300,
		TraceSampleRatio:          1,
		ReferenceAliases:          map[string]map[string]string{},
	}
}

// RankDeadline returns the request deadline for a pool of n candidates.
func (c *Config) RankDeadline(n int) time.Duration {
	return time.Duration(c.RankBaseTimeoutMS)*time.Millisecond +
		time.Duration(n)*time.Duration(c.RankTimeoutPerCandidateUS)*time.Microsecond
}

// CacheTTL returns the redis entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.ParallelThreshold < 0:
		return fmt.Errorf("%w: parallel_threshold must not be negative", ErrInvalidConfig)
	case c.MaxCandidates <= 0:
		return fmt.Errorf("%w: max_candidates must be positive", ErrInvalidConfig)
	case c.RankBaseTimeoutMS <= 0 || c.RankTimeoutPerCandidateUS < 0:
		return fmt.Errorf("%w: rank timeouts must be positive", ErrInvalidConfig)
	case !(c.MaxWeight > 0):
		return fmt.Errorf("%w: max_weight must be positive", ErrInvalidConfig)
	case c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1:
		return fmt.Errorf("%w: trace_sample_ratio must be within [0, 1]", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	return nil
}
