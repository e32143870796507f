package repository

import (
	"time"

	"github.com/okian/gigmatch/pkg/logger"
)

const (
	defaultCacheTTL    = 5 * time.Minute
	defaultCachePrefix = "gigmatch"
)

type cacheConfig struct {
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func newCacheConfig(name string, opts []CacheOption) cacheConfig {
	c := cacheConfig{
		ttl:    defaultCacheTTL,
		prefix: defaultCachePrefix,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named(name)
	}
	return c
}

// CacheOption configures a redis-backed decorator.
type CacheOption func(*cacheConfig)

// WithTTL sets the expiry of cached entries.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *cacheConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix replaces the "gigmatch" key prefix.
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *cacheConfig) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) CacheOption {
	return func(c *cacheConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
