package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const aliasCache = "aliases"

// CachedAliasStore reads through redis in front of another AliasStore.
// Only resolved aliases are cached.
type CachedAliasStore struct {
	inner  AliasStore
	client redis.Cmdable
	cfg    cacheConfig
}

// NewCachedAliasStore decorates inner with a redis cache.
func NewCachedAliasStore(inner AliasStore, client redis.Cmdable, opts ...CacheOption) *CachedAliasStore {
	return &CachedAliasStore{
		inner:  inner,
		client: client,
		cfg:    newCacheConfig("alias_cache", opts),
	}
}

func (s *CachedAliasStore) key(kind, alias string) string {
	return s.cfg.prefix + ":alias:" + strings.ToLower(kind) + ":" + strings.ToLower(strings.TrimSpace(alias))
}

// Lookup implements AliasStore.
func (s *CachedAliasStore) Lookup(ctx context.Context, kind, alias string) (string, error) {
	key := s.key(kind, alias)
	canonical, err := s.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.RecordCacheLookup(aliasCache, "hit")
		return canonical, nil
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheLookup(aliasCache, "miss")
	default:
		metrics.RecordCacheLookup(aliasCache, "error")
		s.cfg.logger.Warn(ctx, "alias cache read failed", logger.String("key", key), logger.Error(err))
		return s.inner.Lookup(ctx, kind, alias)
	}

	canonical, err = s.inner.Lookup(ctx, kind, alias)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, key, canonical, s.cfg.ttl).Err(); err != nil {
		s.cfg.logger.Warn(ctx, "alias cache write failed", logger.String("key", key), logger.Error(err))
	}
	return canonical, nil
}
