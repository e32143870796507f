package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const weightsCache = "weights"

// CachedWeightStore reads through redis in front of another WeightStore.
// Writes go to the inner store first and then invalidate the key. A key whose
// invalidation failed is marked stale and served from the inner store until a
// later delete succeeds. Redis failures are logged and never returned.
type CachedWeightStore struct {
	inner  WeightStore
	client redis.Cmdable
	cfg    cacheConfig

	mu    sync.Mutex
	gen   map[string]uint64
	stale map[string]struct{}
}

// NewCachedWeightStore decorates inner with a redis cache.
func NewCachedWeightStore(inner WeightStore, client redis.Cmdable, opts ...CacheOption) *CachedWeightStore {
	return &CachedWeightStore{
		inner:  inner,
		client: client,
		cfg:    newCacheConfig("weights_cache", opts),
		gen:    make(map[string]uint64),
		stale:  make(map[string]struct{}),
	}
}

func (s *CachedWeightStore) key(gigID string) string {
	return s.cfg.prefix + ":weights:" + gigID
}

// Get implements WeightStore.
func (s *CachedWeightStore) Get(ctx context.Context, gigID string) (model.Weights, error) {
	if s.isStale(ctx, gigID) {
		metrics.RecordCacheLookup(weightsCache, "bypass")
		return s.inner.Get(ctx, gigID)
	}

	raw, err := s.client.Get(ctx, s.key(gigID)).Bytes()
	switch {
	case err == nil:
		var w model.Weights
		if jerr := json.Unmarshal(raw, &w); jerr == nil {
			metrics.RecordCacheLookup(weightsCache, "hit")
			return w, nil
		}
		s.cfg.logger.Warn(ctx, "discarding undecodable cached weights", logger.String("gig_id", gigID))
	case errors.Is(err, redis.Nil):
	default:
		metrics.RecordCacheLookup(weightsCache, "error")
		s.cfg.logger.Warn(ctx, "weights cache read failed", logger.String("gig_id", gigID), logger.Error(err))
		return s.inner.Get(ctx, gigID)
	}

	metrics.RecordCacheLookup(weightsCache, "miss")
	s.mu.Lock()
	seen := s.gen[gigID]
	s.mu.Unlock()

	w, err := s.inner.Get(ctx, gigID)
	if err != nil {
		return model.Weights{}, err
	}
	s.fill(ctx, gigID, w, seen)
	return w, nil
}

// Put implements WeightStore.
func (s *CachedWeightStore) Put(ctx context.Context, gigID string, w model.Weights) (model.Weights, error) {
	stored, err := s.inner.Put(ctx, gigID, w)
	if err != nil {
		return model.Weights{}, err
	}
	s.invalidate(ctx, gigID)
	return stored, nil
}

// Delete implements WeightStore.
func (s *CachedWeightStore) Delete(ctx context.Context, gigID string) error {
	if err := s.inner.Delete(ctx, gigID); err != nil {
		return err
	}
	s.invalidate(ctx, gigID)
	return nil
}

// Count implements WeightStore.
func (s *CachedWeightStore) Count(ctx context.Context) (int, error) {
	return s.inner.Count(ctx)
}

// fill caches w unless a write to gigID happened since generation seen was read.
// The check and the SET share the lock that invalidate bumps the generation
// under, so a fill either lands before the invalidating DEL or is skipped.
func (s *CachedWeightStore) fill(ctx context.Context, gigID string, w model.Weights, seen uint64) {
	raw, err := json.Marshal(w)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[gigID] != seen {
		return
	}
	if err := s.client.Set(ctx, s.key(gigID), raw, s.cfg.ttl).Err(); err != nil {
		s.cfg.logger.Warn(ctx, "weights cache write failed", logger.String("gig_id", gigID), logger.Error(err))
	}
}

// invalidate bumps the generation of gigID and deletes its cache entry. When
// the DEL fails the key is marked stale.
func (s *CachedWeightStore) invalidate(ctx context.Context, gigID string) {
	s.mu.Lock()
	s.gen[gigID]++
	s.mu.Unlock()

	if err := s.client.Del(ctx, s.key(gigID)).Err(); err != nil {
		metrics.RecordCacheLookup(weightsCache, "invalidate_error")
		s.cfg.logger.Warn(ctx, "weights cache invalidation failed; bypassing cache for gig",
			logger.String("gig_id", gigID), logger.Error(err))
		s.mu.Lock()
		s.stale[gigID] = struct{}{}
		s.mu.Unlock()
	}
}

// isStale reports whether gigID must bypass the cache. A stale key is retried
// with DEL and cleared once the entry is gone.
func (s *CachedWeightStore) isStale(ctx context.Context, gigID string) bool {
	s.mu.Lock()
	_, stale := s.stale[gigID]
	s.mu.Unlock()
	if !stale {
		return false
	}
	if err := s.client.Del(ctx, s.key(gigID)).Err(); err != nil {
		return true
	}

	s.mu.Lock()
	delete(s.stale, gigID)
	s.gen[gigID]++
	s.mu.Unlock()
	return true
}
