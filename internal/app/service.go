// Package service wires the matching engine together and implements the
// dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/adapters/mq/worker"
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/config"
	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/internal/domain/reference"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/internal/domain/types"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
	"github.com/okian/gigmatch/pkg/tracing"
)

// Service implements the API dependencies for the matching engine.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Injected or in-memory stores; they outlive a Stop.
	baseWeights     repository.WeightStore
	baseEngagements engagement.Store
	baseResolver    reference.Resolver

	// Core components, rebuilt by every Start.
	weights     repository.WeightStore
	engagements engagement.Store
	resolver    reference.Resolver
	normalizer  *reference.Normalizer
	scorer      scoring.Scorer
	queue       *queue.InMemoryQueue
	pool        *worker.Pool
	ranker      *ranking.Ranker
	tracker     *engagement.Tracker
	trackerOpts []engagement.Option

	// Owned connections
	db    *sql.DB
	cache *redis.Client

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service from cfg. Components are built by Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the configured backends and starts the scoring pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting matching service...", logger.String("store", s.cfg.Store))

	if err := s.openBackends(ctx); err != nil {
		s.closeConnections(ctx)
		return err
	}

	if s.scorer == nil {
		s.scorer = scoring.NewCalculator()
	}
	s.normalizer = reference.NewNormalizer(s.resolver, s.logger.Named("reference"))

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	s.pool = worker.NewPool(s.cfg.WorkerCount, s.queue, s.scorer)
	s.pool.Start(context.WithoutCancel(ctx))

	s.ranker = ranking.New(s.scorer, ranking.WithDispatcher(s.queue, s.cfg.ParallelThreshold))
	s.tracker = engagement.NewTracker(s.engagements, s.trackerOpts...)

	if n, err := s.weights.Count(ctx); err == nil {
		metrics.UpdateWeightsTotal(n)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()),
		logger.Int("parallelThreshold", s.cfg.ParallelThreshold),
		logger.Any("cache", s.cache != nil),
	)
	return nil
}

// openBackends builds the stores for this run from the injected ones and the
// config. Connections it opens are owned by the service until Stop.
func (s *Service) openBackends(ctx context.Context) error {
	static := reference.FromStore(repository.NewMemoryAliasStore(s.cfg.ReferenceAliases))

	weights, engagements := s.baseWeights, s.baseEngagements
	var aliases repository.AliasStore
	switch s.cfg.Store {
	case config.StorePostgres:
		if weights == nil || engagements == nil || s.baseResolver == nil {
			db, err := repository.OpenPostgres(ctx, repository.PostgresConfig{
				DSN:      s.cfg.PostgresDSN,
				MaxConns: s.cfg.PostgresMaxConns,
				MaxIdle:  s.cfg.PostgresMaxIdle,
			})
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			s.db = db
		}
		if weights == nil {
			weights = repository.NewPostgresWeightStore(s.db)
		}
		if engagements == nil {
			engagements = repository.NewPostgresEngagementStore(s.db)
		}
		if s.db != nil {
			aliases = repository.NewPostgresAliasStore(s.db)
		}
	default:
		if s.baseWeights == nil {
			s.baseWeights = repository.NewMemoryWeightStore()
		}
		if s.baseEngagements == nil {
			s.baseEngagements = repository.NewMemoryEngagementStore()
		}
		weights, engagements = s.baseWeights, s.baseEngagements
	}

	if s.cfg.RedisAddr != "" {
		client, err := repository.OpenRedis(ctx, repository.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		s.cache = client
		ttl := repository.WithTTL(s.cfg.CacheTTL())
		weights = repository.NewCachedWeightStore(weights, client, ttl)
		if aliases != nil {
			aliases = repository.NewCachedAliasStore(aliases, client, ttl)
		}
	}

	resolver := s.baseResolver
	if resolver == nil {
		if aliases != nil {
			resolver = reference.Chain(reference.FromStore(aliases), static)
		} else {
			resolver = static
		}
	}

	s.weights, s.engagements, s.resolver = weights, engagements, resolver
	return nil
}

// Stop drains the scoring pool and closes owned connections.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping matching service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "scoring pool did not drain", logger.Error(err))
	}
	s.closeConnections(ctx)

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}

func (s *Service) closeConnections(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn(ctx, "closing redis", logger.Error(err))
		}
		s.cache = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn(ctx, "closing postgres", logger.Error(err))
		}
		s.db = nil
	}
}

// components is the set of collaborators one call works against.
type components struct {
	weights    repository.WeightStore
	normalizer *reference.Normalizer
	ranker     *ranking.Ranker
	tracker    *engagement.Tracker
}

// ready returns the running components, read under the lock so a call never
// sees a half-restarted service.
func (s *Service) ready() (components, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return components{}, ErrNotStarted
	}
	return components{
		weights:    s.weights,
		normalizer: s.normalizer,
		ranker:     s.ranker,
		tracker:    s.tracker,
	}, nil
}

func validGigID(gigID string) error {
	if strings.TrimSpace(gigID) == "" {
		return fmt.Errorf("%w: gigId is required", model.ErrValidation)
	}
	return nil
}

// ParseWeights decodes and validates a raw weight vector against max_weight.
func (s *Service) ParseWeights(raw []byte) (model.Weights, error) {
	return model.DecodeWeights(raw, s.cfg.MaxWeight)
}

// GetWeights returns the stored vector, or the zero vector when none is stored.
func (s *Service) GetWeights(ctx context.Context, gigID string) (types.WeightsView, error) {
	c, err := s.ready()
	if err != nil {
		return types.WeightsView{}, err
	}
	if err := validGigID(gigID); err != nil {
		return types.WeightsView{}, err
	}

	w, err := c.weights.Get(ctx, gigID)
	switch {
	case err == nil:
		metrics.RecordWeightOperation("get", "hit")
		return types.WeightsView{GigID: gigID, Weights: w, Configured: true}, nil
	case errors.Is(err, model.ErrNotFound):
		metrics.RecordWeightOperation("get", "default")
		return types.WeightsView{GigID: gigID}, nil
	default:
		metrics.RecordWeightOperation("get", "error")
		return types.WeightsView{}, fmt.Errorf("get weights: %w", err)
	}
}

// PutWeights validates and stores a full replacement vector.
func (s *Service) PutWeights(ctx context.Context, gigID string, w model.Weights) (types.WeightsView, error) {
	c, err := s.ready()
	if err != nil {
		return types.WeightsView{}, err
	}
	if err := validGigID(gigID); err != nil {
		return types.WeightsView{}, err
	}
	if err := w.Validate(s.cfg.MaxWeight); err != nil {
		metrics.RecordWeightOperation("put", "invalid")
		return types.WeightsView{}, err
	}

	stored, err := c.weights.Put(ctx, gigID, w)
	if err != nil {
		metrics.RecordWeightOperation("put", "error")
		return types.WeightsView{}, fmt.Errorf("put weights: %w", err)
	}
	metrics.RecordWeightOperation("put", "ok")
	s.logger.Info(ctx, "weights updated", logger.String("gig_id", gigID), logger.Float64("sum", stored.Sum()))
	return types.WeightsView{GigID: gigID, Weights: stored, Configured: true}, nil
}

// DeleteWeights resets a gig to the zero vector. Deleting twice is not an error.
func (s *Service) DeleteWeights(ctx context.Context, gigID string) error {
	c, err := s.ready()
	if err != nil {
		return err
	}
	if err := validGigID(gigID); err != nil {
		return err
	}
	if err := c.weights.Delete(ctx, gigID); err != nil {
		metrics.RecordWeightOperation("delete", "error")
		return fmt.Errorf("delete weights: %w", err)
	}
	metrics.RecordWeightOperation("delete", "ok")
	return nil
}

// Rank scores the candidate pool against the gig. Request weights take
// precedence over the stored vector.
func (s *Service) Rank(ctx context.Context, gigID string, req types.RankRequest) (ranking.Result, error) {
	c, err := s.ready()
	if err != nil {
		return ranking.Result{}, err
	}
	if req.Gig.ID == "" {
		req.Gig.ID = gigID
	}
	if err := validGigID(req.Gig.ID); err != nil {
		return ranking.Result{}, err
	}
	if gigID != "" && req.Gig.ID != gigID {
		return ranking.Result{}, fmt.Errorf("%w: %w", model.ErrValidation, ErrGigMismatch)
	}
	if n := len(req.Candidates); n > s.cfg.MaxCandidates {
		return ranking.Result{}, fmt.Errorf("%w: %d candidates exceed the limit of %d",
			model.ErrValidation, n, s.cfg.MaxCandidates)
	}

	ctx, span := tracing.Start(ctx, "service.Rank")
	defer func() { tracing.End(span, err) }()

	var w model.Weights
	if req.Weights != nil {
		if err = req.Weights.Validate(s.cfg.MaxWeight); err != nil {
			return ranking.Result{}, err
		}
		w = *req.Weights
	} else {
		var view types.WeightsView
		if view, err = s.GetWeights(ctx, req.Gig.ID); err != nil {
			return ranking.Result{}, err
		}
		w = view.Weights
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RankDeadline(len(req.Candidates)))
	defer cancel()

	gig, candidates := c.normalizer.Normalize(ctx, req.Gig, req.Candidates)
	return c.ranker.Rank(ctx, gig, w, candidates), nil
}

// CreateEngagement records a new gig/agent relationship.
func (s *Service) CreateEngagement(ctx context.Context, req engagement.CreateRequest) (engagement.Engagement, error) {
	c, err := s.ready()
	if err != nil {
		return engagement.Engagement{}, err
	}
	return c.tracker.Create(ctx, req)
}

// UpdateEngagement applies a status transition and/or a notes change.
func (s *Service) UpdateEngagement(ctx context.Context, id string, upd types.EngagementUpdate) (engagement.Engagement, error) {
	c, err := s.ready()
	if err != nil {
		return engagement.Engagement{}, err
	}
	if upd.Empty() {
		return engagement.Engagement{}, fmt.Errorf("%w: status or notes is required", model.ErrValidation)
	}

	var e engagement.Engagement
	if upd.Status != nil {
		if e, err = c.tracker.Transition(ctx, id, *upd.Status); err != nil {
			return engagement.Engagement{}, err
		}
	}
	if upd.Notes != nil {
		if e, err = c.tracker.Annotate(ctx, id, *upd.Notes); err != nil {
			return engagement.Engagement{}, err
		}
	}
	return e, nil
}

// GetEngagement returns one engagement.
func (s *Service) GetEngagement(ctx context.Context, id string) (engagement.Engagement, error) {
	c, err := s.ready()
	if err != nil {
		return engagement.Engagement{}, err
	}
	return c.tracker.Get(ctx, id)
}

// ListGigEngagements lists a gig's engagements filtered by a status list or cohort.
func (s *Service) ListGigEngagements(ctx context.Context, gigID, statuses, cohort string) ([]engagement.Engagement, error) {
	c, err := s.ready()
	if err != nil {
		return nil, err
	}
	f, err := engagement.ParseFilter(statuses, cohort)
	if err != nil {
		return nil, err
	}
	return c.tracker.ListByGig(ctx, gigID, f)
}

// ListAgentEngagements lists an agent's engagements filtered by a status list or cohort.
func (s *Service) ListAgentEngagements(ctx context.Context, agentID, statuses, cohort string) ([]engagement.Engagement, error) {
	c, err := s.ready()
	if err != nil {
		return nil, err
	}
	f, err := engagement.ParseFilter(statuses, cohort)
	if err != nil {
		return nil, err
	}
	return c.tracker.ListByAgent(ctx, agentID, f)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"store":             s.cfg.Store,
		"cacheEnabled":      s.cache != nil,
		"parallelThreshold": s.cfg.ParallelThreshold,
		"maxCandidates":     s.cfg.MaxCandidates,
	}

	if s.started {
		ctx := context.Background()
		queueLen := s.queue.Len(ctx)
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
		stats["workerCount"] = s.pool.Size()
		stats["queueCapacity"] = s.queue.Capacity()
		stats["queueLength"] = queueLen
		if n, err := s.weights.Count(ctx); err == nil {
			stats["weightsConfigured"] = n
			metrics.UpdateWeightsTotal(n)
		}
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
