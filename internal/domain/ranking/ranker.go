// Package ranking scores a candidate pool against one gig, orders it and
// splits it into buckets.
package ranking

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
	"github.com/okian/gigmatch/pkg/tracing"
)

// PreferredLimit caps the preferred subset.
const PreferredLimit = 5

// DeadlineIssue is recorded on candidates left unscored when the request deadline expires.
const DeadlineIssue = "scoring deadline exceeded"

// Dispatcher hands scoring jobs to a worker pool.
type Dispatcher interface {
	Enqueue(ctx context.Context, j queue.Job) bool
}

// Result is a ranked, bucketed candidate pool.
type Result struct {
	TotalMatches      int                 `json:"totalMatches"`
	PerfectMatches    int                 `json:"perfectMatches"`
	PartialMatches    int                 `json:"partialMatches"`
	BorderlineMatches int                 `json:"borderlineMatches"`
	NoMatches         int                 `json:"noMatches"`
	PreferredMatches  []model.MatchResult `json:"preferredMatches"`
	Matches           []model.MatchResult `json:"matches"`
}

// Ranker drives a Scorer over a candidate pool.
type Ranker struct {
	scorer     scoring.Scorer
	dispatcher Dispatcher
	threshold  int
	logger     logger.Logger
}

// New creates a ranker scoring with s.
func New(s scoring.Scorer, opts ...Option) *Ranker {
	r := &Ranker{scorer: s}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("ranker")
	}
	return r
}

// Rank scores every distinct candidate, sorts by total score descending with
// ties on agent id ascending, and buckets the result. It always returns a
// complete result: candidates not scored before ctx ends are failed closed.
func (r *Ranker) Rank(ctx context.Context, gig model.Gig, weights model.Weights, candidates []model.Agent) Result {
	start := time.Now()
	metrics.RecordRankRequest()

	pool := distinct(candidates)

	ctx, span := tracing.Start(ctx, "ranking.Rank",
		attribute.String("gig_id", gig.ID),
		attribute.Int("candidates", len(pool)),
	)
	defer span.End()

	var results []model.MatchResult
	if r.dispatcher != nil && len(pool) >= r.threshold && len(pool) > 0 {
		results = r.fanOut(ctx, &gig, weights, pool)
	} else {
		results = r.inline(ctx, &gig, weights, pool)
	}

	out := assemble(results)
	r.observe(ctx, gig.ID, out)

	span.SetAttributes(
		attribute.Int("perfect", out.PerfectMatches),
		attribute.Int("no_matches", out.NoMatches),
	)
	metrics.RecordRankLatency(float64(time.Since(start).Microseconds()) / 1000)
	return out
}

// distinct drops repeated agent ids; the first occurrence wins.
func distinct(candidates []model.Agent) []model.Agent {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]model.Agent, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (r *Ranker) inline(ctx context.Context, gig *model.Gig, w model.Weights, pool []model.Agent) []model.MatchResult {
	results := make([]model.MatchResult, len(pool))
	for i := range pool {
		if ctx.Err() != nil {
			missed := len(pool) - i
			for ; i < len(pool); i++ {
				results[i] = scoring.FailClosed(pool[i].ID, gig.ID, DeadlineIssue)
			}
			r.deadlineExceeded(ctx, gig.ID, missed)
			break
		}
		results[i] = r.scoreOne(pool[i], gig, w)
	}
	return results
}

func (r *Ranker) scoreOne(agent model.Agent, gig *model.Gig, w model.Weights) model.MatchResult {
	start := time.Now()
	res := r.scorer.Score(agent, *gig, w)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordCandidateScored()
	return res
}

// collector receives results from workers until it is sealed.
type collector struct {
	mu        sync.Mutex
	results   []model.MatchResult
	filled    []bool
	remaining int
	sealed    bool
	complete  chan struct{}
}

func newCollector(n int) *collector {
	return &collector{
		results:   make([]model.MatchResult, n),
		filled:    make([]bool, n),
		remaining: n,
		complete:  make(chan struct{}),
	}
}

func (c *collector) deliver(i int, res model.MatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed || c.filled[i] {
		return
	}
	c.results[i] = res
	c.filled[i] = true
	c.remaining--
	if c.remaining == 0 {
		close(c.complete)
	}
}

// seal stops accepting deliveries and returns the indexes still missing.
func (c *collector) seal() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
	var missing []int
	for i, ok := range c.filled {
		if !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

func (r *Ranker) fanOut(ctx context.Context, gig *model.Gig, w model.Weights, pool []model.Agent) []model.MatchResult {
	c := newCollector(len(pool))
	abandon := make(chan struct{})
	defer close(abandon)

	for i := range pool {
		job := queue.Job{
			Index:   i,
			Agent:   pool[i],
			Gig:     gig,
			Weights: w,
			Done:    abandon,
			Deliver: c.deliver,
		}
		if r.dispatcher.Enqueue(ctx, job) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		// Queue full: score here rather than drop the candidate.
		metrics.RecordInlineFallback()
		c.deliver(i, r.scoreOne(pool[i], gig, w))
	}

	select {
	case <-c.complete:
	case <-ctx.Done():
	}

	missing := c.seal()
	for _, i := range missing {
		c.results[i] = scoring.FailClosed(pool[i].ID, gig.ID, DeadlineIssue)
	}
	if len(missing) > 0 {
		r.deadlineExceeded(ctx, gig.ID, len(missing))
	}
	return c.results
}

func (r *Ranker) deadlineExceeded(ctx context.Context, gigID string, n int) {
	metrics.RecordScoringDeadlineExceeded(n)
	r.logger.Warn(ctx, "ranking deadline exceeded; unscored candidates failed closed",
		logger.String("gig_id", gigID),
		logger.Int("unscored", n),
	)
}

// assemble sorts results and derives bucket counts and the preferred prefix.
func assemble(results []model.MatchResult) Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].AgentID < results[j].AgentID
	})

	out := Result{
		TotalMatches:     len(results),
		Matches:          results,
		PreferredMatches: make([]model.MatchResult, 0, PreferredLimit),
	}
	for i := range results {
		results[i].Bucket = model.BucketFor(results[i].TotalScore)
		switch results[i].Bucket {
		case model.BucketPerfect:
			out.PerfectMatches++
		case model.BucketPartial:
			out.PartialMatches++
		case model.BucketBorderline:
			out.BorderlineMatches++
		case model.BucketPoor:
			out.NoMatches++
		}
	}
	out.PreferredMatches = append(out.PreferredMatches, results[:min(PreferredLimit, len(results))]...)
	return out
}

func (r *Ranker) observe(ctx context.Context, gigID string, out Result) {
	for _, m := range out.Matches {
		metrics.RecordMatchBucket(string(m.Bucket))
		for _, is := range m.Issues {
			if is.Dimension == "" {
				continue
			}
			metrics.RecordDimensionFailure(string(is.Dimension))
			r.logger.Debug(ctx, "dimension failed closed",
				logger.String("gig_id", gigID),
				logger.String("agent_id", m.AgentID),
				logger.String("dimension", string(is.Dimension)),
				logger.String("issue", is.Message),
			)
		}
	}
}
