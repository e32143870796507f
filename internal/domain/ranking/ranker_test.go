package ranking_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/adapters/mq/worker"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedScorer returns a preset total per agent id.
type fixedScorer map[string]int

func (f fixedScorer) Score(agent model.Agent, gig model.Gig, _ model.Weights) model.MatchResult {
	return model.MatchResult{AgentID: agent.ID, GigID: gig.ID, TotalScore: f[agent.ID]}
}

// countingScorer records how often each agent was scored.
type countingScorer struct {
	calls map[string]int
}

func (c *countingScorer) Score(agent model.Agent, gig model.Gig, _ model.Weights) model.MatchResult {
	c.calls[agent.ID]++
	return model.MatchResult{AgentID: agent.ID, GigID: gig.ID, TotalScore: 10}
}

// fullDispatcher rejects every job.
type fullDispatcher struct{}

func (fullDispatcher) Enqueue(context.Context, queue.Job) bool { return false }

// blackHole accepts jobs and never scores them.
type blackHole struct{}

func (blackHole) Enqueue(context.Context, queue.Job) bool { return true }

func agents(ids ...string) []model.Agent {
	out := make([]model.Agent, len(ids))
	for i, id := range ids {
		out[i] = model.Agent{ID: id}
	}
	return out
}

func TestRanker_Ordering(t *testing.T) {
	Convey("Given a ranker with preset scores", t, func() {
		_ = logger.Init()
		scores := fixedScorer{"a": 50, "b": 97, "c": 50, "d": 72, "e": 10, "f": 69, "g": 95}
		r := ranking.New(scores)

		res := r.Rank(context.Background(), model.Gig{ID: "g1"}, model.Weights{Skills: 1},
			agents("e", "c", "a", "b", "g", "f", "d"))

		Convey("Then matches should be sorted by score desc then id asc", func() {
			ids := make([]string, 0, len(res.Matches))
			for _, m := range res.Matches {
				ids = append(ids, m.AgentID)
			}
			So(ids, ShouldResemble, []string{"b", "g", "d", "f", "a", "c", "e"})
		})

		Convey("Then buckets should be counted with the borderline band named", func() {
			So(res.TotalMatches, ShouldEqual, 7)
			So(res.PerfectMatches, ShouldEqual, 2)
			So(res.PartialMatches, ShouldEqual, 1)
			So(res.BorderlineMatches, ShouldEqual, 3)
			So(res.NoMatches, ShouldEqual, 1)
			So(res.PerfectMatches+res.PartialMatches+res.NoMatches, ShouldBeLessThanOrEqualTo, res.TotalMatches)
			So(res.Matches[3].Bucket, ShouldEqual, model.BucketBorderline)
		})

		Convey("Then preferred should be the first five matches", func() {
			So(len(res.PreferredMatches), ShouldEqual, ranking.PreferredLimit)
			So(res.PreferredMatches, ShouldResemble, res.Matches[:5])
		})
	})
}

func TestRanker_EdgeCases(t *testing.T) {
	Convey("Given a ranker over the real calculator", t, func() {
		_ = logger.Init()
		r := ranking.New(scoring.NewCalculator())

		Convey("When the pool is empty", func() {
			res := r.Rank(context.Background(), model.Gig{}, model.Weights{Skills: 1}, nil)

			Convey("Then every count should be zero and arrays empty", func() {
				So(res.TotalMatches, ShouldEqual, 0)
				So(res.PerfectMatches, ShouldEqual, 0)
				So(res.PartialMatches, ShouldEqual, 0)
				So(res.NoMatches, ShouldEqual, 0)
				So(res.PreferredMatches, ShouldNotBeNil)
				So(res.PreferredMatches, ShouldBeEmpty)
				So(res.Matches, ShouldNotBeNil)
				So(res.Matches, ShouldBeEmpty)
			})
		})

		Convey("When weights sum to zero", func() {
			res := r.Rank(context.Background(), model.Gig{}, model.Weights{}, agents("x", "y", "z"))

			Convey("Then every total should be zero", func() {
				for _, m := range res.Matches {
					So(m.TotalScore, ShouldEqual, 0)
				}
				So(res.NoMatches, ShouldEqual, 3)
			})
		})

		Convey("When fewer than five candidates are ranked", func() {
			res := r.Rank(context.Background(), model.Gig{}, model.Weights{Skills: 1}, agents("x", "y"))
			So(len(res.PreferredMatches), ShouldEqual, 2)
		})
	})

	Convey("Given a pool with repeated agent ids", t, func() {
		_ = logger.Init()
		counter := &countingScorer{calls: map[string]int{}}
		r := ranking.New(counter)

		res := r.Rank(context.Background(), model.Gig{}, model.Weights{Skills: 1}, agents("a", "b", "a", "a"))

		So(res.TotalMatches, ShouldEqual, 2)
		So(counter.calls["a"], ShouldEqual, 1)
	})
}

func TestRanker_Dispatch(t *testing.T) {
	Convey("Given a pool large enough to fan out", t, func() {
		_ = logger.Init()
		ids := make([]string, 40)
		scores := fixedScorer{}
		for i := range ids {
			ids[i] = fmt.Sprintf("agent-%02d", i)
			scores[ids[i]] = (i * 7) % 101
		}
		pool := agents(ids...)
		gig := model.Gig{ID: "g1"}
		w := model.Weights{Skills: 1}

		inline := ranking.New(scores).Rank(context.Background(), gig, w, pool)

		Convey("When a worker pool scores the jobs", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(16))
			workers := worker.NewPool(4, q, scores)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			workers.Start(ctx)

			res := ranking.New(scores, ranking.WithDispatcher(q, 10)).Rank(ctx, gig, w, pool)

			Convey("Then the result should equal inline ranking", func() {
				So(res, ShouldResemble, inline)
			})
		})

		Convey("When the queue is always full", func() {
			res := ranking.New(scores, ranking.WithDispatcher(fullDispatcher{}, 10)).
				Rank(context.Background(), gig, w, pool)

			Convey("Then every candidate should be scored inline", func() {
				So(res, ShouldResemble, inline)
			})
		})

		Convey("When the deadline expires before workers answer", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			res := ranking.New(scores, ranking.WithDispatcher(blackHole{}, 10)).Rank(ctx, gig, w, pool)

			Convey("Then every candidate should be failed closed", func() {
				So(res.TotalMatches, ShouldEqual, len(pool))
				So(res.NoMatches, ShouldEqual, len(pool))
				for _, m := range res.Matches {
					So(m.TotalScore, ShouldEqual, 0)
					So(m.Issues[0].Message, ShouldEqual, ranking.DeadlineIssue)
				}
				So(res.Matches[0].AgentID, ShouldEqual, "agent-00")
			})
		})

		Convey("When the pool is below the threshold", func() {
			res := ranking.New(scores, ranking.WithDispatcher(blackHole{}, 100)).
				Rank(context.Background(), gig, w, pool)

			Convey("Then it should be scored inline", func() {
				So(res, ShouldResemble, inline)
			})
		})
	})

	Convey("Given an already cancelled request scored inline", t, func() {
		_ = logger.Init()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := ranking.New(fixedScorer{"a": 90}).Rank(ctx, model.Gig{}, model.Weights{Skills: 1}, agents("a", "b"))

		So(res.TotalMatches, ShouldEqual, 2)
		So(res.Matches[0].Issues[0].Message, ShouldEqual, ranking.DeadlineIssue)
	})
}
