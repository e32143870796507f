// Package scoring computes per-dimension match scores for one agent/gig pair
// and combines them through the gig's weight vector.
package scoring

import (
	"math"
	"time"
	_ "time/tzdata" // IANA zones for hosts without a zoneinfo database

	"github.com/okian/gigmatch/internal/domain/model"
)

const (
	maxScore     = 100.0
	neutralScore = 50.0
)

// Scorer turns an agent/gig pair into a MatchResult.
type Scorer interface {
	Score(agent model.Agent, gig model.Gig, weights model.Weights) model.MatchResult
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithReferenceTime fixes the instant used to resolve timezone offsets.
// Without it the offsets are taken at construction time.
func WithReferenceTime(t time.Time) Option {
	return func(c *Calculator) {
		if !t.IsZero() {
			c.ref = t
		}
	}
}

// WithLocationLoader replaces time.LoadLocation.
func WithLocationLoader(fn func(name string) (*time.Location, error)) Option {
	return func(c *Calculator) {
		if fn != nil {
			c.loadLocation = fn
		}
	}
}

// Calculator implements Scorer. It holds no mutable state and is safe for
// concurrent use.
type Calculator struct {
	ref          time.Time
	loadLocation func(name string) (*time.Location, error)
}

// NewCalculator creates a new calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		ref:          time.Now(),
		loadLocation: time.LoadLocation,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score computes the eight sub-scores and the weighted total.
// Dimensions whose input fails validation score 0 and are reported in Issues.
func (c *Calculator) Score(agent model.Agent, gig model.Gig, weights model.Weights) model.MatchResult {
	in := c.prepare(agent, gig)

	scores := make(map[model.Dimension]float64, len(model.Dimensions))
	for _, d := range model.Dimensions {
		if in.isFailed(d) {
			scores[d] = 0
			continue
		}
		scores[d] = clamp(in.score(d))
	}

	total := Combine(scores, weights)
	return model.MatchResult{
		AgentID:         agent.ID,
		GigID:           gig.ID,
		TotalScore:      total,
		DimensionScores: scores,
		Bucket:          model.BucketFor(total),
		Issues:          in.issues,
	}
}

// Combine returns round(Σ s·w / Σ w), or 0 when the weights sum to zero.
func Combine(scores map[model.Dimension]float64, weights model.Weights) int {
	sum := weights.Sum()
	if sum <= 0 {
		return 0
	}
	var acc float64
	for _, d := range model.Dimensions {
		acc += scores[d] * weights.Of(d)
	}
	// math.Round rounds half away from zero.
	return int(clamp(math.Round(acc / sum)))
}

// FailClosed returns a zero-score result carrying a single candidate-level issue.
func FailClosed(agentID, gigID, reason string) model.MatchResult {
	scores := make(map[model.Dimension]float64, len(model.Dimensions))
	for _, d := range model.Dimensions {
		scores[d] = 0
	}
	return model.MatchResult{
		AgentID:         agentID,
		GigID:           gigID,
		DimensionScores: scores,
		Bucket:          model.BucketPoor,
		Issues:          []model.Issue{{Message: reason}},
	}
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > maxScore:
		return maxScore
	}
	return v
}
