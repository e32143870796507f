package model

// Bucket is a named score band of a ranking.
type Bucket string

// Buckets and their lower bounds.
const (
	BucketPerfect    Bucket = "perfect"
	BucketPartial    Bucket = "partial"
	BucketBorderline Bucket = "borderline"
	BucketPoor       Bucket = "poor"

	PerfectThreshold    = 95
	PartialThreshold    = 70
	BorderlineThreshold = 50
)

// BucketFor classifies a total score.
func BucketFor(score int) Bucket {
	switch {
	case score >= PerfectThreshold:
		return BucketPerfect
	case score >= PartialThreshold:
		return BucketPartial
	case score >= BorderlineThreshold:
		return BucketBorderline
	default:
		return BucketPoor
	}
}

// Issue records a data problem that forced a dimension, or the whole
// candidate when Dimension is empty, to score 0.
type Issue struct {
	Dimension Dimension `json:"dimension,omitempty"`
	Message   string    `json:"message"`
}

// MatchResult is the score of one agent against one gig.
type MatchResult struct {
	AgentID         string                `json:"agentId"`
	GigID           string                `json:"gigId"`
	TotalScore      int                   `json:"totalScore"`
	DimensionScores map[Dimension]float64 `json:"dimensionScores"`
	Bucket          Bucket                `json:"bucket,omitempty"`
	Issues          []Issue               `json:"issues,omitempty"`
}
