package loadgen

import (
	"time"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumGigs    int           // Number of gigs to rank
	NumAgents  int           // Size of the candidate pool sent with every rank request
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; 0 picks one from the clock
	OutputFile string        // Optional file receiving the generated gigs and agents
	Verbose    bool          // Log every failed request
}

// Dataset is the synthetic input of a run.
type Dataset struct {
	Gigs   []GigCase     `json:"gigs"`
	Agents []model.Agent `json:"agents"`
}

// GigCase is one gig and the weights stored for it.
type GigCase struct {
	Gig     model.Gig     `json:"gig"`
	Weights model.Weights `json:"weights"`
}

// Stats holds run statistics.
type Stats struct {
	GigsConfigured     int
	RankRequests       int
	RankFailures       int
	CandidatesScored   int
	PreferredMatches   int
	InvariantFailures  int
	EngagementsCreated int
	DuplicatesRefused  int
	TransitionsApplied int
	RequestsFailed     int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
