// Package loadgen drives a running gigmatch service with synthetic gigs and
// agents and checks every ranking it gets back.
package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/internal/domain/types"
	"github.com/okian/gigmatch/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// counters are shared by the gig workers.
type counters struct {
	configured, rankRequests, rankFailures, scored, preferred atomic.Int64
	invariants, created, duplicates, transitions, failed      atomic.Int64
}

// Run executes a complete load run and returns its statistics. It fails when
// the service is unreachable or any ranking violates an invariant.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting gigmatch load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("gigs", cfg.NumGigs),
		logger.Int("agents", cfg.NumAgents),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if _, err := client.Do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate gigs and agents
	ds := NewGenerator(cfg.Seed).Dataset(cfg.NumGigs, cfg.NumAgents)
	if cfg.OutputFile != "" {
		if err := saveDataset(cfg.OutputFile, ds); err != nil {
			log.Warn(ctx, "failed to save dataset", logger.Error(err))
		}
	}

	// Step 3: Configure, rank and engage every gig concurrently
	var c counters
	jobs := make(chan GigCase, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gc := range jobs {
				if err := runGig(ctx, client, gc, ds.Agents, &c); err != nil {
					c.failed.Add(1)
					if errors.Is(err, ErrInvariant) {
						log.Error(ctx, "ranking failed verification", logger.String("gigId", gc.Gig.ID), logger.Error(err))
					} else if cfg.Verbose {
						log.Warn(ctx, "gig run failed", logger.String("gigId", gc.Gig.ID), logger.Error(err))
					}
				}
			}
		}()
	}

	go reportProgress(ctx, log, &c, len(ds.Gigs))

	go func() {
		defer close(jobs)
		for _, gc := range ds.Gigs {
			select {
			case <-ctx.Done():
				return
			case jobs <- gc:
			}
		}
	}()
	wg.Wait()

	stats.GigsConfigured = int(c.configured.Load())
	stats.RankRequests = int(c.rankRequests.Load())
	stats.RankFailures = int(c.rankFailures.Load())
	stats.CandidatesScored = int(c.scored.Load())
	stats.PreferredMatches = int(c.preferred.Load())
	stats.InvariantFailures = int(c.invariants.Load())
	stats.EngagementsCreated = int(c.created.Load())
	stats.DuplicatesRefused = int(c.duplicates.Load())
	stats.TransitionsApplied = int(c.transitions.Load())
	stats.RequestsFailed = int(c.failed.Load())
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("load run interrupted: %w", err)
	}
	if stats.InvariantFailures > 0 {
		return stats, fmt.Errorf("%w in %d rankings", ErrInvariant, stats.InvariantFailures)
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.NumGigs <= 0 {
		cfg.NumGigs = DefaultGigs
	}
	if cfg.NumAgents <= 0 {
		cfg.NumAgents = DefaultAgents
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * WorkerChannelMultiplier
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}

// runGig exercises one gig end to end: store its weights, read them back,
// rank the pool, then invite the top match and move it to applied.
func runGig(ctx context.Context, client *HTTPClient, gc GigCase, agents []model.Agent, c *counters) error {
	gigPath := "/gigs/" + url.PathEscape(gc.Gig.ID)

	if _, err := client.Do(ctx, http.MethodPut, gigPath+"/weights", gc.Weights, nil, http.StatusOK); err != nil {
		return err
	}
	var view types.WeightsView
	if _, err := client.Do(ctx, http.MethodGet, gigPath+"/weights", nil, &view, http.StatusOK); err != nil {
		return err
	}
	if !view.Configured || view.Weights != gc.Weights {
		return fmt.Errorf("weights for %s read back as %+v", gc.Gig.ID, view.Weights)
	}
	c.configured.Add(1)

	var res ranking.Result
	c.rankRequests.Add(1)
	if _, err := client.Do(ctx, http.MethodPost, gigPath+"/rank",
		types.RankRequest{Gig: gc.Gig, Candidates: agents}, &res, http.StatusOK); err != nil {
		c.rankFailures.Add(1)
		return err
	}
	c.scored.Add(int64(res.TotalMatches))
	c.preferred.Add(int64(len(res.PreferredMatches)))
	if err := VerifyRanking(res, len(agents), gc.Weights); err != nil {
		c.invariants.Add(1)
		return err
	}
	if len(res.PreferredMatches) == 0 {
		return nil
	}

	top := res.PreferredMatches[0]
	create := engagement.CreateRequest{
		GigID:         gc.Gig.ID,
		AgentID:       top.AgentID,
		Status:        engagement.StatusInvited,
		MatchSnapshot: &top,
	}
	var e engagement.Engagement
	if _, err := client.Do(ctx, http.MethodPost, "/engagements", create, &e, http.StatusCreated); err != nil {
		return err
	}
	c.created.Add(1)

	if _, err := client.Do(ctx, http.MethodPost, "/engagements", create, nil, http.StatusConflict); err != nil {
		return fmt.Errorf("second invite for %s/%s: %w", gc.Gig.ID, top.AgentID, err)
	}
	c.duplicates.Add(1)

	if _, err := client.Do(ctx, http.MethodPatch, "/engagements/"+url.PathEscape(e.ID),
		types.EngagementUpdate{Status: ptr(engagement.StatusApplied)}, &e, http.StatusOK); err != nil {
		return err
	}
	c.transitions.Add(1)

	var applicants []engagement.Engagement
	if _, err := client.Do(ctx, http.MethodGet, gigPath+"/engagements?cohort=applicants",
		nil, &applicants, http.StatusOK); err != nil {
		return err
	}
	if len(applicants) != 1 || applicants[0].ID != e.ID {
		return fmt.Errorf("applicants of %s: got %d engagements", gc.Gig.ID, len(applicants))
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func reportProgress(ctx context.Context, log logger.Logger, c *counters, total int) {
	t := time.NewTicker(progressInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			done := c.configured.Load() + c.failed.Load()
			log.Debug(ctx, "progress",
				logger.Int("done", int(done)),
				logger.Int("total", total),
				logger.Int("failed", int(c.failed.Load())))
			if int(done) >= total {
				return
			}
		}
	}
}

// saveDataset writes the generated input as indented JSON.
func saveDataset(filename string, ds Dataset) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, ranksPerSecond float64
	if stats.RankRequests > 0 {
		successRate = float64(stats.RankRequests-stats.RankFailures) / float64(stats.RankRequests) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		ranksPerSecond = float64(stats.RankRequests) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("gigsConfigured", stats.GigsConfigured),
		logger.Int("rankRequests", stats.RankRequests),
		logger.Int("rankFailures", stats.RankFailures),
		logger.Int("candidatesScored", stats.CandidatesScored),
		logger.Int("preferredMatches", stats.PreferredMatches),
		logger.Int("invariantFailures", stats.InvariantFailures),
		logger.Int("engagementsCreated", stats.EngagementsCreated),
		logger.Int("duplicatesRefused", stats.DuplicatesRefused),
		logger.Int("transitionsApplied", stats.TransitionsApplied),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("ranksPerSecond", ranksPerSecond))
}
