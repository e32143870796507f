// Package engagement tracks the relationship between one gig and one agent
// through an explicit allowed-edge state machine.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

// maxCASRetries bounds re-reads after a concurrent status change.
const maxCASRetries = 3

// Engagement is the persisted gig/agent relationship.
type Engagement struct {
	ID            string             `json:"id"`
	GigID         string             `json:"gigId"`
	AgentID       string             `json:"agentId"`
	Status        Status             `json:"status"`
	MatchSnapshot *model.MatchResult `json:"matchSnapshot,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Query selects engagements of one gig or one agent.
type Query struct {
	GigID   string
	AgentID string
	Filter  Filter
}

// Store persists engagements. Implementations enforce one record per
// (gig, agent) pair and order lists by CreatedAt then ID.
type Store interface {
	// Insert writes e or fails with ErrDuplicateRelationship, writing nothing.
	Insert(ctx context.Context, e Engagement) error
	// Get returns model.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Engagement, error)
	// UpdateStatus sets status to `to` only if it currently equals `from`,
	// failing with ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (Engagement, error)
	// UpdateNotes replaces the free-text notes.
	UpdateNotes(ctx context.Context, id, notes string, at time.Time) (Engagement, error)
	// List returns matching engagements.
	List(ctx context.Context, q Query) ([]Engagement, error)
}

// CreateRequest carries the fields of a new engagement.
type CreateRequest struct {
	GigID         string             `json:"gigId"`
	AgentID       string             `json:"agentId"`
	Status        Status             `json:"status"`
	MatchSnapshot *model.MatchResult `json:"matchSnapshot,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// Tracker applies the state machine over a Store.
type Tracker struct {
	store  Store
	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTracker creates a tracker over store.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("engagement")
	}
	return t
}

// Create records a new engagement in one of the initial statuses.
func (t *Tracker) Create(ctx context.Context, req CreateRequest) (Engagement, error) {
	gigID, agentID := strings.TrimSpace(req.GigID), strings.TrimSpace(req.AgentID)
	if gigID == "" || agentID == "" {
		return Engagement{}, fmt.Errorf("%w: gigId and agentId are required", model.ErrValidation)
	}
	if !initial[req.Status] {
		return Engagement{}, fmt.Errorf("%w: %q is not a valid initial status", model.ErrValidation, req.Status)
	}
	if s := req.MatchSnapshot; s != nil && (s.GigID != gigID || s.AgentID != agentID) {
		return Engagement{}, fmt.Errorf("%w: matchSnapshot belongs to a different pair", model.ErrValidation)
	}

	now := t.now()
	e := Engagement{
		ID:            t.newID(),
		GigID:         gigID,
		AgentID:       agentID,
		Status:        req.Status,
		MatchSnapshot: req.MatchSnapshot,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := t.store.Insert(ctx, e); err != nil {
		if errors.Is(err, ErrDuplicateRelationship) {
			metrics.RecordErrorByComponent("engagement", "duplicate_relationship")
		}
		return Engagement{}, fmt.Errorf("create engagement %s/%s: %w", gigID, agentID, err)
	}

	metrics.RecordEngagementCreated()
	t.logger.Info(ctx, "engagement created",
		logger.String("id", e.ID),
		logger.String("gig_id", gigID),
		logger.String("agent_id", agentID),
		logger.String("status", string(e.Status)),
	)
	return e, nil
}

// Transition moves an engagement to status `to` along an allowed edge.
func (t *Tracker) Transition(ctx context.Context, id string, to Status) (Engagement, error) {
	if !to.Valid() {
		return Engagement{}, fmt.Errorf("%w: unknown status %q", model.ErrValidation, to)
	}

	for attempt := 0; ; attempt++ {
		cur, err := t.store.Get(ctx, id)
		if err != nil {
			return Engagement{}, fmt.Errorf("transition engagement %s: %w", id, err)
		}
		if !CanTransition(cur.Status, to) {
			metrics.RecordIllegalTransition()
			return Engagement{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, cur.Status, to)
		}

		updated, err := t.store.UpdateStatus(ctx, id, cur.Status, to, t.now())
		switch {
		case err == nil:
			metrics.RecordTransition(string(cur.Status), string(to))
			t.logger.Info(ctx, "engagement transitioned",
				logger.String("id", id),
				logger.String("from", string(cur.Status)),
				logger.String("to", string(to)),
			)
			return updated, nil
		case errors.Is(err, ErrStatusConflict) && attempt < maxCASRetries:
			t.logger.Debug(ctx, "engagement status changed concurrently; re-reading", logger.String("id", id))
			continue
		case errors.Is(err, ErrStatusConflict):
			metrics.RecordIllegalTransition()
			return Engagement{}, fmt.Errorf("%w: %s changed concurrently", ErrIllegalTransition, id)
		default:
			return Engagement{}, fmt.Errorf("transition engagement %s: %w", id, err)
		}
	}
}

// Annotate replaces the notes of an engagement.
func (t *Tracker) Annotate(ctx context.Context, id, notes string) (Engagement, error) {
	e, err := t.store.UpdateNotes(ctx, id, notes, t.now())
	if err != nil {
		return Engagement{}, fmt.Errorf("annotate engagement %s: %w", id, err)
	}
	return e, nil
}

// Get returns one engagement.
func (t *Tracker) Get(ctx context.Context, id string) (Engagement, error) {
	e, err := t.store.Get(ctx, id)
	if err != nil {
		return Engagement{}, fmt.Errorf("get engagement %s: %w", id, err)
	}
	return e, nil
}

// ListByGig returns the engagements of a gig passing f.
func (t *Tracker) ListByGig(ctx context.Context, gigID string, f Filter) ([]Engagement, error) {
	if strings.TrimSpace(gigID) == "" {
		return nil, fmt.Errorf("%w: gigId is required", model.ErrValidation)
	}
	return t.list(ctx, Query{GigID: gigID, Filter: f})
}

// ListByAgent returns the engagements of an agent passing f.
func (t *Tracker) ListByAgent(ctx context.Context, agentID string, f Filter) ([]Engagement, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, fmt.Errorf("%w: agentId is required", model.ErrValidation)
	}
	return t.list(ctx, Query{AgentID: agentID, Filter: f})
}

func (t *Tracker) list(ctx context.Context, q Query) ([]Engagement, error) {
	out, err := t.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list engagements: %w", err)
	}
	if out == nil {
		out = []Engagement{}
	}
	return out, nil
}
