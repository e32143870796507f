package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/tracing"
)

const engagementColumns = `id, gig_id, agent_id, status, match_snapshot, notes, created_at, updated_at`

const (
	insertEngagement = `INSERT INTO engagements (` + engagementColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	selectEngagement = `SELECT ` + engagementColumns + ` FROM engagements WHERE id = $1`

	casEngagementStatus = `UPDATE engagements SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2
RETURNING ` + engagementColumns

	updateEngagementNotes = `UPDATE engagements SET notes = $2, updated_at = $3
WHERE id = $1
RETURNING ` + engagementColumns

	engagementExists = `SELECT EXISTS (SELECT 1 FROM engagements WHERE id = $1)`
)

// PostgresEngagementStore persists engagements in the engagements table.
type PostgresEngagementStore struct {
	db *sql.DB
}

// NewPostgresEngagementStore wraps an open database.
func NewPostgresEngagementStore(db *sql.DB) *PostgresEngagementStore {
	return &PostgresEngagementStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEngagement(row rowScanner) (engagement.Engagement, error) {
	var (
		e        engagement.Engagement
		status   string
		snapshot []byte
	)
	if err := row.Scan(&e.ID, &e.GigID, &e.AgentID, &status, &snapshot, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return engagement.Engagement{}, err
	}
	e.Status = engagement.Status(status)
	if len(snapshot) > 0 {
		var m model.MatchResult
		if err := json.Unmarshal(snapshot, &m); err != nil {
			return engagement.Engagement{}, fmt.Errorf("decode match snapshot of %s: %w", e.ID, err)
		}
		e.MatchSnapshot = &m
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

// Insert implements engagement.Store.
func (s *PostgresEngagementStore) Insert(ctx context.Context, e engagement.Engagement) (err error) {
	ctx, span := tracing.Start(ctx, "repository.engagements.insert")
	defer func() { tracing.End(span, err) }()

	var snapshot []byte
	if e.MatchSnapshot != nil {
		if snapshot, err = json.Marshal(e.MatchSnapshot); err != nil {
			return fmt.Errorf("encode match snapshot: %w", err)
		}
	}
	_, err = s.db.ExecContext(ctx, insertEngagement,
		e.ID, e.GigID, e.AgentID, string(e.Status), snapshot, e.Notes, e.CreatedAt, e.UpdatedAt)
	if isUniqueViolation(err) {
		return engagement.ErrDuplicateRelationship
	}
	if err != nil {
		return fmt.Errorf("insert engagement: %w", err)
	}
	return nil
}

// Get implements engagement.Store.
func (s *PostgresEngagementStore) Get(ctx context.Context, id string) (engagement.Engagement, error) {
	e, err := scanEngagement(s.db.QueryRowContext(ctx, selectEngagement, id))
	if errors.Is(err, sql.ErrNoRows) {
		return engagement.Engagement{}, fmt.Errorf("engagement %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return engagement.Engagement{}, fmt.Errorf("select engagement %s: %w", id, err)
	}
	return e, nil
}

// UpdateStatus implements engagement.Store with a compare-and-set on status.
func (s *PostgresEngagementStore) UpdateStatus(ctx context.Context, id string, from, to engagement.Status, at time.Time) (_ engagement.Engagement, err error) {
	ctx, span := tracing.Start(ctx, "repository.engagements.update_status")
	defer func() { tracing.End(span, err) }()

	e, err := scanEngagement(s.db.QueryRowContext(ctx, casEngagementStatus, id, string(from), string(to), at))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return engagement.Engagement{}, fmt.Errorf("update engagement %s: %w", id, err)
	}

	var exists bool
	if err = s.db.QueryRowContext(ctx, engagementExists, id).Scan(&exists); err != nil {
		return engagement.Engagement{}, fmt.Errorf("check engagement %s: %w", id, err)
	}
	if !exists {
		return engagement.Engagement{}, fmt.Errorf("engagement %s: %w", id, model.ErrNotFound)
	}
	return engagement.Engagement{}, engagement.ErrStatusConflict
}

// UpdateNotes implements engagement.Store.
func (s *PostgresEngagementStore) UpdateNotes(ctx context.Context, id, notes string, at time.Time) (engagement.Engagement, error) {
	e, err := scanEngagement(s.db.QueryRowContext(ctx, updateEngagementNotes, id, notes, at))
	if errors.Is(err, sql.ErrNoRows) {
		return engagement.Engagement{}, fmt.Errorf("engagement %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return engagement.Engagement{}, fmt.Errorf("update engagement notes %s: %w", id, err)
	}
	return e, nil
}

// List implements engagement.Store.
func (s *PostgresEngagementStore) List(ctx context.Context, q engagement.Query) (_ []engagement.Engagement, err error) {
	ctx, span := tracing.Start(ctx, "repository.engagements.list")
	defer func() { tracing.End(span, err) }()

	query, args := listQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list engagements: %w", err)
	}
	defer rows.Close()

	out := make([]engagement.Engagement, 0)
	for rows.Next() {
		e, err := scanEngagement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan engagement: %w", err)
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list engagements: %w", err)
	}
	return out, nil
}

func listQuery(q engagement.Query) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if q.GigID != "" {
		add("gig_id = $%d", q.GigID)
	}
	if q.AgentID != "" {
		add("agent_id = $%d", q.AgentID)
	}
	if len(q.Filter.Statuses) > 0 {
		statuses := make([]string, len(q.Filter.Statuses))
		for i, st := range q.Filter.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}

	var b strings.Builder
	b.WriteString("SELECT " + engagementColumns + " FROM engagements")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at, id")
	return b.String(), args
}
