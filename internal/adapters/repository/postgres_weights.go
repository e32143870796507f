package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/tracing"
)

const (
	selectWeights = `SELECT experience, skills, industry, languages, availability, timezone, activities, region
FROM gig_weights WHERE gig_id = $1`

	upsertWeights = `INSERT INTO gig_weights
(gig_id, experience, skills, industry, languages, availability, timezone, activities, region, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (gig_id) DO UPDATE SET
experience = EXCLUDED.experience, skills = EXCLUDED.skills, industry = EXCLUDED.industry,
languages = EXCLUDED.languages, availability = EXCLUDED.availability, timezone = EXCLUDED.timezone,
activities = EXCLUDED.activities, region = EXCLUDED.region, updated_at = EXCLUDED.updated_at`

	deleteWeights = `DELETE FROM gig_weights WHERE gig_id = $1`
	countWeights  = `SELECT COUNT(*) FROM gig_weights`
)

// PostgresWeightStore persists weight vectors in the gig_weights table.
type PostgresWeightStore struct {
	db *sql.DB
}

// NewPostgresWeightStore wraps an open database.
func NewPostgresWeightStore(db *sql.DB) *PostgresWeightStore {
	return &PostgresWeightStore{db: db}
}

// Get implements WeightStore.
func (s *PostgresWeightStore) Get(ctx context.Context, gigID string) (w model.Weights, err error) {
	ctx, span := tracing.Start(ctx, "repository.weights.get")
	defer func() { tracing.End(span, err) }()

	err = s.db.QueryRowContext(ctx, selectWeights, gigID).Scan(
		&w.Experience, &w.Skills, &w.Industry, &w.Languages,
		&w.Availability, &w.Timezone, &w.Activities, &w.Region,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Weights{}, fmt.Errorf("weights for gig %s: %w", gigID, model.ErrNotFound)
	}
	if err != nil {
		return model.Weights{}, fmt.Errorf("select weights for gig %s: %w", gigID, err)
	}
	return w, nil
}

// Put implements WeightStore.
func (s *PostgresWeightStore) Put(ctx context.Context, gigID string, w model.Weights) (_ model.Weights, err error) {
	if gigID == "" {
		return model.Weights{}, ErrEmptyKey
	}
	ctx, span := tracing.Start(ctx, "repository.weights.put")
	defer func() { tracing.End(span, err) }()

	_, err = s.db.ExecContext(ctx, upsertWeights, gigID,
		w.Experience, w.Skills, w.Industry, w.Languages,
		w.Availability, w.Timezone, w.Activities, w.Region,
	)
	if err != nil {
		return model.Weights{}, fmt.Errorf("upsert weights for gig %s: %w", gigID, err)
	}
	return w, nil
}

// Delete implements WeightStore.
func (s *PostgresWeightStore) Delete(ctx context.Context, gigID string) (err error) {
	ctx, span := tracing.Start(ctx, "repository.weights.delete")
	defer func() { tracing.End(span, err) }()

	if _, err = s.db.ExecContext(ctx, deleteWeights, gigID); err != nil {
		return fmt.Errorf("delete weights for gig %s: %w", gigID, err)
	}
	return nil
}

// Count implements WeightStore.
func (s *PostgresWeightStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countWeights).Scan(&n); err != nil {
		return 0, fmt.Errorf("count weights: %w", err)
	}
	return n, nil
}
