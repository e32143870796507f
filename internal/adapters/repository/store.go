// Package repository holds the persistence adapters of the matching engine:
// weight vectors, engagements and reference aliases, each with an in-memory
// and a Postgres implementation plus Redis read-through decorators.
package repository

import (
	"context"

	"github.com/okian/gigmatch/internal/domain/model"
)

// WeightStore maps a gig id to its weight vector.
type WeightStore interface {
	// Get returns model.ErrNotFound when no vector is stored for gigID.
	Get(ctx context.Context, gigID string) (model.Weights, error)
	// Put replaces the whole vector and returns what was stored.
	Put(ctx context.Context, gigID string, w model.Weights) (model.Weights, error)
	// Delete removes the vector. Deleting an absent vector is not an error.
	Delete(ctx context.Context, gigID string) error
	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)
}

// AliasStore maps (kind, alias) to a canonical reference id.
type AliasStore interface {
	// Lookup returns model.ErrNotFound for unknown aliases.
	Lookup(ctx context.Context, kind, alias string) (string, error)
}
