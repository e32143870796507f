package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

const selectAlias = `SELECT canonical_id FROM reference_aliases WHERE kind = $1 AND alias = $2`

// PostgresAliasStore reads the reference_aliases table.
type PostgresAliasStore struct {
	db *sql.DB
}

// NewPostgresAliasStore wraps an open database.
func NewPostgresAliasStore(db *sql.DB) *PostgresAliasStore {
	return &PostgresAliasStore{db: db}
}

// Lookup implements AliasStore. Aliases are stored lowercased.
func (s *PostgresAliasStore) Lookup(ctx context.Context, kind, alias string) (string, error) {
	var canonical string
	err := s.db.QueryRowContext(ctx, selectAlias,
		strings.ToLower(kind), strings.ToLower(strings.TrimSpace(alias))).Scan(&canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("alias %s/%s: %w", kind, alias, model.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("select alias %s/%s: %w", kind, alias, err)
	}
	return canonical, nil
}
