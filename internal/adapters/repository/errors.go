package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel kinds for repository errors.
var (
	ErrEmptyKey  = errors.New("empty key")
	ErrNilClient = errors.New("nil database client")
)

// pgUniqueViolation is the SQLSTATE of a unique constraint failure.
const pgUniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
