package model

import "errors"

// Sentinel kinds shared across the matching domain.
var (
	// ErrNotFound reports an absent weight record, engagement or reference.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrInternalComputation reports a collaborator record that cannot be scored.
	ErrInternalComputation = errors.New("internal computation error")
)
