package engagement

import "errors"

// Sentinel kinds for engagement errors.
var (
	// ErrDuplicateRelationship reports a second engagement for the same gig/agent pair.
	ErrDuplicateRelationship = errors.New("duplicate relationship")
	// ErrIllegalTransition reports a status change outside the allowed edges.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrStatusConflict is returned by stores when a compare-and-set status
	// update finds a different current status.
	ErrStatusConflict = errors.New("status changed concurrently")
)
