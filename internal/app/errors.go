package service

import "errors"

// Service errors.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrGigMismatch = errors.New("gig id in body does not match path")
)
