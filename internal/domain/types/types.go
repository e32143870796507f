// Package types contains the request and response shapes shared by the
// service and its transports.
package types

import (
	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/model"
)

// WeightsView is a gig's weight vector as served to callers. Configured is
// false when no vector is stored and the zero vector is returned.
type WeightsView struct {
	GigID      string        `json:"gigId"`
	Weights    model.Weights `json:"weights"`
	Configured bool          `json:"configured"`
}

// RankRequest is a ranking call for one gig. A nil Weights uses the stored vector.
type RankRequest struct {
	Gig        model.Gig      `json:"gig"`
	Weights    *model.Weights `json:"weights,omitempty"`
	Candidates []model.Agent  `json:"candidates"`
}

// EngagementUpdate changes the status and/or notes of an engagement.
type EngagementUpdate struct {
	Status *engagement.Status `json:"status,omitempty"`
	Notes  *string            `json:"notes,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u EngagementUpdate) Empty() bool {
	return u.Status == nil && u.Notes == nil
}
