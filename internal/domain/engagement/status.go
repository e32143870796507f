package engagement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Status is the lifecycle state of an engagement.
type Status string

// Engagement statuses.
const (
	StatusInvited      Status = "invited"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusHired        Status = "hired"
	StatusRejected     Status = "rejected"
	StatusEnrolled     Status = "enrolled"
	StatusActive       Status = "active"
)

// edges lists the allowed transitions. Statuses without entries are terminal.
var edges = map[Status][]Status{
	StatusInvited:      {StatusApplied, StatusInterviewing, StatusEnrolled, StatusRejected},
	StatusApplied:      {StatusInterviewing, StatusHired, StatusRejected},
	StatusInterviewing: {StatusHired, StatusRejected},
	StatusHired:        {StatusEnrolled, StatusActive, StatusRejected},
	StatusEnrolled:     {StatusActive, StatusRejected},
	StatusRejected:     nil,
	StatusActive:       nil,
}

var initial = map[Status]bool{
	StatusInvited:  true,
	StatusApplied:  true,
	StatusEnrolled: true,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := edges[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(edges[s]) == 0
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to Status) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable in one step from s.
func Next(s Status) []Status {
	return append([]Status(nil), edges[s]...)
}

// Cohort is a named group of statuses used by list views.
type Cohort string

// Cohorts.
const (
	CohortInvited           Cohort = "invited"
	CohortApplicants        Cohort = "applicants"
	CohortEnrollmentPending Cohort = "enrollment_pending"
	CohortActive            Cohort = "active"
	CohortClosed            Cohort = "closed"
)

var cohorts = map[Cohort][]Status{
	CohortInvited:           {StatusInvited},
	CohortApplicants:        {StatusApplied, StatusInterviewing},
	CohortEnrollmentPending: {StatusHired, StatusEnrolled},
	CohortActive:            {StatusActive},
	CohortClosed:            {StatusRejected},
}

// Filter restricts a list to a set of statuses. An empty filter matches all.
type Filter struct {
	Statuses []Status
}

// Matches reports whether s passes the filter.
func (f Filter) Matches(s Status) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, want := range f.Statuses {
		if want == s {
			return true
		}
	}
	return false
}

// ParseFilter builds a filter from a comma-separated status list or a cohort
// name. Supplying both is rejected.
func ParseFilter(statuses, cohort string) (Filter, error) {
	statuses, cohort = strings.TrimSpace(statuses), strings.TrimSpace(cohort)
	switch {
	case statuses != "" && cohort != "":
		return Filter{}, fmt.Errorf("%w: status and cohort are mutually exclusive", model.ErrValidation)
	case cohort != "":
		set, ok := cohorts[Cohort(cohort)]
		if !ok {
			return Filter{}, fmt.Errorf("%w: unknown cohort %q", model.ErrValidation, cohort)
		}
		return Filter{Statuses: append([]Status(nil), set...)}, nil
	case statuses != "":
		var f Filter
		for _, raw := range strings.Split(statuses, ",") {
			s := Status(strings.TrimSpace(raw))
			if !s.Valid() {
				return Filter{}, fmt.Errorf("%w: unknown status %q", model.ErrValidation, raw)
			}
			f.Statuses = append(f.Statuses, s)
		}
		sort.Slice(f.Statuses, func(i, j int) bool { return f.Statuses[i] < f.Statuses[j] })
		return f, nil
	}
	return Filter{}, nil
}
