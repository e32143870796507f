package engagement_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
)

func newTracker() (*engagement.Tracker, *repository.MemoryEngagementStore) {
	store := repository.NewMemoryEngagementStore()
	var (
		mu  sync.Mutex
		seq int
		now = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	)
	tr := engagement.NewTracker(store,
		engagement.WithLogger(logger.NewNop()),
		engagement.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(time.Second)
			return now
		}),
		engagement.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("e%02d", seq)
		}),
	)
	return tr, store
}

// racingStore flips the status underneath the first compare-and-set.
type racingStore struct {
	*repository.MemoryEngagementStore
	once sync.Once
	to   engagement.Status
}

func (r *racingStore) UpdateStatus(ctx context.Context, id string, from, to engagement.Status, at time.Time) (engagement.Engagement, error) {
	r.once.Do(func() {
		_, _ = r.MemoryEngagementStore.UpdateStatus(ctx, id, from, r.to, at)
	})
	return r.MemoryEngagementStore.UpdateStatus(ctx, id, from, to, at)
}

func TestTracker_Create(t *testing.T) {
	Convey("Given a tracker", t, func() {
		ctx := context.Background()
		tr, _ := newTracker()

		Convey("Create stores the engagement with ids and timestamps", func() {
			snap := &model.MatchResult{AgentID: "a1", GigID: "g1", TotalScore: 88}
			e, err := tr.Create(ctx, engagement.CreateRequest{
				GigID: "g1", AgentID: "a1", Status: engagement.StatusInvited, MatchSnapshot: snap, Notes: "referral",
			})
			So(err, ShouldBeNil)
			So(e.ID, ShouldEqual, "e01")
			So(e.CreatedAt, ShouldEqual, e.UpdatedAt)
			So(e.MatchSnapshot.TotalScore, ShouldEqual, 88)

			got, err := tr.Get(ctx, e.ID)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, e)
		})

		Convey("A second engagement for the pair is a duplicate and nothing is written", func() {
			_, err := tr.Create(ctx, engagement.CreateRequest{GigID: "g1", AgentID: "a1", Status: engagement.StatusInvited})
			So(err, ShouldBeNil)
			_, err = tr.Create(ctx, engagement.CreateRequest{GigID: "g1", AgentID: "a1", Status: engagement.StatusApplied})
			So(errors.Is(err, engagement.ErrDuplicateRelationship), ShouldBeTrue)

			list, err := tr.ListByGig(ctx, "g1", engagement.Filter{})
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 1)
			So(list[0].Status, ShouldEqual, engagement.StatusInvited)
		})

		Convey("Only invited, applied and enrolled are valid initial statuses", func() {
			for _, st := range []engagement.Status{engagement.StatusHired, engagement.StatusActive, "bogus"} {
				_, err := tr.Create(ctx, engagement.CreateRequest{GigID: "g1", AgentID: "a1", Status: st})
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			}
			_, err := tr.Create(ctx, engagement.CreateRequest{GigID: "g1", AgentID: "a1", Status: engagement.StatusEnrolled})
			So(err, ShouldBeNil)
		})

		Convey("Missing ids and foreign snapshots are rejected", func() {
			_, err := tr.Create(ctx, engagement.CreateRequest{GigID: " ", AgentID: "a1", Status: engagement.StatusInvited})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)

			_, err = tr.Create(ctx, engagement.CreateRequest{
				GigID: "g1", AgentID: "a1", Status: engagement.StatusInvited,
				MatchSnapshot: &model.MatchResult{AgentID: "a2", GigID: "g1"},
			})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestTracker_Transition(t *testing.T) {
	Convey("Given an invited engagement", t, func() {
		ctx := context.Background()
		tr, _ := newTracker()
		e, err := tr.Create(ctx, engagement.CreateRequest{GigID: "g1", AgentID: "a1", Status: engagement.StatusInvited})
		So(err, ShouldBeNil)

		Convey("It can walk an allowed path to active", func() {
			for _, st := range []engagement.Status{
				engagement.StatusApplied, engagement.StatusInterviewing, engagement.StatusHired, engagement.StatusActive,
			} {
				e, err = tr.Transition(ctx, e.ID, st)
				So(err, ShouldBeNil)
				So(e.Status, ShouldEqual, st)
			}
			So(e.UpdatedAt.After(e.CreatedAt), ShouldBeTrue)

			Convey("And active is terminal", func() {
				_, err := tr.Transition(ctx, e.ID, engagement.StatusRejected)
				So(errors.Is(err, engagement.ErrIllegalTransition), ShouldBeTrue)
			})
		})

		Convey("Rejected is terminal", func() {
			_, err := tr.Transition(ctx, e.ID, engagement.StatusRejected)
			So(err, ShouldBeNil)
			for _, st := range []engagement.Status{engagement.StatusApplied, engagement.StatusActive, engagement.StatusInvited} {
				_, err = tr.Transition(ctx, e.ID, st)
				So(errors.Is(err, engagement.ErrIllegalTransition), ShouldBeTrue)
			}
		})

		Convey("Edges outside the table are illegal", func() {
			_, err := tr.Transition(ctx, e.ID, engagement.StatusHired)
			So(errors.Is(err, engagement.ErrIllegalTransition), ShouldBeTrue)
		})

		Convey("Unknown ids and statuses are reported", func() {
			_, err := tr.Transition(ctx, "missing", engagement.StatusApplied)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			_, err = tr.Transition(ctx, e.ID, "promoted")
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("Annotate replaces notes", func() {
			got, err := tr.Annotate(ctx, e.ID, "prefers mornings")
			So(err, ShouldBeNil)
			So(got.Notes, ShouldEqual, "prefers mornings")
			So(got.Status, ShouldEqual, engagement.StatusInvited)
		})
	})
}

func TestTracker_ConcurrentTransition(t *testing.T) {
	Convey("Given a status that changes between read and write", t, func() {
		ctx := context.Background()
		store := &racingStore{MemoryEngagementStore: repository.NewMemoryEngagementStore()}
		tr := engagement.NewTracker(store, engagement.WithLogger(logger.NewNop()))
		e, err := tr.Create(ctx, engagement.CreateRequest{GigID: "g1", AgentID: "a1", Status: engagement.StatusInvited})
		So(err, ShouldBeNil)

		Convey("When the concurrent move still allows the edge, the transition succeeds on re-read", func() {
			store.to = engagement.StatusApplied
			got, err := tr.Transition(ctx, e.ID, engagement.StatusInterviewing)
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, engagement.StatusInterviewing)
		})

		Convey("When the concurrent move closes the engagement, the loser gets an illegal transition", func() {
			store.to = engagement.StatusRejected
			_, err := tr.Transition(ctx, e.ID, engagement.StatusApplied)
			So(errors.Is(err, engagement.ErrIllegalTransition), ShouldBeTrue)

			got, err := tr.Get(ctx, e.ID)
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, engagement.StatusRejected)
		})
	})
}

func TestTracker_Lists(t *testing.T) {
	Convey("Given engagements across gigs and agents", t, func() {
		ctx := context.Background()
		tr, _ := newTracker()
		mk := func(gig, agent string, st engagement.Status) engagement.Engagement {
			e, err := tr.Create(ctx, engagement.CreateRequest{GigID: gig, AgentID: agent, Status: st})
			So(err, ShouldBeNil)
			return e
		}
		e1 := mk("g1", "a1", engagement.StatusInvited)
		e2 := mk("g1", "a2", engagement.StatusApplied)
		e3 := mk("g1", "a3", engagement.StatusApplied)
		_, err := tr.Transition(ctx, e3.ID, engagement.StatusInterviewing)
		So(err, ShouldBeNil)
		mk("g2", "a1", engagement.StatusEnrolled)

		Convey("The applicants cohort covers applied and interviewing in creation order", func() {
			f, err := engagement.ParseFilter("", "applicants")
			So(err, ShouldBeNil)
			list, err := tr.ListByGig(ctx, "g1", f)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
			So(list[0].ID, ShouldEqual, e2.ID)
			So(list[1].ID, ShouldEqual, e3.ID)
		})

		Convey("A status list filters by agent", func() {
			f, err := engagement.ParseFilter("invited,enrolled", "")
			So(err, ShouldBeNil)
			list, err := tr.ListByAgent(ctx, "a1", f)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
			So(list[0].ID, ShouldEqual, e1.ID)
		})

		Convey("An agent without engagements gets an empty list", func() {
			list, err := tr.ListByAgent(ctx, "a9", engagement.Filter{})
			So(err, ShouldBeNil)
			So(list, ShouldNotBeNil)
			So(list, ShouldBeEmpty)
		})

		Convey("Blank ids are rejected", func() {
			_, err := tr.ListByGig(ctx, "", engagement.Filter{})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}
