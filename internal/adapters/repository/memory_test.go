package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/model"
)

func TestMemoryWeightStore(t *testing.T) {
	Convey("Given an empty memory weight store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryWeightStore()

		Convey("Get of an unknown gig reports not found", func() {
			_, err := store.Get(ctx, "g1")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("Put replaces the whole vector", func() {
			_, err := store.Put(ctx, "g1", model.Weights{Skills: 1, Region: 0.5})
			So(err, ShouldBeNil)
			_, err = store.Put(ctx, "g1", model.Weights{Experience: 0.2})
			So(err, ShouldBeNil)

			w, err := store.Get(ctx, "g1")
			So(err, ShouldBeNil)
			So(w, ShouldResemble, model.Weights{Experience: 0.2})

			n, _ := store.Count(ctx)
			So(n, ShouldEqual, 1)
		})

		Convey("Put rejects an empty gig id", func() {
			_, err := store.Put(ctx, "", model.Weights{})
			So(err, ShouldEqual, repository.ErrEmptyKey)
		})

		Convey("Delete is idempotent", func() {
			_, _ = store.Put(ctx, "g1", model.Weights{Skills: 1})
			So(store.Delete(ctx, "g1"), ShouldBeNil)
			So(store.Delete(ctx, "g1"), ShouldBeNil)
			_, err := store.Get(ctx, "g1")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryEngagementStore(t *testing.T) {
	Convey("Given a memory engagement store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryEngagementStore()
		base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

		mk := func(id, gig, agent string, st engagement.Status, offset time.Duration) engagement.Engagement {
			return engagement.Engagement{
				ID: id, GigID: gig, AgentID: agent, Status: st,
				CreatedAt: base.Add(offset), UpdatedAt: base.Add(offset),
			}
		}

		So(store.Insert(ctx, mk("e2", "g1", "a2", engagement.StatusApplied, time.Minute)), ShouldBeNil)
		So(store.Insert(ctx, mk("e1", "g1", "a1", engagement.StatusInvited, time.Minute)), ShouldBeNil)
		So(store.Insert(ctx, mk("e3", "g2", "a1", engagement.StatusEnrolled, 0)), ShouldBeNil)

		Convey("A second record for the same pair is rejected and nothing is written", func() {
			err := store.Insert(ctx, mk("e4", "g1", "a1", engagement.StatusApplied, 0))
			So(err, ShouldEqual, engagement.ErrDuplicateRelationship)
			_, err = store.Get(ctx, "e4")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("UpdateStatus compares before setting", func() {
			at := base.Add(time.Hour)
			e, err := store.UpdateStatus(ctx, "e1", engagement.StatusInvited, engagement.StatusApplied, at)
			So(err, ShouldBeNil)
			So(e.Status, ShouldEqual, engagement.StatusApplied)
			So(e.UpdatedAt, ShouldEqual, at)

			_, err = store.UpdateStatus(ctx, "e1", engagement.StatusInvited, engagement.StatusRejected, at)
			So(err, ShouldEqual, engagement.ErrStatusConflict)

			_, err = store.UpdateStatus(ctx, "missing", engagement.StatusInvited, engagement.StatusApplied, at)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("UpdateNotes replaces notes", func() {
			e, err := store.UpdateNotes(ctx, "e3", "starts monday", base)
			So(err, ShouldBeNil)
			So(e.Notes, ShouldEqual, "starts monday")
		})

		Convey("List orders by creation time then id", func() {
			list, err := store.List(ctx, engagement.Query{GigID: "g1"})
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
			So(list[0].ID, ShouldEqual, "e1")
			So(list[1].ID, ShouldEqual, "e2")
		})

		Convey("List applies the status filter", func() {
			list, err := store.List(ctx, engagement.Query{
				AgentID: "a1",
				Filter:  engagement.Filter{Statuses: []engagement.Status{engagement.StatusEnrolled}},
			})
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 1)
			So(list[0].ID, ShouldEqual, "e3")
		})

		Convey("List of an unknown gig is empty, not nil", func() {
			list, err := store.List(ctx, engagement.Query{GigID: "nope"})
			So(err, ShouldBeNil)
			So(list, ShouldNotBeNil)
			So(list, ShouldBeEmpty)
		})
	})
}

func TestMemoryAliasStore(t *testing.T) {
	Convey("Given configured aliases", t, func() {
		store := repository.NewMemoryAliasStore(map[string]map[string]string{
			"Skill": {" GoLang ": "go"},
		})

		Convey("Lookup ignores case and surrounding space", func() {
			c, err := store.Lookup(context.Background(), "skill", "golang")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, "go")
		})

		Convey("Unknown aliases report not found", func() {
			_, err := store.Lookup(context.Background(), "skill", "rust")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}
