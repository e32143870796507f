package types_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/types"
)

func TestRankRequest(t *testing.T) {
	Convey("Given a rank body without weights", t, func() {
		var req types.RankRequest
		err := json.Unmarshal([]byte(`{"gig":{"id":"g1"},"candidates":[{"id":"a1"},{"id":"a2"}]}`), &req)

		Convey("Then the stored vector is requested", func() {
			So(err, ShouldBeNil)
			So(req.Weights, ShouldBeNil)
			So(len(req.Candidates), ShouldEqual, 2)
		})
	})

	Convey("Given a rank body with explicit zero weights", t, func() {
		var req types.RankRequest
		err := json.Unmarshal([]byte(`{"gig":{"id":"g1"},"weights":{}}`), &req)

		Convey("Then the request weights are kept as an all-zero vector", func() {
			So(err, ShouldBeNil)
			So(req.Weights, ShouldNotBeNil)
			So(req.Weights.Sum(), ShouldEqual, 0)
		})
	})
}

func TestEngagementUpdate(t *testing.T) {
	Convey("Given engagement updates", t, func() {
		So(types.EngagementUpdate{}.Empty(), ShouldBeTrue)

		st := engagement.StatusHired
		So(types.EngagementUpdate{Status: &st}.Empty(), ShouldBeFalse)

		notes := ""
		So(types.EngagementUpdate{Notes: &notes}.Empty(), ShouldBeFalse)
	})
}
