package rankview

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
)

func ratingsWith(global, value float64) model.Ratings {
	r := model.NewRatings()
	r.Global = global
	r.Value = value
	return r
}

func TestView_Boards(t *testing.T) {
	Convey("Given a primed rank view", t, func() {
		ctx := context.Background()
		v := New(ctx, WithSnapshotInterval(10*time.Millisecond))
		defer func() { _ = v.Close() }()

		v.Prime([]model.Entity{
			{ID: "bistro", Ratings: ratingsWith(1532, 1500)},
			{ID: "diner", Ratings: ratingsWith(1500, 1516)},
			{ID: "izakaya", Ratings: ratingsWith(1468, 1484)},
		})

		Convey("Top orders by rating descending", func() {
			board, err := v.Top(ctx, category.Global, 3)
			So(err, ShouldBeNil)
			So(board, ShouldHaveLength, 3)
			So(board[0].EntityID, ShouldEqual, "bistro")
			So(board[0].Rank, ShouldEqual, 1)
			So(board[1].EntityID, ShouldEqual, "diner")
			So(board[2].EntityID, ShouldEqual, "izakaya")
		})

		Convey("Each dimension has its own board", func() {
			board, err := v.Top(ctx, category.Value, 3)
			So(err, ShouldBeNil)
			So(board[0].EntityID, ShouldEqual, "diner")
			So(board[0].Rating, ShouldEqual, 1516.0)
		})

		Convey("Equal ratings share a rank with deterministic order", func() {
			board, err := v.Top(ctx, category.Aesthetics, 3)
			So(err, ShouldBeNil)
			So(board[0].Rank, ShouldEqual, 1)
			So(board[1].Rank, ShouldEqual, 1)
			So(board[2].Rank, ShouldEqual, 1)
			So(board[0].EntityID, ShouldEqual, "bistro")
			So(board[1].EntityID, ShouldEqual, "diner")
			So(board[2].EntityID, ShouldEqual, "izakaya")
		})

		Convey("The limit truncates the board", func() {
			board, err := v.Top(ctx, category.Global, 2)
			So(err, ShouldBeNil)
			So(board, ShouldHaveLength, 2)
		})

		Convey("A limit beyond the board size returns everything", func() {
			board, err := v.Top(ctx, category.Global, 50)
			So(err, ShouldBeNil)
			So(board, ShouldHaveLength, 3)
		})

		Convey("A non-positive limit is rejected", func() {
			_, err := v.Top(ctx, category.Global, 0)
			So(err, ShouldWrap, ErrInvalidLimit)
		})

		Convey("An unknown dimension is rejected", func() {
			_, err := v.Top(ctx, category.Dimension(99), 3)
			So(err, ShouldWrap, category.ErrUnknownCategory)
		})

		Convey("Applied events surface after the next publish", func() {
			v.Apply("izakaya", ratingsWith(1600, 1484))

			var leader string
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				board, err := v.Top(ctx, category.Global, 1)
				So(err, ShouldBeNil)
				leader = board[0].EntityID
				if leader == "izakaya" {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			So(leader, ShouldEqual, "izakaya")
		})

		Convey("Count tracks primed and applied entities", func() {
			So(v.Count(ctx), ShouldEqual, 3)
			v.Apply("trattoria", model.NewRatings())
			So(v.Count(ctx), ShouldEqual, 4)
		})
	})
}
