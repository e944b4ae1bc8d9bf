package replay_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/plateduel/plateduel/internal/adapters/repository"
	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/internal/domain/replay"
	"github.com/plateduel/plateduel/internal/domain/vote"
)

func seedStore(ctx context.Context, names ...string) *repository.MemStore {
	store := repository.NewMemStore()
	entities := make([]model.Entity, len(names))
	for i, name := range names {
		entities[i] = model.Entity{ID: name, Name: name, Ratings: model.NewRatings()}
	}
	if err := store.Seed(ctx, entities); err != nil {
		panic(err)
	}
	return store
}

func TestReplayer_PersonalRankings(t *testing.T) {
	Convey("Given a store with three entities and two users voting", t, func() {
		ctx := context.Background()
		store := seedStore(ctx, "bakery", "cantina", "deli")
		p := vote.NewProcessor(store)
		r := replay.NewReplayer(store)

		Convey("A user with no votes sees everything at the baseline", func() {
			table, err := r.PersonalRankings(ctx, "newcomer", category.Global)
			So(err, ShouldBeNil)
			So(table, ShouldHaveLength, 3)
			for _, row := range table {
				So(row.Rating, ShouldEqual, model.BaselineRating)
				So(row.Rank, ShouldEqual, 1)
			}

			Convey("And the tie order is deterministic by entity id", func() {
				So(table[0].EntityID, ShouldEqual, "bakery")
				So(table[1].EntityID, ShouldEqual, "cantina")
				So(table[2].EntityID, ShouldEqual, "deli")
			})
		})

		Convey("Only the requesting user's votes shape the table", func() {
			_, err := p.Submit(ctx, "bakery", "cantina", category.Value, "alice")
			So(err, ShouldBeNil)
			_, err = p.Submit(ctx, "deli", "bakery", category.Value, "someone-else")
			So(err, ShouldBeNil)

			table, err := r.PersonalRankings(ctx, "alice", category.Value)
			So(err, ShouldBeNil)
			So(table[0].EntityID, ShouldEqual, "bakery")
			So(table[0].Rating, ShouldEqual, 1516.0)
			So(table[0].Rank, ShouldEqual, 1)
			So(table[1].EntityID, ShouldEqual, "deli")
			So(table[1].Rating, ShouldEqual, model.BaselineRating)
			So(table[2].EntityID, ShouldEqual, "cantina")
			So(table[2].Rating, ShouldEqual, 1484.0)
			So(table[2].Rank, ShouldEqual, 3)
		})

		Convey("Outcomes are re-derived, not read from the stored deltas", func() {
			// Alice's second win over cantina happens at unequal ratings in
			// the shared table, but her personal replay starts both at the
			// baseline, so her table's numbers differ from the shared ones.
			_, err := p.Submit(ctx, "bakery", "cantina", category.Value, "bob")
			So(err, ShouldBeNil)
			res, err := p.Submit(ctx, "bakery", "cantina", category.Value, "alice")
			So(err, ShouldBeNil)
			So(res.Winner.Ratings.Value, ShouldNotEqual, 1516.0)

			table, err := r.PersonalRankings(ctx, "alice", category.Value)
			So(err, ShouldBeNil)
			So(table[0].EntityID, ShouldEqual, "bakery")
			So(table[0].Rating, ShouldEqual, 1516.0)
		})

		Convey("Undone votes never took place", func() {
			res, err := p.Submit(ctx, "cantina", "deli", category.Speed, "alice")
			So(err, ShouldBeNil)

			undo, err := p.Undo(ctx, res.VoteID)
			So(err, ShouldBeNil)
			So(undo.Success, ShouldBeTrue)

			table, err := r.PersonalRankings(ctx, "alice", category.Speed)
			So(err, ShouldBeNil)
			for _, row := range table {
				So(row.Rating, ShouldEqual, model.BaselineRating)
			}
		})

		Convey("A category view replays only that category's votes", func() {
			_, err := p.Submit(ctx, "bakery", "deli", category.Aesthetics, "alice")
			So(err, ShouldBeNil)
			_, err = p.Submit(ctx, "deli", "bakery", category.Speed, "alice")
			So(err, ShouldBeNil)

			table, err := r.PersonalRankings(ctx, "alice", category.Aesthetics)
			So(err, ShouldBeNil)
			So(table[0].EntityID, ShouldEqual, "bakery")
			So(table[0].Rating, ShouldEqual, 1516.0)

			speed, err := r.PersonalRankings(ctx, "alice", category.Speed)
			So(err, ShouldBeNil)
			So(speed[0].EntityID, ShouldEqual, "deli")
		})

		Convey("The global view folds votes across all categories", func() {
			_, err := p.Submit(ctx, "bakery", "cantina", category.Value, "alice")
			So(err, ShouldBeNil)
			_, err = p.Submit(ctx, "bakery", "deli", category.Speed, "alice")
			So(err, ShouldBeNil)

			table, err := r.PersonalRankings(ctx, "alice", category.Global)
			So(err, ShouldBeNil)
			So(table[0].EntityID, ShouldEqual, "bakery")
			// Two wins from the baseline: 1516, then a diminished gain.
			So(table[0].Rating, ShouldBeGreaterThan, 1516.0)
			So(table[0].Rating, ShouldBeLessThan, 1532.0)
		})

		Convey("Replaying is reproducible", func() {
			_, err := p.Submit(ctx, "cantina", "bakery", category.Value, "alice")
			So(err, ShouldBeNil)

			first, err := r.PersonalRankings(ctx, "alice", category.Value)
			So(err, ShouldBeNil)
			second, err := r.PersonalRankings(ctx, "alice", category.Value)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
		})

		Convey("An invalid dimension is rejected", func() {
			_, err := r.PersonalRankings(ctx, "alice", category.Dimension(99))
			So(err, ShouldWrap, category.ErrUnknownCategory)
		})
	})

	Convey("Given votes that reference a deactivated entity", t, func() {
		ctx := context.Background()
		store := seedStore(ctx, "bakery", "cantina", "deli")
		p := vote.NewProcessor(store)
		r := replay.NewReplayer(store)

		_, err := p.Submit(ctx, "deli", "bakery", category.Value, "alice")
		So(err, ShouldBeNil)
		So(store.Deactivate(ctx, "deli"), ShouldBeNil)

		Convey("The replay still seeds it and folds the vote", func() {
			table, err := r.PersonalRankings(ctx, "alice", category.Value)
			So(err, ShouldBeNil)
			So(table[0].EntityID, ShouldEqual, "deli")
			So(table[0].Rating, ShouldEqual, 1516.0)
		})
	})
}
