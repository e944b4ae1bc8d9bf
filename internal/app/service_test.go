package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/plateduel/plateduel/internal/adapters/repository"
	service "github.com/plateduel/plateduel/internal/app"
	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func newStartedService(ctx context.Context, names ...string) (*service.Service, *repository.MemStore) {
	store := repository.NewMemStore()
	entities := make([]model.Entity, len(names))
	for i, name := range names {
		entities[i] = model.Entity{ID: name, Name: name, Ratings: model.NewRatings()}
	}
	if err := store.Seed(ctx, entities); err != nil {
		panic(err)
	}

	svc := service.New(store,
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
		service.WithBallotCacheSize(64),
		service.WithMaxLeaderboardLimit(10),
	)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	return svc, store
}

func TestService_VoteFlow(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc, store := newStartedService(ctx, "bistro", "diner", "izakaya")
		defer svc.Stop()

		Convey("A matchup can be generated and voted on", func() {
			m, err := svc.GenerateMatchup(ctx, category.Value)
			So(err, ShouldBeNil)
			So(m.EntityA, ShouldNotEqual, m.EntityB)

			res, err := svc.SubmitVote(ctx, m.ID, m.EntityA, m.EntityB, m.Category, "user-1")
			So(err, ShouldBeNil)
			So(res.Winner.Ratings.Global, ShouldEqual, 1516.0)

			Convey("And the same ballot cannot be spent twice", func() {
				_, err := svc.SubmitVote(ctx, m.ID, m.EntityB, m.EntityA, m.Category, "user-1")
				So(err, ShouldWrap, service.ErrBallotConsumed)
			})

			Convey("And the vote can be undone through the service", func() {
				undo, err := svc.UndoVote(ctx, res.VoteID)
				So(err, ShouldBeNil)
				So(undo.Success, ShouldBeTrue)
				So(undo.Winner.Ratings.Global, ShouldEqual, model.BaselineRating)
			})
		})

		Convey("A rejected vote releases its ballot", func() {
			m, err := svc.GenerateMatchup(ctx, category.Speed)
			So(err, ShouldBeNil)

			// Same entity on both sides never commits.
			_, err = svc.SubmitVote(ctx, m.ID, m.EntityA, m.EntityA, m.Category, "user-1")
			So(err, ShouldNotBeNil)

			_, err = svc.SubmitVote(ctx, m.ID, m.EntityA, m.EntityB, m.Category, "user-1")
			So(err, ShouldBeNil)
		})

		Convey("Votes without a ballot are accepted", func() {
			_, err := svc.SubmitVote(ctx, "", "bistro", "diner", category.Aesthetics, "user-2")
			So(err, ShouldBeNil)
		})

		Convey("The leaderboard catches up with committed votes", func() {
			_, err := svc.SubmitVote(ctx, "", "izakaya", "bistro", category.Value, "user-3")
			So(err, ShouldBeNil)

			var leader string
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				board, err := svc.Leaderboard(ctx, category.Value, 3)
				So(err, ShouldBeNil)
				if len(board) == 3 && board[0].EntityID == "izakaya" {
					leader = board[0].EntityID
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			So(leader, ShouldEqual, "izakaya")
		})

		Convey("Leaderboard limits are clamped to the configured maximum", func() {
			board, err := svc.Leaderboard(ctx, category.Global, 1000)
			So(err, ShouldBeNil)
			So(len(board), ShouldBeLessThanOrEqualTo, 10)
		})

		Convey("Personal rankings flow through the replayer", func() {
			_, err := svc.SubmitVote(ctx, "", "diner", "izakaya", category.Value, "user-4")
			So(err, ShouldBeNil)

			table, err := svc.PersonalRankings(ctx, "user-4", category.Value)
			So(err, ShouldBeNil)
			So(table[0].EntityID, ShouldEqual, "diner")
			So(table[0].Rating, ShouldEqual, 1516.0)
		})

		Convey("Stats reflect the running service", func() {
			st := svc.GetStats(ctx)
			So(st.Running, ShouldBeTrue)
			So(st.EntityCount, ShouldEqual, 3)
			So(st.WorkerCount, ShouldEqual, 2)
		})

		Convey("The durable store stays authoritative", func() {
			res, err := svc.SubmitVote(ctx, "", "bistro", "diner", category.Value, "user-5")
			So(err, ShouldBeNil)

			r, err := store.ReadRatings(ctx, "bistro")
			So(err, ShouldBeNil)
			So(r, ShouldResemble, res.Winner.Ratings)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service over an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		svc := service.New(store)

		Convey("Start is idempotent and Stop is safe to call twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			st := svc.GetStats(ctx)
			So(st.Running, ShouldBeFalse)
		})

		Convey("Matchups are exhausted with fewer than two entities", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			_, err := svc.GenerateMatchup(ctx, category.Value)
			So(err, ShouldNotBeNil)
		})
	})
}
