package matchup

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/plateduel/plateduel/internal/domain/category"
)

type stubSource struct {
	ids []string
	err error
}

func (s *stubSource) ListEligible(ctx context.Context) ([]string, error) {
	return s.ids, s.err
}

func TestSelector_Generate(t *testing.T) {
	Convey("Given a selector over a fixed candidate pool", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		sel := NewSelector(
			&stubSource{ids: []string{"bistro", "diner", "izakaya", "trattoria"}},
			WithRand(rand.New(rand.NewSource(7))), //nolint:gosec // deterministic test
			WithClock(func() time.Time { return now }),
		)

		Convey("It produces two distinct entities from the pool", func() {
			for i := 0; i < 100; i++ {
				m, err := sel.Generate(ctx, category.Value)
				So(err, ShouldBeNil)
				So(m.EntityA, ShouldNotEqual, m.EntityB)
				So(m.EntityA, ShouldBeIn, "bistro", "diner", "izakaya", "trattoria")
				So(m.EntityB, ShouldBeIn, "bistro", "diner", "izakaya", "trattoria")
			}
		})

		Convey("Each matchup carries a fresh id and the clock's timestamp", func() {
			m1, err := sel.Generate(ctx, category.Speed)
			So(err, ShouldBeNil)
			m2, err := sel.Generate(ctx, category.Speed)
			So(err, ShouldBeNil)
			So(m1.ID, ShouldNotEqual, m2.ID)
			So(m1.CreatedAt, ShouldEqual, now)
			So(m1.Category, ShouldEqual, category.Speed)
		})

		Convey("The global dimension is not votable", func() {
			_, err := sel.Generate(ctx, category.Global)
			So(err, ShouldWrap, category.ErrNotVotable)
		})
	})

	Convey("Given a selector over a pool that is too small", t, func() {
		ctx := context.Background()

		Convey("One candidate is not enough", func() {
			sel := NewSelector(&stubSource{ids: []string{"solo"}})
			_, err := sel.Generate(ctx, category.Value)
			So(err, ShouldWrap, ErrInsufficientCandidates)
		})

		Convey("An empty pool is not enough", func() {
			sel := NewSelector(&stubSource{})
			_, err := sel.Generate(ctx, category.Value)
			So(err, ShouldWrap, ErrInsufficientCandidates)
		})
	})

	Convey("Given a source that fails", t, func() {
		sourceErr := errors.New("store down")
		sel := NewSelector(&stubSource{err: sourceErr})

		Convey("The failure is surfaced", func() {
			_, err := sel.Generate(context.Background(), category.Value)
			So(err, ShouldWrap, sourceErr)
		})
	})
}
