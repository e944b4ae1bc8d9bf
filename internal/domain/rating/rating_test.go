package rating

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExpectedScore(t *testing.T) {
	Convey("Given the logistic expectation curve", t, func() {
		Convey("Equal ratings expect an even split", func() {
			e, err := ExpectedScore(1500, 1500)
			So(err, ShouldBeNil)
			So(e, ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("A 400 point gap expects roughly ten-to-one odds", func() {
			e, err := ExpectedScore(1900, 1500)
			So(err, ShouldBeNil)
			So(e, ShouldAlmostEqual, 10.0/11.0, 1e-9)
		})

		Convey("Expectations are complementary", func() {
			eA, err := ExpectedScore(1622.4, 1481.7)
			So(err, ShouldBeNil)
			eB, err := ExpectedScore(1481.7, 1622.4)
			So(err, ShouldBeNil)
			So(eA+eB, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("Non-finite inputs are rejected", func() {
			_, err := ExpectedScore(math.NaN(), 1500)
			So(err, ShouldWrap, ErrInvalidRating)

			_, err = ExpectedScore(1500, math.Inf(1))
			So(err, ShouldWrap, ErrInvalidRating)
		})
	})
}

func TestUpdatePair(t *testing.T) {
	Convey("Given a pair update at fixed K", t, func() {
		Convey("Two fresh entities move by exactly 16 points", func() {
			upd, err := UpdatePair(1500, 1500, OutcomeA)
			So(err, ShouldBeNil)
			So(upd.NewA, ShouldEqual, 1516.0)
			So(upd.NewB, ShouldEqual, 1484.0)
			So(upd.DeltaA, ShouldEqual, 16.0)
			So(upd.DeltaB, ShouldEqual, -16.0)
		})

		Convey("Deltas are zero-sum by construction", func() {
			upd, err := UpdatePair(1731.25, 1502.5, OutcomeB)
			So(err, ShouldBeNil)
			So(upd.DeltaA+upd.DeltaB, ShouldEqual, 0.0)
		})

		Convey("An upset moves more points than an expected win", func() {
			upset, err := UpdatePair(1400, 1700, OutcomeA)
			So(err, ShouldBeNil)
			expected, err := UpdatePair(1700, 1400, OutcomeA)
			So(err, ShouldBeNil)
			So(upset.DeltaA, ShouldBeGreaterThan, expected.DeltaA)
		})

		Convey("A draw between unequal ratings pulls them together", func() {
			upd, err := UpdatePair(1600, 1400, OutcomeDraw)
			So(err, ShouldBeNil)
			So(upd.DeltaA, ShouldBeLessThan, 0)
			So(upd.DeltaB, ShouldBeGreaterThan, 0)
		})

		Convey("Applying then reverting deltas restores the inputs", func() {
			a, b := 1543.72, 1476.91
			upd, err := UpdatePair(a, b, OutcomeA)
			So(err, ShouldBeNil)
			So(upd.NewA-upd.DeltaA, ShouldAlmostEqual, a, 1e-9)
			So(upd.NewB-upd.DeltaB, ShouldAlmostEqual, b, 1e-9)
		})

		Convey("Invalid outcomes are rejected", func() {
			_, err := UpdatePair(1500, 1500, Outcome(42))
			So(err, ShouldWrap, ErrInvalidOutcome)
		})

		Convey("Non-finite ratings are rejected", func() {
			_, err := UpdatePair(math.NaN(), 1500, OutcomeA)
			So(err, ShouldWrap, ErrInvalidRating)
		})
	})
}
