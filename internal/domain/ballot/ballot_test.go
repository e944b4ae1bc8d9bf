package ballot

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryGuard(t *testing.T) {
	Convey("Given an in-memory ballot guard", t, func() {
		ctx := context.Background()
		g := NewInMemoryGuard()

		Convey("A fresh token consumes exactly once", func() {
			So(g.Consume(ctx, "m-1"), ShouldBeFalse)
			So(g.Consume(ctx, "m-1"), ShouldBeTrue)
			So(g.Size(), ShouldEqual, 1)
		})

		Convey("Distinct tokens do not interfere", func() {
			So(g.Consume(ctx, "m-1"), ShouldBeFalse)
			So(g.Consume(ctx, "m-2"), ShouldBeFalse)
			So(g.Size(), ShouldEqual, 2)
		})

		Convey("Release reopens a token", func() {
			So(g.Consume(ctx, "m-1"), ShouldBeFalse)
			g.Release(ctx, "m-1")
			So(g.Size(), ShouldEqual, 0)
			So(g.Consume(ctx, "m-1"), ShouldBeFalse)
		})

		Convey("Releasing an unknown token is harmless", func() {
			g.Release(ctx, "never-seen")
			So(g.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded guard under pressure", t, func() {
		ctx := context.Background()
		g := NewInMemoryGuard(WithMaxSize(3))

		for i := 0; i < 3; i++ {
			So(g.Consume(ctx, fmt.Sprintf("m-%d", i)), ShouldBeFalse)
		}

		Convey("The oldest token is evicted to admit a new one", func() {
			So(g.Consume(ctx, "m-3"), ShouldBeFalse)
			So(g.Size(), ShouldEqual, 3)

			// m-0 was evicted, so it consumes fresh again.
			So(g.Consume(ctx, "m-0"), ShouldBeFalse)
			// m-2 is still remembered.
			So(g.Consume(ctx, "m-2"), ShouldBeTrue)
		})
	})
}

func TestInMemoryGuard_Concurrent(t *testing.T) {
	ctx := context.Background()
	g := NewInMemoryGuard()

	const attempts = 50
	fresh := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !g.Consume(ctx, "contested") {
				fresh <- true
			}
		}()
	}
	wg.Wait()
	close(fresh)

	if got := len(fresh); got != 1 {
		t.Errorf("expected exactly one fresh consume, got %d", got)
	}
}
