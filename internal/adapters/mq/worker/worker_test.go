package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/plateduel/plateduel/internal/adapters/mq/queue"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

// recordingApplier collects applied events for inspection.
type recordingApplier struct {
	mu      sync.Mutex
	applied map[string]model.Ratings
}

func newRecordingApplier() *recordingApplier {
	return &recordingApplier{applied: make(map[string]model.Ratings)}
}

func (a *recordingApplier) Apply(entityID string, r model.Ratings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied[entityID] = r
}

func (a *recordingApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func (a *recordingApplier) get(entityID string) (model.Ratings, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.applied[entityID]
	return r, ok
}

func TestPool_AppliesEvents(t *testing.T) {
	ctx := context.Background()
	q := queue.NewInMemoryQueue(queue.WithCapacity(16))
	applier := newRecordingApplier()

	pool := NewPool(2, q, applier)
	pool.Start(ctx)

	want := model.NewRatings()
	want.Global = 1516
	q.Enqueue(ctx, queue.Event{EntityID: "bistro", Ratings: want})
	q.Enqueue(ctx, queue.Event{EntityID: "diner", Ratings: model.NewRatings()})

	deadline := time.Now().Add(2 * time.Second)
	for applier.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	got, ok := applier.get("bistro")
	if !ok {
		t.Fatal("bistro event was not applied")
	}
	if got.Global != 1516 {
		t.Errorf("expected global 1516, got %v", got.Global)
	}
	if _, ok := applier.get("diner"); !ok {
		t.Error("diner event was not applied")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestPool_DrainsBacklogAcrossWorkers(t *testing.T) {
	ctx := context.Background()
	q := queue.NewInMemoryQueue(queue.WithCapacity(256))
	applier := newRecordingApplier()

	const events = 100
	for i := 0; i < events; i++ {
		q.Enqueue(ctx, queue.Event{EntityID: entityID(i), Ratings: model.NewRatings()})
	}

	pool := NewPool(4, q, applier)
	pool.Start(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for applier.count() < events && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := applier.count(); got != events {
		t.Errorf("expected %d applied events, got %d", events, got)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestPool_ShutdownStopsWorkers(t *testing.T) {
	ctx := context.Background()
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	applier := newRecordingApplier()

	pool := NewPool(2, q, applier)
	pool.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	// Workers are gone; events enqueued now stay unapplied.
	q.Enqueue(ctx, queue.Event{EntityID: "late", Ratings: model.NewRatings()})
	time.Sleep(50 * time.Millisecond)
	if _, ok := applier.get("late"); ok {
		t.Error("event applied after shutdown")
	}
}

func entityID(i int) string {
	return fmt.Sprintf("e-%d", i)
}
