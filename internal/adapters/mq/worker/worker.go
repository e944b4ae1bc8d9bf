// Package worker folds committed rating events into the leaderboard read
// model.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/plateduel/plateduel/internal/adapters/mq/queue"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/pkg/logger"
	"github.com/plateduel/plateduel/pkg/metrics"
)

// Applier receives post-commit ratings for one entity.
type Applier interface {
	Apply(entityID string, r model.Ratings)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// Pool runs a fixed set of workers draining the rating event queue.
type Pool struct {
	queue       Queue
	applier     Applier
	workerCount int

	shutdown chan struct{}
	wg       sync.WaitGroup

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive workerCount defaults to the
// number of CPUs.
func NewPool(workerCount int, q Queue, applier Applier) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	return &Pool{
		queue:       q,
		applier:     applier,
		workerCount: workerCount,
		shutdown:    make(chan struct{}),
		logger:      logger.Get().Named("rankview-worker"),
	}
}

// Start launches the workers. They run until ctx is cancelled, the pool is
// shut down, or the queue closes.
func (p *Pool) Start(ctx context.Context) {
	events := p.queue.Dequeue(ctx)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		name := "worker-" + strconv.Itoa(i)
		go func() {
			defer p.wg.Done()
			p.run(ctx, name, events)
		}()
	}

	metrics.UpdateWorkerCount(p.workerCount)
}

func (p *Pool) run(ctx context.Context, name string, events <-chan queue.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			p.applier.Apply(event.EntityID, event.Ratings)
			p.logger.Debug(ctx, "applied rating event",
				logger.String("worker", name),
				logger.String("entityID", event.EntityID),
				logger.Float64("global", event.Ratings.Global),
			)
		}
	}
}

// Shutdown stops the pool and waits for in-flight events to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	select {
	case <-p.shutdown:
		// Already shut down.
	default:
		close(p.shutdown)
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool shutdown timed out: %w", ctx.Err())
	}
}
