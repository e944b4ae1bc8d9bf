// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/plateduel/plateduel/internal/adapters/mq/queue"
	workerpool "github.com/plateduel/plateduel/internal/adapters/mq/worker"
	"github.com/plateduel/plateduel/internal/adapters/rankview"
	"github.com/plateduel/plateduel/internal/adapters/repository"
	"github.com/plateduel/plateduel/internal/domain/ballot"
	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/matchup"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/internal/domain/replay"
	"github.com/plateduel/plateduel/internal/domain/vote"
	"github.com/plateduel/plateduel/pkg/logger"
	"github.com/plateduel/plateduel/pkg/metrics"
)

// Stats is a point-in-time snapshot of service health counters.
type Stats struct {
	EntityCount  int   `json:"entity_count"`
	QueueLength  int   `json:"queue_length"`
	BallotsHeld  int64 `json:"ballots_held"`
	WorkerCount  int   `json:"worker_count"`
	Running      bool  `json:"running"`
	UptimeSecond int64 `json:"uptime_seconds"`
}

// Service wires the rating domain over a transactional store and keeps the
// leaderboard read model caught up through the event queue.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	processor *vote.Processor
	selector  *matchup.Selector
	replayer  *replay.Replayer
	guard     ballot.Guard
	queue     eventqueue.Queue
	pool      *workerpool.Pool
	view      *rankview.View

	// Configuration
	workerCount     int
	queueSize       int
	ballotCacheSize int
	maxLeaderboard  int

	// State
	started   bool
	startedAt time.Time
	stopCh    chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of read-model worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the rating event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithBallotCacheSize bounds the matchup token guard.
func WithBallotCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.ballotCacheSize = size
		}
	}
}

// WithMaxLeaderboardLimit caps the number of rows a leaderboard query may ask
// for.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLeaderboard = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a service over the given store with default configuration.
// The store is injected so deployments can choose between the in-memory and
// PostgreSQL implementations.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		workerCount:     runtime.NumCPU(),
		queueSize:       100000,
		ballotCacheSize: 100000,
		maxLeaderboard:  500,
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting rating service...")

	s.processor = vote.NewProcessor(s.store)
	s.selector = matchup.NewSelector(s.store)
	s.replayer = replay.NewReplayer(s.store)
	s.guard = ballot.NewInMemoryGuard(
		ballot.WithMaxSize(s.ballotCacheSize),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.view = rankview.New(ctx)

	entities, err := s.store.ListEntities(ctx)
	if err != nil {
		return fmt.Errorf("prime rank view: %w", err)
	}
	s.view.Prime(entities)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.view)
	s.pool.Start(ctx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("ballotCacheSize", s.ballotCacheSize),
		logger.Int("entities", len(entities)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}

	if s.pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := s.pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
		cancel()
	}

	if s.view != nil {
		_ = s.view.Close()
	}

	select {
	case <-s.stopCh:
		// Already closed.
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// GenerateMatchup proposes two distinct entities to compare in a category.
func (s *Service) GenerateMatchup(ctx context.Context, cat category.Dimension) (model.Matchup, error) {
	m, err := s.selector.Generate(ctx, cat)
	if err != nil {
		if errors.Is(err, matchup.ErrInsufficientCandidates) {
			metrics.RecordMatchupExhausted()
		}
		return model.Matchup{}, err
	}

	metrics.RecordMatchupGenerated()
	return m, nil
}

// SubmitVote commits a vote and fans the post-commit ratings out to the
// leaderboard read model. A non-empty matchupID is a single-use ballot: a
// second vote carrying the same id is rejected with ErrBallotConsumed before
// touching the store.
func (s *Service) SubmitVote(ctx context.Context, matchupID, winnerID, loserID string, cat category.Dimension, userID string) (vote.Result, error) {
	if matchupID != "" {
		if s.guard.Consume(ctx, matchupID) {
			metrics.RecordErrorByComponent("service", "ballot_consumed")
			return vote.Result{}, fmt.Errorf("submit vote: %w: %q", ErrBallotConsumed, matchupID)
		}
	}

	res, err := s.processor.Submit(ctx, winnerID, loserID, cat, userID)
	if err != nil {
		// The ballot stays live when the vote never committed.
		if matchupID != "" {
			s.guard.Release(ctx, matchupID)
		}
		return vote.Result{}, err
	}

	s.publishRatings(ctx, res.Winner, res.Loser)
	return res, nil
}

// UndoVote reverses a committed vote by id. Rejections (unknown id, already
// undone) come back as a structured result, not an error.
func (s *Service) UndoVote(ctx context.Context, voteID string) (vote.UndoResult, error) {
	res, err := s.processor.Undo(ctx, voteID)
	if err != nil {
		return vote.UndoResult{}, err
	}

	if res.Success {
		s.publishRatings(ctx, *res.Winner, *res.Loser)
	}
	return res, nil
}

// PersonalRankings replays one user's vote history into a ranking table.
func (s *Service) PersonalRankings(ctx context.Context, userID string, dim category.Dimension) ([]model.RankedEntity, error) {
	start := time.Now()
	out, err := s.replayer.PersonalRankings(ctx, userID, dim)
	if err != nil {
		metrics.RecordErrorByComponent("service", "replay")
		return nil, err
	}

	metrics.RecordReplay(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// Leaderboard returns the top rows of the shared board for a dimension,
// served from the read model. The limit is clamped to the configured maximum.
func (s *Service) Leaderboard(ctx context.Context, dim category.Dimension, limit int) ([]model.RankedEntity, error) {
	if limit > s.maxLeaderboard {
		limit = s.maxLeaderboard
	}
	return s.view.Top(ctx, dim, limit)
}

// GetStats returns current service statistics.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		WorkerCount: s.workerCount,
		Running:     s.started,
	}
	if !s.started {
		return st
	}

	st.EntityCount = s.view.Count(ctx)
	st.QueueLength = s.queue.Len(ctx)
	st.BallotsHeld = s.guard.Size()
	st.UptimeSecond = int64(time.Since(s.startedAt).Seconds())
	return st
}

// publishRatings enqueues both entities' post-commit ratings for the read
// model. Drops are tolerated; the durable store stays authoritative.
func (s *Service) publishRatings(ctx context.Context, entities ...model.Entity) {
	for _, e := range entities {
		if !s.queue.Enqueue(ctx, eventqueue.Event{EntityID: e.ID, Ratings: e.Ratings}) {
			s.logger.Warn(ctx, "rating event dropped",
				logger.String("entityID", e.ID),
			)
		}
	}
}
