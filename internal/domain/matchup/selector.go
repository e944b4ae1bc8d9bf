// Package matchup picks pairs of distinct eligible entities to compare.
package matchup

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
)

// CandidateSource lists the entities currently eligible for comparison.
type CandidateSource interface {
	ListEligible(ctx context.Context) ([]string, error)
}

// Selector generates transient matchups. Matchups are never persisted;
// callers get a fresh opaque id and wall-clock timestamp each time.
type Selector struct {
	source CandidateSource

	mu  sync.Mutex // rand.Rand is not safe for concurrent use
	rng *rand.Rand
	now func() time.Time
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRand sets the random source, e.g. a seeded one for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSelector creates a selector with configuration options.
func NewSelector(source CandidateSource, opts ...Option) *Selector {
	s := &Selector{
		source: source,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // matchup sampling, not crypto
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Generate draws two distinct eligible entities uniformly at random without
// replacement for the given category. The two ids carry no ordering: neither
// side is "first" in any rating sense.
func (s *Selector) Generate(ctx context.Context, cat category.Dimension) (model.Matchup, error) {
	if !cat.Votable() {
		return model.Matchup{}, fmt.Errorf("generate matchup: %w: %q", category.ErrNotVotable, cat)
	}

	ids, err := s.source.ListEligible(ctx)
	if err != nil {
		return model.Matchup{}, fmt.Errorf("generate matchup: %w", err)
	}
	if len(ids) < 2 {
		return model.Matchup{}, fmt.Errorf("generate matchup: %w: have %d", ErrInsufficientCandidates, len(ids))
	}

	s.mu.Lock()
	i := s.rng.Intn(len(ids))
	j := s.rng.Intn(len(ids))
	// Reject-and-resample on collision; with n >= 2 this terminates almost
	// surely and in practice within a handful of draws.
	for j == i {
		j = s.rng.Intn(len(ids))
	}
	s.mu.Unlock()

	return model.Matchup{
		ID:        uuid.NewString(),
		Category:  cat,
		EntityA:   ids[i],
		EntityB:   ids[j],
		CreatedAt: s.now(),
	}, nil
}
