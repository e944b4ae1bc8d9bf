// Package ballot guards matchup tokens so each proposed matchup can be
// voted on at most once.
package ballot

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard records consumed matchup tokens.
type Guard interface {
	// Consume atomically checks whether token was already used and records
	// it if not. Returns true if the token was already consumed.
	Consume(ctx context.Context, token string) bool

	// Release forgets a token, allowing it to be consumed again. Used when
	// a vote was rejected after the token had been claimed.
	Release(ctx context.Context, token string)

	Size() int64
}

// inMemoryGuard implements Guard with a bounded seen-set and FIFO eviction.
// Matchups are transient, so evicting the oldest tokens under pressure only
// re-opens matchups nobody is still holding.
type inMemoryGuard struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // tokens in consumption order, oldest first
	maxSize int
	size    atomic.Int64
}

// Option applies a configuration option to the in-memory guard.
type Option func(*inMemoryGuard)

// WithMaxSize bounds the number of remembered tokens.
// A non-positive size means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(g *inMemoryGuard) {
		g.maxSize = maxSize
	}
}

// NewInMemoryGuard creates a bounded in-memory guard.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		maxSize: 100000, // default max size
		seen:    make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Consume atomically checks and records a token.
func (g *inMemoryGuard) Consume(ctx context.Context, token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[token]; ok {
		return true
	}

	if g.maxSize > 0 {
		for len(g.seen) >= g.maxSize && len(g.order) > 0 {
			oldest := g.order[0]
			g.order = g.order[1:]
			if _, ok := g.seen[oldest]; ok {
				delete(g.seen, oldest)
				g.size.Add(-1)
			}
		}
	}

	g.seen[token] = struct{}{}
	g.order = append(g.order, token)
	g.size.Add(1)
	return false
}

// Release forgets a token. The order slice keeps a stale entry; eviction
// skips entries no longer present in the map.
func (g *inMemoryGuard) Release(ctx context.Context, token string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[token]; ok {
		delete(g.seen, token)
		g.size.Add(-1)
	}
}

// Size returns the current number of remembered tokens.
func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
