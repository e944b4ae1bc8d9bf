// Package rankview maintains the shared leaderboard read model.
//
// The durable store is authoritative; this view only serves reads. It keeps
// the latest known rating quadruple per entity and publishes immutable
// per-dimension boards as atomic snapshots, so leaderboard queries never
// contend with vote traffic.
//
// Ordering: rating DESC, then entity id ASC (deterministic). Entities with
// equal ratings share a rank.
package rankview

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/pkg/metrics"
)

// Default view configuration constants.
const (
	defaultSnapshotInterval = 1 * time.Second
)

// Snapshot is an immutable view of every dimension's leaderboard.
type Snapshot struct {
	Boards  map[category.Dimension][]model.RankedEntity
	BuiltAt time.Time
}

// View accumulates post-commit ratings and publishes leaderboard snapshots.
type View struct {
	mu      sync.Mutex
	ratings map[string]model.Ratings
	dirty   bool

	snapshotInterval time.Duration
	snapshot         atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// Option applies a configuration option to the View.
type Option func(*View)

// WithSnapshotInterval sets how often dirty state is folded into a new
// published snapshot.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(v *View) {
		if interval > 0 {
			v.snapshotInterval = interval
		}
	}
}

// New constructs a rank view and starts its periodic snapshot publisher.
func New(ctx context.Context, opts ...Option) *View {
	v := &View{
		ratings:          make(map[string]model.Ratings),
		snapshotInterval: defaultSnapshotInterval,
		stopChan:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(v)
	}

	v.startPublisher(ctx)
	return v
}

// Prime seeds the view with the store's current entities, typically at
// startup, and publishes an immediate snapshot.
func (v *View) Prime(entities []model.Entity) {
	v.mu.Lock()
	for _, e := range entities {
		v.ratings[e.ID] = e.Ratings
	}
	v.dirty = true
	v.mu.Unlock()

	v.publish()
}

// Apply records an entity's post-commit ratings. The published snapshot
// catches up on the next publisher tick.
func (v *View) Apply(entityID string, r model.Ratings) {
	v.mu.Lock()
	v.ratings[entityID] = r
	v.dirty = true
	v.mu.Unlock()
}

// Top returns the first n rows of the board for the given dimension.
func (v *View) Top(ctx context.Context, dim category.Dimension, n int) ([]model.RankedEntity, error) {
	if n < 1 {
		return nil, fmt.Errorf("rank view top: %w: %d", ErrInvalidLimit, n)
	}
	if !dim.Valid() {
		return nil, fmt.Errorf("rank view top: %w: %q", category.ErrUnknownCategory, dim)
	}

	snap := v.snapshot.Load()
	if snap == nil {
		v.publish()
		snap = v.snapshot.Load()
	}

	board := snap.Boards[dim]
	if n > len(board) {
		n = len(board)
	}
	return board[:n], nil
}

// Count returns the number of entities tracked by the view.
func (v *View) Count(ctx context.Context) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.ratings)
}

// Close stops the snapshot publisher.
func (v *View) Close() error {
	v.stopOnce.Do(func() { close(v.stopChan) })
	v.wg.Wait()
	return nil
}

// startPublisher republishes snapshots at the configured interval while
// there are unpublished changes.
func (v *View) startPublisher(ctx context.Context) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		ticker := time.NewTicker(v.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-v.stopChan:
				return
			case <-ticker.C:
				v.publish()
			}
		}
	}()
}

// publish rebuilds every dimension's board from the current ratings and
// swaps the snapshot pointer. No-op when nothing changed.
func (v *View) publish() {
	start := time.Now()

	v.mu.Lock()
	if !v.dirty && v.snapshot.Load() != nil {
		v.mu.Unlock()
		return
	}
	ratings := make(map[string]model.Ratings, len(v.ratings))
	for id, r := range v.ratings {
		ratings[id] = r
	}
	v.dirty = false
	v.mu.Unlock()

	dims := append([]category.Dimension{category.Global}, category.VotableDimensions()...)
	boards := make(map[category.Dimension][]model.RankedEntity, len(dims))
	for _, dim := range dims {
		board := make([]model.RankedEntity, 0, len(ratings))
		for id, r := range ratings {
			board = append(board, model.RankedEntity{EntityID: id, Rating: r.Get(dim)})
		}
		sort.Slice(board, func(i, j int) bool {
			if board[i].Rating != board[j].Rating {
				return board[i].Rating > board[j].Rating
			}
			return board[i].EntityID < board[j].EntityID
		})
		assignRanks(board)
		boards[dim] = board
	}

	v.snapshot.Store(&Snapshot{Boards: boards, BuiltAt: time.Now()})

	metrics.RecordRankViewSnapshot(float64(time.Since(start).Milliseconds()), float64(time.Now().Unix()))
	metrics.UpdateRankViewEntities(len(ratings))
}

// assignRanks assigns ranks in place; equal ratings share a rank.
func assignRanks(entries []model.RankedEntity) {
	currentRank := 0
	for i := range entries {
		if i == 0 || entries[i].Rating != entries[i-1].Rating {
			currentRank++
		}
		entries[i].Rank = currentRank
	}
}
