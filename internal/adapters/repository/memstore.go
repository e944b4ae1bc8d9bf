package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/pkg/metrics"
)

// MemStore is an in-memory Store implementation for tests and
// database-less runs.
//
// A single mutex guards all state and is held for the duration of an InTx
// unit, so units are fully serialized: the rating writes and the ledger
// append of one vote are never interleaved with another caller's. Mutations
// inside a unit are staged and only folded into the base state on commit.
type MemStore struct {
	mu        sync.Mutex
	entities  map[string]*entityRow
	votes     map[string]model.VoteRecord
	voteOrder []string // vote ids in append order
}

type entityRow struct {
	name    string
	ratings model.Ratings
	active  bool
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		entities: make(map[string]*entityRow),
		votes:    make(map[string]model.VoteRecord),
	}
}

// Seed registers entities at the baseline rating. Existing rows are
// overwritten; intended for startup seeding and tests.
func (s *MemStore) Seed(ctx context.Context, entities []model.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		r := e.Ratings
		if r == (model.Ratings{}) {
			r = model.NewRatings()
		}
		s.entities[e.ID] = &entityRow{name: e.Name, ratings: r, active: true}
	}
	return nil
}

// Deactivate removes an entity from matchup eligibility without touching
// its ratings or history.
func (s *MemStore) Deactivate(ctx context.Context, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.entities[entityID]
	if !ok {
		return fmt.Errorf("deactivate %q: %w", entityID, ErrEntityNotFound)
	}
	row.active = false
	return nil
}

// InTx implements Store.InTx. The store mutex spans the whole unit.
func (s *MemStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:       s,
		ratings: make(map[string]model.Ratings),
		undone:  make(map[string]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commitLocked()

	metrics.RecordStoreTxLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// ReadRatings implements RatingStore.ReadRatings.
func (s *MemStore) ReadRatings(ctx context.Context, entityID string) (model.Ratings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRatingsLocked(entityID)
}

// WriteRatings implements RatingStore.WriteRatings.
func (s *MemStore) WriteRatings(ctx context.Context, entityID string, r model.Ratings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRatingsLocked(entityID, r)
}

// AddDeltas implements RatingStore.AddDeltas.
func (s *MemStore) AddDeltas(ctx context.Context, entityID string, cat category.Dimension, deltaGlobal, deltaCategory float64) (model.Ratings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.readRatingsLocked(entityID)
	if err != nil {
		return model.Ratings{}, err
	}
	r.Add(category.Global, deltaGlobal)
	r.Add(cat, deltaCategory)
	s.entities[entityID].ratings = r
	return r, nil
}

// ListEligible implements RatingStore.ListEligible.
func (s *MemStore) ListEligible(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listEligibleLocked(), nil
}

// ListEntities implements RatingStore.ListEntities.
func (s *MemStore) ListEntities(ctx context.Context) ([]model.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Entity, 0, len(s.entities))
	for id, row := range s.entities {
		if !row.active {
			continue
		}
		out = append(out, model.Entity{ID: id, Name: row.name, Ratings: row.ratings})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Append implements VoteLedger.Append.
func (s *MemStore) Append(ctx context.Context, rec model.VoteRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(rec), nil
}

// Get implements VoteLedger.Get.
func (s *MemStore) Get(ctx context.Context, voteID string) (model.VoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(voteID)
}

// MarkUndone implements VoteLedger.MarkUndone.
func (s *MemStore) MarkUndone(ctx context.Context, voteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markUndoneLocked(voteID, nil)
}

// ListByUser implements VoteLedger.ListByUser.
func (s *MemStore) ListByUser(ctx context.Context, userID string, cat *category.Dimension) ([]model.VoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listByUserLocked(userID, cat, nil), nil
}

// Locked variants shared between the base store and in-flight units.

func (s *MemStore) readRatingsLocked(entityID string) (model.Ratings, error) {
	row, ok := s.entities[entityID]
	if !ok {
		return model.Ratings{}, fmt.Errorf("read ratings %q: %w", entityID, ErrEntityNotFound)
	}
	return row.ratings, nil
}

func (s *MemStore) writeRatingsLocked(entityID string, r model.Ratings) error {
	row, ok := s.entities[entityID]
	if !ok {
		return fmt.Errorf("write ratings %q: %w", entityID, ErrEntityNotFound)
	}
	row.ratings = r
	return nil
}

func (s *MemStore) listEligibleLocked() []string {
	ids := make([]string, 0, len(s.entities))
	for id, row := range s.entities {
		if row.active {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *MemStore) appendLocked(rec model.VoteRecord) string {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.votes[rec.ID] = rec
	s.voteOrder = append(s.voteOrder, rec.ID)
	return rec.ID
}

func (s *MemStore) getLocked(voteID string) (model.VoteRecord, error) {
	rec, ok := s.votes[voteID]
	if !ok {
		return model.VoteRecord{}, fmt.Errorf("get vote %q: %w", voteID, ErrVoteNotFound)
	}
	return rec, nil
}

// markUndoneLocked flips the undone flag, consulting staged flags first so
// two undos inside overlapping units cannot both succeed.
func (s *MemStore) markUndoneLocked(voteID string, staged map[string]bool) error {
	rec, ok := s.votes[voteID]
	if !ok {
		return fmt.Errorf("mark undone %q: %w", voteID, ErrVoteNotFound)
	}
	if rec.Undone || (staged != nil && staged[voteID]) {
		return fmt.Errorf("mark undone %q: %w", voteID, ErrAlreadyUndone)
	}
	if staged != nil {
		staged[voteID] = true
		return nil
	}
	rec.Undone = true
	s.votes[voteID] = rec
	return nil
}

func (s *MemStore) listByUserLocked(userID string, cat *category.Dimension, staged map[string]bool) []model.VoteRecord {
	out := make([]model.VoteRecord, 0)
	for _, id := range s.voteOrder {
		rec := s.votes[id]
		if rec.UserID != userID || rec.Undone || (staged != nil && staged[id]) {
			continue
		}
		if cat != nil && rec.Category != *cat {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// memTx stages mutations for one atomic unit. The store mutex is held by
// InTx for the unit's whole lifetime, so no further locking happens here.
type memTx struct {
	s        *MemStore
	ratings  map[string]model.Ratings // staged rating state by entity id
	appended []model.VoteRecord
	undone   map[string]bool
}

func (t *memTx) commitLocked() {
	for id, r := range t.ratings {
		t.s.entities[id].ratings = r
	}
	for _, rec := range t.appended {
		t.s.appendLocked(rec)
	}
	for id := range t.undone {
		rec := t.s.votes[id]
		rec.Undone = true
		t.s.votes[id] = rec
	}
}

func (t *memTx) ReadRatings(ctx context.Context, entityID string) (model.Ratings, error) {
	if r, ok := t.ratings[entityID]; ok {
		return r, nil
	}
	return t.s.readRatingsLocked(entityID)
}

func (t *memTx) WriteRatings(ctx context.Context, entityID string, r model.Ratings) error {
	if _, ok := t.s.entities[entityID]; !ok {
		return fmt.Errorf("write ratings %q: %w", entityID, ErrEntityNotFound)
	}
	t.ratings[entityID] = r
	return nil
}

func (t *memTx) AddDeltas(ctx context.Context, entityID string, cat category.Dimension, deltaGlobal, deltaCategory float64) (model.Ratings, error) {
	r, err := t.ReadRatings(ctx, entityID)
	if err != nil {
		return model.Ratings{}, err
	}
	r.Add(category.Global, deltaGlobal)
	r.Add(cat, deltaCategory)
	t.ratings[entityID] = r
	return r, nil
}

func (t *memTx) ListEligible(ctx context.Context) ([]string, error) {
	return t.s.listEligibleLocked(), nil
}

func (t *memTx) ListEntities(ctx context.Context) ([]model.Entity, error) {
	out := make([]model.Entity, 0, len(t.s.entities))
	for id, row := range t.s.entities {
		if !row.active {
			continue
		}
		r := row.ratings
		if staged, ok := t.ratings[id]; ok {
			r = staged
		}
		out = append(out, model.Entity{ID: id, Name: row.name, Ratings: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) Append(ctx context.Context, rec model.VoteRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	t.appended = append(t.appended, rec)
	return rec.ID, nil
}

func (t *memTx) Get(ctx context.Context, voteID string) (model.VoteRecord, error) {
	for _, rec := range t.appended {
		if rec.ID == voteID {
			return rec, nil
		}
	}
	rec, err := t.s.getLocked(voteID)
	if err != nil {
		return model.VoteRecord{}, err
	}
	if t.undone[voteID] {
		rec.Undone = true
	}
	return rec, nil
}

func (t *memTx) MarkUndone(ctx context.Context, voteID string) error {
	return t.s.markUndoneLocked(voteID, t.undone)
}

func (t *memTx) ListByUser(ctx context.Context, userID string, cat *category.Dimension) ([]model.VoteRecord, error) {
	return t.s.listByUserLocked(userID, cat, t.undone), nil
}
