// Package repository defines the transactional rating store and vote ledger
// contracts, plus their in-memory and PostgreSQL implementations.
package repository

import (
	"context"

	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
)

// RatingStore provides durable access to entity rating fields. Entity rows
// are shared, mutably, across all callers; the core is never the sole writer.
type RatingStore interface {
	// ReadRatings returns the current rating quadruple for an entity.
	// Returns ErrEntityNotFound if the entity is unknown.
	ReadRatings(ctx context.Context, entityID string) (model.Ratings, error)

	// WriteRatings overwrites an entity's rating quadruple. Reserved for
	// administrative resets; votes and undos go through AddDeltas.
	WriteRatings(ctx context.Context, entityID string, r model.Ratings) error

	// AddDeltas applies signed deltas to the global rating and one category
	// rating of an entity as a single read-modify-write, returning the
	// post-update ratings. This is the only rating mutation the vote and
	// undo paths use: expressed as +delta, two concurrent callers touching
	// the same entity serialize instead of overwriting each other.
	AddDeltas(ctx context.Context, entityID string, cat category.Dimension, deltaGlobal, deltaCategory float64) (model.Ratings, error)

	// ListEligible returns the ids of all active entities.
	ListEligible(ctx context.Context) ([]string, error)

	// ListEntities returns all active entities with their current ratings.
	ListEntities(ctx context.Context) ([]model.Entity, error)
}

// VoteLedger is the durable append-only store of vote records. Rows are
// created once, flipped to undone at most once, never deleted.
type VoteLedger interface {
	// Append persists a new vote record and returns its id. A missing id or
	// creation timestamp is assigned by the ledger.
	Append(ctx context.Context, rec model.VoteRecord) (string, error)

	// Get returns a vote record by id.
	// Returns ErrVoteNotFound if no such vote exists.
	Get(ctx context.Context, voteID string) (model.VoteRecord, error)

	// MarkUndone flips a vote's undone flag. Concurrent calls on the same
	// vote serialize so exactly one succeeds; the rest observe
	// ErrAlreadyUndone.
	MarkUndone(ctx context.Context, voteID string) error

	// ListByUser returns a user's non-undone votes ordered by creation time
	// ascending (ties broken by id). A nil category returns votes across
	// all categories.
	ListByUser(ctx context.Context, userID string, cat *category.Dimension) ([]model.VoteRecord, error)
}

// Tx is the view of the store inside one atomic unit. Every mutation made
// through it commits or rolls back together with the rest of the unit.
type Tx interface {
	RatingStore
	VoteLedger
}

// Store combines rating and ledger access behind one transaction boundary.
// The core names the unit of atomicity by grouping calls inside InTx; the
// implementation is responsible for making that unit atomic.
type Store interface {
	RatingStore
	VoteLedger

	// InTx runs fn inside a single atomic unit. If fn returns an error the
	// unit is rolled back and the error is returned unchanged; otherwise
	// the unit commits before InTx returns.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
