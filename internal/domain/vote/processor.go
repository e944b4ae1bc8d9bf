// Package vote orchestrates the apply/undo protocol over the rating ledger.
//
// A vote atomically moves four numbers: both entities' global ratings and
// both entities' ratings in the voted category. The ledger row stores the
// four signed deltas rather than the absolute post-vote values; subtracting
// exactly those deltas later is the only reversal that stays correct no
// matter what other votes have touched the entities in between.
package vote

import (
	"context"
	"errors"
	"fmt"

	"github.com/plateduel/plateduel/internal/adapters/repository"
	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/internal/domain/rating"
	"github.com/plateduel/plateduel/pkg/metrics"
)

// Undo rejection reasons reported as structured results, not errors.
const (
	ReasonNotFound      = "not found"
	ReasonAlreadyUndone = "already undone"
)

// Result is the outcome of a committed vote.
type Result struct {
	VoteID string
	Winner model.Entity
	Loser  model.Entity
}

// UndoResult is the structured outcome of an undo request. A vote that is
// missing or already undone is a rejection, not an error: Success is false
// and Reason says why.
type UndoResult struct {
	Success bool
	Reason  string
	Winner  *model.Entity
	Loser   *model.Entity
}

// Processor applies and reverses votes inside the store's atomic unit.
type Processor struct {
	store repository.Store
}

// NewProcessor creates a vote processor over the given store.
func NewProcessor(store repository.Store) *Processor {
	return &Processor{store: store}
}

// Submit validates and commits a vote: both entities' global and category
// ratings move by symmetric Elo deltas, and a ledger row capturing those
// deltas is appended — all inside one storage transaction. This is the only
// path by which rating fields change in normal operation.
func (p *Processor) Submit(ctx context.Context, winnerID, loserID string, cat category.Dimension, userID string) (Result, error) {
	if winnerID == loserID {
		return Result{}, fmt.Errorf("submit vote: %w: %q vs itself", ErrInvalidVote, winnerID)
	}
	if !cat.Votable() {
		return Result{}, fmt.Errorf("submit vote: %w: %q", category.ErrNotVotable, cat)
	}

	var res Result
	err := p.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		winner, err := tx.ReadRatings(ctx, winnerID)
		if err != nil {
			return err
		}
		loser, err := tx.ReadRatings(ctx, loserID)
		if err != nil {
			return err
		}

		global, err := rating.UpdatePair(winner.Global, loser.Global, rating.OutcomeA)
		if err != nil {
			return fmt.Errorf("global update: %w", err)
		}
		inCat, err := rating.UpdatePair(winner.Get(cat), loser.Get(cat), rating.OutcomeA)
		if err != nil {
			return fmt.Errorf("%s update: %w", cat, err)
		}

		newWinner, err := tx.AddDeltas(ctx, winnerID, cat, global.DeltaA, inCat.DeltaA)
		if err != nil {
			return err
		}
		newLoser, err := tx.AddDeltas(ctx, loserID, cat, global.DeltaB, inCat.DeltaB)
		if err != nil {
			return err
		}

		voteID, err := tx.Append(ctx, model.VoteRecord{
			WinnerID:            winnerID,
			LoserID:             loserID,
			Category:            cat,
			DeltaGlobalWinner:   global.DeltaA,
			DeltaGlobalLoser:    global.DeltaB,
			DeltaCategoryWinner: inCat.DeltaA,
			DeltaCategoryLoser:  inCat.DeltaB,
			UserID:              userID,
		})
		if err != nil {
			return err
		}

		res = Result{
			VoteID: voteID,
			Winner: model.Entity{ID: winnerID, Ratings: newWinner},
			Loser:  model.Entity{ID: loserID, Ratings: newLoser},
		}
		return nil
	})
	if err != nil {
		metrics.RecordErrorByComponent("vote", "submit")
		return Result{}, err
	}

	metrics.RecordVoteProcessed()
	return res, nil
}

// Undo reverses one specific vote by subtracting its exact stored deltas
// from both entities' current ratings and marking the record undone, all in
// one storage transaction. Undo is vote-id-addressable and composes with any
// interleaving of votes on other pairs; a vote can be undone at most once.
func (p *Processor) Undo(ctx context.Context, voteID string) (UndoResult, error) {
	var res UndoResult
	err := p.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// Claim the record first: the conditional flip serializes
		// concurrent undo attempts on the same vote.
		if err := tx.MarkUndone(ctx, voteID); err != nil {
			return err
		}

		rec, err := tx.Get(ctx, voteID)
		if err != nil {
			return err
		}

		restoredWinner, err := tx.AddDeltas(ctx, rec.WinnerID, rec.Category, -rec.DeltaGlobalWinner, -rec.DeltaCategoryWinner)
		if err != nil {
			return err
		}
		restoredLoser, err := tx.AddDeltas(ctx, rec.LoserID, rec.Category, -rec.DeltaGlobalLoser, -rec.DeltaCategoryLoser)
		if err != nil {
			return err
		}

		res = UndoResult{
			Success: true,
			Winner:  &model.Entity{ID: rec.WinnerID, Ratings: restoredWinner},
			Loser:   &model.Entity{ID: rec.LoserID, Ratings: restoredLoser},
		}
		return nil
	})

	switch {
	case err == nil:
		metrics.RecordVoteUndone()
		return res, nil
	case errors.Is(err, repository.ErrVoteNotFound):
		metrics.RecordUndoRejection("not_found")
		return UndoResult{Success: false, Reason: ReasonNotFound}, nil
	case errors.Is(err, repository.ErrAlreadyUndone):
		metrics.RecordUndoRejection("already_undone")
		return UndoResult{Success: false, Reason: ReasonAlreadyUndone}, nil
	default:
		metrics.RecordErrorByComponent("vote", "undo")
		return UndoResult{}, err
	}
}
