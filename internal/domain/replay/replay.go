// Package replay reconstructs per-user ranking tables from the vote ledger.
//
// A personal ranking answers "what would the ratings look like if only this
// user's votes counted". That is a different quantity from the shared rating
// trajectory, so the stored deltas are deliberately not reused: outcomes are
// re-derived from each record and re-run against an evolving scratch table
// seeded at the baseline. Undone votes never took place from this
// perspective. The table is recomputed from scratch on every call, which
// keeps it correct when historical votes are undone.
package replay

import (
	"context"
	"fmt"
	"sort"

	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/internal/domain/rating"
)

// LedgerSource provides the reads a replay needs. Replays never write.
type LedgerSource interface {
	// ListEligible returns the ids of all active entities.
	ListEligible(ctx context.Context) ([]string, error)

	// ListByUser returns a user's non-undone votes ordered by creation time
	// ascending. A nil category selects votes across all categories.
	ListByUser(ctx context.Context, userID string, cat *category.Dimension) ([]model.VoteRecord, error)
}

// Replayer folds a user's vote history into a ranking table.
type Replayer struct {
	source LedgerSource
}

// NewReplayer creates a replayer over the given ledger source.
func NewReplayer(source LedgerSource) *Replayer {
	return &Replayer{source: source}
}

// PersonalRankings replays userID's votes from a fresh baseline and returns
// the resulting table ordered by rating descending, ties broken by entity id
// so repeated calls are reproducible.
//
// The global view replays all of the user's votes across every category; a
// category view replays only that category's votes. Either way the scratch
// table holds a single rating per entity.
func (r *Replayer) PersonalRankings(ctx context.Context, userID string, dim category.Dimension) ([]model.RankedEntity, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("personal rankings: %w: %q", category.ErrUnknownCategory, dim)
	}

	ids, err := r.source.ListEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("personal rankings: %w", err)
	}

	scratch := make(map[string]float64, len(ids))
	for _, id := range ids {
		scratch[id] = model.BaselineRating
	}

	var filter *category.Dimension
	if dim != category.Global {
		filter = &dim
	}
	records, err := r.source.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("personal rankings: %w", err)
	}

	for _, rec := range records {
		// Votes may reference entities that have since been deactivated;
		// they still shaped this user's history, so seed them on demand.
		winner, ok := scratch[rec.WinnerID]
		if !ok {
			winner = model.BaselineRating
		}
		loser, ok := scratch[rec.LoserID]
		if !ok {
			loser = model.BaselineRating
		}

		upd, err := rating.UpdatePair(winner, loser, rating.OutcomeA)
		if err != nil {
			return nil, fmt.Errorf("personal rankings: replay vote %s: %w", rec.ID, err)
		}
		scratch[rec.WinnerID] = upd.NewA
		scratch[rec.LoserID] = upd.NewB
	}

	out := make([]model.RankedEntity, 0, len(scratch))
	for id, score := range scratch {
		out = append(out, model.RankedEntity{EntityID: id, Rating: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].EntityID < out[j].EntityID
	})
	assignRanks(out)

	return out, nil
}

// assignRanks assigns ranks in place; entities with equal ratings share a
// rank and the next distinct rating takes the following rank.
func assignRanks(entries []model.RankedEntity) {
	currentRank := 0
	for i := range entries {
		if i == 0 || entries[i].Rating != entries[i-1].Rating {
			currentRank++
		}
		entries[i].Rank = currentRank
	}
}
