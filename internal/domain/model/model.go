// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/plateduel/plateduel/internal/domain/category"
)

// BaselineRating is the rating every entity starts from on every dimension.
const BaselineRating = 1500.0

// Ratings is the mutable rating quadruple of an entity: one global rating
// plus one rating per votable category.
type Ratings struct {
	Global     float64 `json:"global"`
	Value      float64 `json:"value"`
	Aesthetics float64 `json:"aesthetics"`
	Speed      float64 `json:"speed"`
}

// NewRatings returns a quadruple with every dimension at the baseline.
func NewRatings() Ratings {
	return Ratings{
		Global:     BaselineRating,
		Value:      BaselineRating,
		Aesthetics: BaselineRating,
		Speed:      BaselineRating,
	}
}

// Get returns the rating for the given dimension.
func (r Ratings) Get(d category.Dimension) float64 {
	switch d {
	case category.Global:
		return r.Global
	case category.Value:
		return r.Value
	case category.Aesthetics:
		return r.Aesthetics
	case category.Speed:
		return r.Speed
	}
	return 0
}

// Add applies a signed delta to the rating for the given dimension.
func (r *Ratings) Add(d category.Dimension, delta float64) {
	switch d {
	case category.Global:
		r.Global += delta
	case category.Value:
		r.Value += delta
	case category.Aesthetics:
		r.Aesthetics += delta
	case category.Speed:
		r.Speed += delta
	}
}

// Entity is a rated item together with its current ratings.
type Entity struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Ratings Ratings `json:"ratings"`
}

// VoteRecord is one append-only ledger row. It captures the four signed
// deltas a vote applied (not the absolute post-vote values) so the exact
// mutation can be reversed later regardless of intervening activity.
// Records are created once, flipped to undone at most once, never deleted.
type VoteRecord struct {
	ID       string             `json:"id"`
	WinnerID string             `json:"winner_id"`
	LoserID  string             `json:"loser_id"`
	Category category.Dimension `json:"category"`

	DeltaGlobalWinner   float64 `json:"delta_global_winner"`
	DeltaGlobalLoser    float64 `json:"delta_global_loser"`
	DeltaCategoryWinner float64 `json:"delta_category_winner"`
	DeltaCategoryLoser  float64 `json:"delta_category_loser"`

	Undone    bool      `json:"undone"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Matchup is a transient proposed pairing of two distinct entities for one
// category. It is regenerated on demand and never persisted.
type Matchup struct {
	ID        string             `json:"id"`
	Category  category.Dimension `json:"category"`
	EntityA   string             `json:"entity_a"`
	EntityB   string             `json:"entity_b"`
	CreatedAt time.Time          `json:"created_at"`
}

// RatingEvent carries an entity's post-commit ratings to the leaderboard
// read model after a vote or undo has been durably applied.
type RatingEvent struct {
	EntityID string
	Ratings  Ratings
}

// RankedEntity is one row of a ranking: shared leaderboard or personal replay.
type RankedEntity struct {
	Rank     int     `json:"rank"`
	EntityID string  `json:"entity_id"`
	Rating   float64 `json:"rating"`
}
