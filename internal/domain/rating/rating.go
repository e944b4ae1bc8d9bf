// Package rating implements the pairwise Elo update at the heart of the
// vote ledger.
//
// Both functions are pure: no hidden state, no randomness, same inputs
// always produce the same outputs. The K-factor is fixed on purpose —
// vote volume does not change rating sensitivity.
package rating

import (
	"fmt"
	"math"
)

// Rating update constants.
const (
	// KFactor controls how much a single vote moves a rating.
	KFactor = 32.0

	logisticBase  = 10.0
	logisticScale = 400.0
)

// Outcome identifies which side of a pair won.
type Outcome uint8

// Pairwise outcomes.
const (
	OutcomeA Outcome = iota // side A wins
	OutcomeB                // side B wins
	OutcomeDraw
)

// actualScores returns the (scoreA, scoreB) pair for an outcome.
func (o Outcome) actualScores() (float64, float64, error) {
	switch o {
	case OutcomeA:
		return 1, 0, nil
	case OutcomeB:
		return 0, 1, nil
	case OutcomeDraw:
		return 0.5, 0.5, nil
	}
	return 0, 0, fmt.Errorf("%w: %d", ErrInvalidOutcome, o)
}

// PairUpdate is the result of a single pairwise rating update.
// DeltaA and DeltaB sum to zero exactly, by construction.
type PairUpdate struct {
	NewA   float64
	NewB   float64
	DeltaA float64
	DeltaB float64
}

// ExpectedScore computes the logistic expectation that A beats B:
// 1 / (1 + 10^((ratingB-ratingA)/400)). The result is in (0, 1).
func ExpectedScore(ratingA, ratingB float64) (float64, error) {
	if err := validate(ratingA); err != nil {
		return 0, err
	}
	if err := validate(ratingB); err != nil {
		return 0, err
	}
	return 1.0 / (1.0 + math.Pow(logisticBase, (ratingB-ratingA)/logisticScale)), nil
}

// UpdatePair computes new ratings and symmetric deltas for a pairwise
// outcome. DeltaB is the exact negation of DeltaA: the update is a zero-sum
// transfer between the two sides.
func UpdatePair(ratingA, ratingB float64, outcome Outcome) (PairUpdate, error) {
	expectedA, err := ExpectedScore(ratingA, ratingB)
	if err != nil {
		return PairUpdate{}, err
	}

	actualA, _, err := outcome.actualScores()
	if err != nil {
		return PairUpdate{}, err
	}

	deltaA := KFactor * (actualA - expectedA)
	deltaB := -deltaA

	return PairUpdate{
		NewA:   ratingA + deltaA,
		NewB:   ratingB + deltaB,
		DeltaA: deltaA,
		DeltaB: deltaB,
	}, nil
}

// validate rejects ratings that cannot participate in the logistic formula.
func validate(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidRating, r)
	}
	return nil
}
