package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrBallotConsumed = errors.New("matchup already voted on")
)
