package vote

import "errors"

// Sentinel kinds for vote errors.
var (
	// ErrInvalidVote rejects a vote before any mutation, e.g. when winner
	// and loser are the same entity.
	ErrInvalidVote = errors.New("invalid vote")
)
