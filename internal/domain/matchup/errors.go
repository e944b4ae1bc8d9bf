package matchup

import "errors"

// Sentinel kinds for matchup errors.
var (
	// ErrInsufficientCandidates signals fewer than two eligible entities.
	// It is a transient business condition, not a failure: callers present
	// a specific "no matchup available" empty state.
	ErrInsufficientCandidates = errors.New("insufficient candidates for a matchup")
)
