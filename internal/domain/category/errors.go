package category

import "errors"

// Sentinel kinds for category errors.
var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrNotVotable      = errors.New("category not votable")
)
