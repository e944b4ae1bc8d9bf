package rating

import "errors"

// Sentinel kinds for rating math errors.
var (
	ErrInvalidRating  = errors.New("rating value is invalid")
	ErrInvalidOutcome = errors.New("unknown pairwise outcome")
)
