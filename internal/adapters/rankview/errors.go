package rankview

import "errors"

// Sentinel kinds for rank view errors.
var (
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)
