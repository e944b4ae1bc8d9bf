package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrVoteNotFound   = errors.New("vote not found")
	ErrAlreadyUndone  = errors.New("vote already undone")
)
