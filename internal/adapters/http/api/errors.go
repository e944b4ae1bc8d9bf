package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// NewKind annotates a sentinel with an operation context.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}
