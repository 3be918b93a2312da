package hits

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientHits is returned when a stage leaves fewer hits than the
	// next stage needs. The event must be skipped.
	ErrInsufficientHits = errors.New("insufficient hits")

	// ErrTooManyHits is returned when an event exceeds the configured hit cap.
	ErrTooManyHits = errors.New("too many hits")

	// ErrNumericDegeneracy marks a four-hit solve with more than one
	// admissible candidate. It is an outcome, not a failure: every candidate
	// is kept.
	ErrNumericDegeneracy = errors.New("four-hit system is degenerate")

	// ErrCombinationOverflow marks a combination window search that ended on
	// its best observed window instead of an exact match. It is an outcome,
	// not a failure.
	ErrCombinationOverflow = errors.New("combination window did not converge")
)

// StageError reports which stage ran out of hits.
//
// It unwraps to ErrInsufficientHits so callers can use errors.Is.
type StageError struct {
	Stage     string
	Remaining int
	Required  int
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %d hits remaining, need %d: %v", e.Stage, e.Remaining, e.Required, ErrInsufficientHits)
}

func (e *StageError) Unwrap() error { return ErrInsufficientHits }

// Insufficient builds a StageError for stage.
func Insufficient(stage string, remaining, required int) error {
	return &StageError{Stage: stage, Remaining: remaining, Required: required}
}
