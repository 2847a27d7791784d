package experiment

import (
	"errors"
	"fmt"
)

// Configuration errors. These are the only failures, besides a control
// failure, that a caller ever sees. They surface at the point of misuse,
// never deferred to publish time.
var (
	// ErrNoControl is returned by Run when no control behavior is registered.
	ErrNoControl = errors.New("experiment: no control behavior registered")

	// ErrControlExists is returned by Use when a control is already set.
	ErrControlExists = errors.New("experiment: control behavior already registered")

	// ErrDuplicateBehavior is returned by Try when the candidate name is
	// "control" or collides with an existing candidate.
	ErrDuplicateBehavior = errors.New("experiment: duplicate behavior name")
)

// MismatchError is returned by Run instead of the control value when
// ErrOnMismatch is enabled and the run produced an unmatched Result.
// Control failures take precedence: a failing control propagates as itself.
type MismatchError struct {
	// Name is the experiment name.
	Name string

	// Result is the full classified result of the mismatching run.
	Result *Result
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("experiment %q observed %d mismatched candidate(s)",
		e.Name, len(e.Result.Mismatched))
}
