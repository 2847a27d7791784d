package experiment

import (
	"context"
	"time"
)

// Observation is the captured outcome of executing one named behavior once.
// Exactly one of Value, Err, or PanicValue is populated. Observations are
// created once per behavior per run and never modified afterwards.
type Observation struct {
	// Experiment is a back-reference to the experiment that produced this
	// observation.
	Experiment *Experiment

	// Name is the behavior that produced this observation ("control" or a
	// candidate name).
	Name string

	// Value is the behavior's return value when it succeeded.
	Value any

	// Err is the behavior's returned error, if any.
	Err error

	// PanicValue is the recovered value when the behavior panicked.
	PanicValue any

	// Duration is the elapsed time of the behavior call.
	Duration time.Duration

	cleaned      any
	cleanApplied bool
	cleanErr     bool
}

// Failed reports whether the behavior returned an error or panicked.
func (o *Observation) Failed() bool {
	return o.Err != nil || o.PanicValue != nil
}

// CleanedValue returns the value after the experiment's cleaner ran, or the
// raw Value when no cleaner ran or the clean failed.
func (o *Observation) CleanedValue() any {
	if o.cleanApplied {
		return o.cleaned
	}
	return o.Value
}

// observe runs one behavior and captures its outcome. A panic inside the
// behavior is recovered into PanicValue; the control's panic is re-raised
// later by Run, candidates' never escape.
func (e *Experiment) observe(ctx context.Context, name string, fn Behavior) *Observation {
	o := &Observation{Experiment: e, Name: name}
	start := time.Now()
	func() {
		defer func() {
			if r := recover(); r != nil {
				o.Value = nil
				o.PanicValue = r
			}
		}()
		o.Value, o.Err = fn(ctx)
	}()
	o.Duration = time.Since(start)
	return o
}
