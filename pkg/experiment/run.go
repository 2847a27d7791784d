package experiment

import (
	"context"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("trialrun/experiment")

// Run executes the experiment and returns exactly what the control produced:
// its value, its error unmodified, or its panic re-raised. Candidate
// outcomes never reach the caller unless ErrOnMismatch is enabled, in which
// case an unmatched Result is returned as a *MismatchError after a
// successful control.
//
// Gating: when Enabled or RunIf returns false (or fails), only the control
// executes and every other step is skipped.
func (e *Experiment) Run(ctx context.Context) (any, error) {
	res, err := e.run(ctx)
	if err != nil {
		return nil, err
	}
	return e.controlOutcome(res)
}

// RunResult executes the experiment identically to Run but returns the full
// classified Result for inspection instead of the control outcome. The only
// error it returns is a configuration error. When gating bypasses the
// candidates, the Result holds just the control observation.
func (e *Experiment) RunResult(ctx context.Context) (*Result, error) {
	return e.run(ctx)
}

func (e *Experiment) run(ctx context.Context) (*Result, error) {
	if e.control == nil {
		return nil, ErrNoControl
	}

	ctx, span := tracer.Start(ctx, "experiment.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("experiment.name", e.name),
		attribute.Int("experiment.candidates", len(e.candidates)),
	)

	if !e.shouldRun(ctx) {
		control := e.observe(ctx, controlName, e.control)
		span.SetAttributes(attribute.Bool("experiment.bypassed", true))
		return &Result{Experiment: e, Control: control}, nil
	}

	if e.beforeRun != nil {
		e.guard(ctx, OpBeforeRun, func() error {
			return e.beforeRun(ctx)
		})
	}

	control, candidates := e.executeAll(ctx)
	e.cleanAll(ctx, control, candidates)

	res := e.buildResult(ctx, control, candidates)
	span.SetAttributes(
		attribute.Int("experiment.matched", len(res.Matched)),
		attribute.Int("experiment.mismatched", len(res.Mismatched)),
		attribute.Int("experiment.ignored", len(res.Ignored)),
	)

	e.guard(ctx, OpPublish, func() error {
		return e.callbacks.Publish(ctx, res)
	})

	return res, nil
}

// shouldRun evaluates the Enabled and RunIf gates. Either gate failing is
// reported and treated as false: fail safe toward not running extra work.
func (e *Experiment) shouldRun(ctx context.Context) bool {
	enabled := e.guardBool(ctx, OpEnabled, func() (bool, error) {
		return e.callbacks.Enabled(ctx)
	})
	if !enabled {
		return false
	}
	if e.runIf == nil {
		return true
	}
	return e.guardBool(ctx, OpRunIf, func() (bool, error) {
		return e.runIf(ctx)
	})
}

// executeAll runs the control and every candidate exactly once, in a fresh
// random permutation. Randomizing the order on every call keeps callers and
// candidates from relying on a fixed sequence.
func (e *Experiment) executeAll(ctx context.Context) (*Observation, []*Observation) {
	behaviors := make([]namedBehavior, 0, len(e.candidates)+1)
	behaviors = append(behaviors, namedBehavior{name: controlName, fn: e.control})
	behaviors = append(behaviors, e.candidates...)
	rand.Shuffle(len(behaviors), func(i, j int) {
		behaviors[i], behaviors[j] = behaviors[j], behaviors[i]
	})

	observations := make([]*Observation, len(behaviors))
	if e.parallel {
		var g errgroup.Group
		for i, nb := range behaviors {
			i, nb := i, nb
			g.Go(func() error {
				observations[i] = e.observe(ctx, nb.name, nb.fn)
				return nil
			})
		}
		g.Wait() //nolint:errcheck // observe never returns an error
	} else {
		for i, nb := range behaviors {
			observations[i] = e.observe(ctx, nb.name, nb.fn)
		}
	}

	var control *Observation
	candidates := make([]*Observation, 0, len(e.candidates))
	for _, o := range observations {
		if o.Name == controlName {
			control = o
		} else {
			candidates = append(candidates, o)
		}
	}
	return control, candidates
}

// cleanAll applies the configured cleaner to every successful observation.
// A failed clean is reported under OpClean and marks the observation so the
// affected pairs classify as mismatched.
func (e *Experiment) cleanAll(ctx context.Context, control *Observation, candidates []*Observation) {
	if e.cleaner == nil {
		return
	}
	for _, o := range append([]*Observation{control}, candidates...) {
		if o.Failed() {
			continue
		}
		cleaned, ok := e.guardValue(ctx, OpClean, func() (any, error) {
			return e.cleaner(o.Value)
		})
		if ok {
			o.cleaned = cleaned
			o.cleanApplied = true
		} else {
			o.cleanErr = true
		}
	}
}

// controlOutcome reproduces the control's outcome for the caller.
func (e *Experiment) controlOutcome(res *Result) (any, error) {
	control := res.Control
	if control.PanicValue != nil {
		panic(control.PanicValue)
	}
	if control.Err != nil {
		return nil, control.Err
	}
	if e.errOnMismatch && !res.IsMatched() {
		return nil, &MismatchError{Name: e.name, Result: res}
	}
	return control.Value, nil
}

// Guarded extension boundary. A returned error is routed to
// Callbacks.Raised, a recovered panic to Callbacks.Thrown, and the run
// continues. This is the single mechanism keeping instrumentation bugs out
// of the production control path.

func (e *Experiment) guard(ctx context.Context, op Operation, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.callbacks.Thrown(ctx, e, op, r)
		}
	}()
	if err := fn(); err != nil {
		e.callbacks.Raised(ctx, e, op, err)
	}
}

// guardBool wraps a predicate extension point; any contained failure yields
// false.
func (e *Experiment) guardBool(ctx context.Context, op Operation, fn func() (bool, error)) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			e.callbacks.Thrown(ctx, e, op, r)
			result = false
		}
	}()
	ok, err := fn()
	if err != nil {
		e.callbacks.Raised(ctx, e, op, err)
		return false
	}
	return ok
}

// guardValue wraps a value-producing extension point; the second return
// reports whether the value is usable.
func (e *Experiment) guardValue(ctx context.Context, op Operation, fn func() (any, error)) (value any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.callbacks.Thrown(ctx, e, op, r)
			value, ok = nil, false
		}
	}()
	v, err := fn()
	if err != nil {
		e.callbacks.Raised(ctx, e, op, err)
		return nil, false
	}
	return v, true
}
