package experiment

import (
	"context"
)

// Result is the classified comparison of one control Observation against the
// candidate Observations of a single run. Matched, Mismatched, and Ignored
// form a disjoint partition of Candidates.
type Result struct {
	// Experiment is a back-reference to the experiment that produced this
	// result.
	Experiment *Experiment

	// Control is the control's observation.
	Control *Observation

	// Candidates holds every candidate observation in execution order. The
	// order carries no meaning; it is randomized per run.
	Candidates []*Observation

	// Matched holds candidates equivalent to the control.
	Matched []*Observation

	// Mismatched holds candidates that differed from the control and were
	// not excused by an ignore predicate.
	Mismatched []*Observation

	// Ignored holds mismatching candidates excused by an ignore predicate.
	Ignored []*Observation
}

// IsMatched reports whether every candidate matched: both Mismatched and
// Ignored are empty.
func (r *Result) IsMatched() bool {
	return len(r.Mismatched) == 0 && len(r.Ignored) == 0
}

// IsMismatched reports whether any candidate mismatched without being
// excused.
func (r *Result) IsMismatched() bool {
	return len(r.Mismatched) > 0
}

// IsIgnored reports whether any mismatch was excused.
func (r *Result) IsIgnored() bool {
	return len(r.Ignored) > 0
}

// buildResult classifies candidates against the control. Comparator and
// ignore-predicate failures are contained: a failed compare forces the pair
// to mismatch, a failed ignore predicate is treated as false.
func (e *Experiment) buildResult(ctx context.Context, control *Observation, candidates []*Observation) *Result {
	r := &Result{
		Experiment: e,
		Control:    control,
		Candidates: candidates,
	}
	for _, cand := range candidates {
		if e.observationsMatch(ctx, control, cand) {
			r.Matched = append(r.Matched, cand)
			continue
		}
		if e.shouldIgnoreMismatch(ctx, control, cand) {
			r.Ignored = append(r.Ignored, cand)
		} else {
			r.Mismatched = append(r.Mismatched, cand)
		}
	}
	return r
}

// observationsMatch reports whether a candidate is equivalent to the
// control. Any failure on either side forces a mismatch, as does a failed
// clean, since the values cannot be confirmed equal.
func (e *Experiment) observationsMatch(ctx context.Context, control, cand *Observation) bool {
	if control.Failed() || cand.Failed() {
		return false
	}
	if control.cleanErr || cand.cleanErr {
		return false
	}
	return e.guardBool(ctx, OpCompare, func() (bool, error) {
		return e.comparator(control.CleanedValue(), cand.CleanedValue())
	})
}

// shouldIgnoreMismatch runs the ignore predicates in registration order
// against a pair already determined to mismatch, stopping at the first that
// returns true. A failing predicate is reported and skipped.
func (e *Experiment) shouldIgnoreMismatch(ctx context.Context, control, cand *Observation) bool {
	for _, pred := range e.ignores {
		ok := e.guardBool(ctx, OpIgnore, func() (bool, error) {
			return pred(control, cand)
		})
		if ok {
			return true
		}
	}
	return false
}
