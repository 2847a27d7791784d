// Package experiment runs a trusted control code path alongside experimental
// candidate code paths, compares their outcomes, and reports discrepancies
// without ever changing what the caller observes.
//
// # Overview
//
// An Experiment holds one control behavior and any number of named candidate
// behaviors. Run executes every behavior in randomized order, captures each
// outcome as an Observation, classifies candidates against the control into a
// Result (matched, mismatched, ignored), publishes the Result, and returns
// exactly what the control produced. Candidates are evaluated for analysis
// only: a candidate error, panic, or wrong value never reaches the caller.
//
// # Usage
//
// Build an experiment, attach behaviors, run it:
//
//	exp := experiment.New("widget-pricing")
//	exp, err := exp.Use(func(ctx context.Context) (any, error) {
//	    return legacyPrice(ctx, w)
//	})
//	if err != nil {
//	    return 0, err
//	}
//	exp, err = exp.Try("rewrite", func(ctx context.Context) (any, error) {
//	    return rewrittenPrice(ctx, w)
//	})
//	if err != nil {
//	    return 0, err
//	}
//	v, err := exp.Run(ctx)
//
// Builder methods never mutate the receiver; each returns an updated copy, so
// a configured Experiment may be run repeatedly and concurrently.
//
// # Failure containment
//
// Every extension point other than the control (Enabled, RunIf, BeforeRun,
// compare, clean, ignore, publish) executes inside a guarded boundary. A
// returned error is routed to Callbacks.Raised, a panic to Callbacks.Thrown,
// and the run continues. Control failures are the one channel never isolated:
// a control error is returned unmodified and a control panic is re-panicked,
// so calling the experiment behaves exactly like calling the control directly.
package experiment
