package experiment

import (
	"context"
)

// Operation identifies the guarded extension point that produced a contained
// failure. It is passed to Callbacks.Raised and Callbacks.Thrown.
type Operation string

const (
	OpEnabled   Operation = "enabled"
	OpRunIf     Operation = "run_if"
	OpBeforeRun Operation = "before_run"
	OpCompare   Operation = "compare"
	OpClean     Operation = "clean"
	OpIgnore    Operation = "ignore"
	OpPublish   Operation = "publish"
)

// Callbacks is the capability set a host application supplies to customize
// experiment behavior. The runner depends only on this interface.
//
// Every method has a usable default in DefaultCallbacks; implementations
// should embed DefaultCallbacks and override what they need.
type Callbacks interface {
	// Enabled reports whether candidates should run at all. When it returns
	// false, errors, or panics, only the control executes.
	Enabled(ctx context.Context) (bool, error)

	// Publish delivers a fully classified Result to an external sink. It is
	// invoked exactly once per run that passes gating. Its failures never
	// affect the value returned to the caller.
	Publish(ctx context.Context, r *Result) error

	// DefaultMetadata returns base metadata merged under the metadata
	// supplied at construction. Supplied keys win per key.
	DefaultMetadata() map[string]any

	// Raised receives a structured failure (a returned error) from the
	// guarded extension point identified by op.
	Raised(ctx context.Context, e *Experiment, op Operation, err error)

	// Thrown receives an unstructured failure (a recovered panic value) from
	// the guarded extension point identified by op.
	Thrown(ctx context.Context, e *Experiment, op Operation, value any)
}

// DefaultCallbacks implements Callbacks with the documented defaults:
// always enabled, no-op publish, no default metadata, and silent Raised and
// Thrown hooks. It is intended for embedding.
type DefaultCallbacks struct{}

var _ Callbacks = DefaultCallbacks{}

func (DefaultCallbacks) Enabled(context.Context) (bool, error) { return true, nil }

func (DefaultCallbacks) Publish(context.Context, *Result) error { return nil }

func (DefaultCallbacks) DefaultMetadata() map[string]any { return nil }

func (DefaultCallbacks) Raised(context.Context, *Experiment, Operation, error) {}

func (DefaultCallbacks) Thrown(context.Context, *Experiment, Operation, any) {}
