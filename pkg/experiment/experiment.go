package experiment

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// controlName is the reserved behavior name for the control.
const controlName = "control"

// Behavior is one code path under experiment. Behaviors are synchronous;
// any timeout discipline belongs to the caller's closure.
type Behavior func(ctx context.Context) (any, error)

// Comparator reports whether a candidate value is equivalent to the control
// value. A returned error or panic is contained and forces a mismatch.
type Comparator func(control, candidate any) (bool, error)

// Cleaner transforms an observed value before comparison and publish.
type Cleaner func(value any) (any, error)

// IgnorePredicate decides whether an already-mismatching candidate pair
// should be excused. A returned error or panic is contained and treated as
// false.
type IgnorePredicate func(control, candidate *Observation) (bool, error)

// Experiment is an immutable description of one control behavior, zero or
// more candidate behaviors, and the configuration used to compare them.
// Builder methods return updated copies and never mutate the receiver, so a
// finished Experiment may be run repeatedly and concurrently.
type Experiment struct {
	name       string
	metadata   map[string]any
	control    Behavior
	candidates []namedBehavior
	comparator Comparator
	cleaner    Cleaner
	ignores    []IgnorePredicate
	runIf      func(ctx context.Context) (bool, error)
	beforeRun  func(ctx context.Context) error
	callbacks  Callbacks

	errOnMismatch bool
	parallel      bool
}

type namedBehavior struct {
	name string
	fn   Behavior
}

// Option configures an Experiment at construction.
type Option func(*Experiment)

// WithMetadata attaches metadata to the experiment. It is merged over
// Callbacks.DefaultMetadata key-wise: supplied keys win, unspecified default
// keys survive.
func WithMetadata(md map[string]any) Option {
	return func(e *Experiment) {
		e.metadata = md
	}
}

// WithCallbacks installs the host capability set. The default is
// DefaultCallbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(e *Experiment) {
		e.callbacks = cb
	}
}

// New creates an Experiment. An empty name defaults to a generated
// identifier. The comparator defaults to go-cmp equality.
func New(name string, opts ...Option) *Experiment {
	e := &Experiment{
		name:       name,
		comparator: defaultComparator,
		callbacks:  DefaultCallbacks{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.name == "" {
		e.name = "experiment-" + uuid.NewString()
	}

	merged := maps.Clone(e.callbacks.DefaultMetadata())
	if merged == nil && e.metadata != nil {
		merged = make(map[string]any, len(e.metadata))
	}
	maps.Copy(merged, e.metadata)
	e.metadata = merged

	return e
}

func defaultComparator(control, candidate any) (bool, error) {
	return cmp.Equal(control, candidate), nil
}

// clone returns a copy safe to modify without affecting the receiver.
func (e *Experiment) clone() *Experiment {
	c := *e
	c.candidates = slices.Clone(e.candidates)
	c.ignores = slices.Clone(e.ignores)
	c.metadata = maps.Clone(e.metadata)
	return &c
}

// Name returns the experiment name.
func (e *Experiment) Name() string { return e.name }

// Metadata returns a copy of the merged experiment metadata.
func (e *Experiment) Metadata() map[string]any { return maps.Clone(e.metadata) }

// Use registers the control behavior. It returns ErrControlExists if a
// control is already registered.
func (e *Experiment) Use(fn Behavior) (*Experiment, error) {
	if e.control != nil {
		return nil, ErrControlExists
	}
	c := e.clone()
	c.control = fn
	return c, nil
}

// Try registers a candidate behavior under name. The name "control" is
// reserved and candidate names must be unique.
func (e *Experiment) Try(name string, fn Behavior) (*Experiment, error) {
	if name == controlName {
		return nil, fmt.Errorf("%w: %q is reserved", ErrDuplicateBehavior, name)
	}
	for _, nb := range e.candidates {
		if nb.name == name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBehavior, name)
		}
	}
	c := e.clone()
	c.candidates = append(c.candidates, namedBehavior{name: name, fn: fn})
	return c, nil
}

// CompareWith replaces the comparator used to classify candidate values.
func (e *Experiment) CompareWith(fn Comparator) *Experiment {
	c := e.clone()
	c.comparator = fn
	return c
}

// CleanWith installs a cleaner applied to every observed value before
// comparison and publish. A failed clean forces the affected pairs to
// mismatch, since their values cannot be confirmed equal.
func (e *Experiment) CleanWith(fn Cleaner) *Experiment {
	c := e.clone()
	c.cleaner = fn
	return c
}

// Ignore appends a predicate that can excuse a mismatching pair. Predicates
// run in registration order against pairs already determined to mismatch,
// stopping at the first that returns true.
func (e *Experiment) Ignore(fn IgnorePredicate) *Experiment {
	c := e.clone()
	c.ignores = append(c.ignores, fn)
	return c
}

// RunIf installs a gate evaluated after Enabled. When it returns false,
// errors, or panics, only the control executes.
func (e *Experiment) RunIf(fn func(ctx context.Context) (bool, error)) *Experiment {
	c := e.clone()
	c.runIf = fn
	return c
}

// BeforeRun installs a hook invoked once per run, after gating passes and
// before any behavior executes.
func (e *Experiment) BeforeRun(fn func(ctx context.Context) error) *Experiment {
	c := e.clone()
	c.beforeRun = fn
	return c
}

// ErrOnMismatch makes Run return a *MismatchError when the Result is not
// matched. The control's own failure still takes precedence. Useful in test
// environments; leave off in production.
func (e *Experiment) ErrOnMismatch(on bool) *Experiment {
	c := e.clone()
	c.errOnMismatch = on
	return c
}

// Parallel makes Run execute the shuffled behaviors concurrently instead of
// sequentially. Each behavior still executes exactly once per run.
func (e *Experiment) Parallel(on bool) *Experiment {
	c := e.clone()
	c.parallel = on
	return c
}
