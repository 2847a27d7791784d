package publish

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/trialrun/pkg/experiment"
)

// LogPublisher writes experiment results and contained extension failures to
// a zap logger. Matched runs log at Debug, unmatched runs at Warn with one
// entry per mismatching candidate.
type LogPublisher struct {
	experiment.DefaultCallbacks

	logger *zap.Logger
}

var _ experiment.Callbacks = (*LogPublisher)(nil)

// NewLogPublisher creates a LogPublisher writing to logger.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs a summary of the result, plus detail for every mismatched
// candidate. It never returns an error.
func (p *LogPublisher) Publish(_ context.Context, r *experiment.Result) error {
	fields := []zap.Field{
		zap.String("experiment", r.Experiment.Name()),
		zap.Int("candidates", len(r.Candidates)),
		zap.Int("matched", len(r.Matched)),
		zap.Int("mismatched", len(r.Mismatched)),
		zap.Int("ignored", len(r.Ignored)),
		zap.Duration("control_duration", r.Control.Duration),
	}

	if r.IsMatched() {
		p.logger.Debug("Experiment matched", fields...)
		return nil
	}

	p.logger.Warn("Experiment observed mismatches", fields...)
	for _, cand := range r.Mismatched {
		p.logger.Warn("Candidate mismatched",
			zap.String("experiment", r.Experiment.Name()),
			zap.String("candidate", cand.Name),
			zap.Bool("candidate_failed", cand.Failed()),
			zap.Bool("control_failed", r.Control.Failed()),
			zap.Any("control_value", r.Control.CleanedValue()),
			zap.Any("candidate_value", cand.CleanedValue()),
			zap.Duration("candidate_duration", cand.Duration),
		)
	}
	return nil
}

// Raised logs a contained structured failure from a guarded extension point.
func (p *LogPublisher) Raised(_ context.Context, e *experiment.Experiment, op experiment.Operation, err error) {
	p.logger.Warn("Experiment extension failed",
		zap.String("experiment", e.Name()),
		zap.String("operation", string(op)),
		zap.Error(err))
}

// Thrown logs a contained panic from a guarded extension point.
func (p *LogPublisher) Thrown(_ context.Context, e *experiment.Experiment, op experiment.Operation, value any) {
	p.logger.Warn("Experiment extension panicked",
		zap.String("experiment", e.Name()),
		zap.String("operation", string(op)),
		zap.Any("panic", value))
}
