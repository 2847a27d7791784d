package publish

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/trialrun/pkg/experiment"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the experiment engine.
type Metrics struct {
	// Run outcomes
	RunsTotal *prometheus.CounterVec

	// Per-candidate verdicts
	CandidatesTotal *prometheus.CounterVec

	// Behavior latency, control included
	BehaviorDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers Prometheus metrics for the experiment
// engine.
//
// This function uses sync.Once to ensure metrics are only registered once
// globally, preventing "duplicate metrics collector registration" panics.
//
// Metrics:
//   - trialrun_runs_total{experiment, outcome} - Count of runs by outcome
//   - trialrun_candidates_total{experiment, candidate, verdict} - Count of candidate verdicts
//   - trialrun_behavior_duration_seconds{experiment, behavior} - Histogram of behavior execution times
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "trialrun_runs_total",
					Help: "Total number of experiment runs",
				},
				[]string{"experiment", "outcome"}, // "matched", "mismatched" or "ignored"
			),

			CandidatesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "trialrun_candidates_total",
					Help: "Total number of candidate observations by verdict",
				},
				[]string{"experiment", "candidate", "verdict"},
			),

			BehaviorDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "trialrun_behavior_duration_seconds",
					Help:    "Duration of behavior execution in seconds",
					Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
				},
				[]string{"experiment", "behavior"},
			),
		}
	})
	return globalMetrics
}

// MetricsPublisher records experiment results as Prometheus metrics.
type MetricsPublisher struct {
	experiment.DefaultCallbacks

	metrics *Metrics
}

var _ experiment.Callbacks = (*MetricsPublisher)(nil)

// NewMetricsPublisher creates a MetricsPublisher backed by the globally
// registered metrics.
func NewMetricsPublisher() *MetricsPublisher {
	return &MetricsPublisher{metrics: NewMetrics()}
}

// Publish records the run outcome, per-candidate verdicts, and behavior
// durations. It never returns an error.
func (p *MetricsPublisher) Publish(_ context.Context, r *experiment.Result) error {
	name := r.Experiment.Name()

	outcome := "matched"
	switch {
	case r.IsMismatched():
		outcome = "mismatched"
	case r.IsIgnored():
		outcome = "ignored"
	}
	p.metrics.RunsTotal.WithLabelValues(name, outcome).Inc()

	p.metrics.BehaviorDuration.WithLabelValues(name, r.Control.Name).
		Observe(r.Control.Duration.Seconds())
	for _, cand := range r.Candidates {
		p.metrics.BehaviorDuration.WithLabelValues(name, cand.Name).
			Observe(cand.Duration.Seconds())
	}

	for verdict, set := range map[string][]*experiment.Observation{
		"matched":    r.Matched,
		"mismatched": r.Mismatched,
		"ignored":    r.Ignored,
	} {
		for _, cand := range set {
			p.metrics.CandidatesTotal.WithLabelValues(name, cand.Name, verdict).Inc()
		}
	}
	return nil
}
