// Package publish provides ready-made Result sinks for the experiment
// engine: a structured-log publisher built on zap and a Prometheus metrics
// publisher. Both implement experiment.Callbacks by embedding
// experiment.DefaultCallbacks, so they can be installed directly with
// experiment.WithCallbacks.
package publish
