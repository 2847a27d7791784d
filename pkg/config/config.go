// Package config provides engine settings for trialrun experiments.
//
// Settings load from YAML bytes, then environment variables override per
// key. The result produces a gate usable as an experiment's RunIf, so a
// deployment can dial candidate execution up and down without code changes.
package config

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables before mapping to keys.
// Example: TRIALRUN_SAMPLE_PERCENT -> sample_percent.
const envPrefix = "TRIALRUN_"

// Settings controls experiment execution for a deployment.
type Settings struct {
	// Enabled gates candidate execution; when false only controls run.
	Enabled bool `koanf:"enabled"`

	// SamplePercent is the percentage of runs on which candidates execute,
	// 0 to 100.
	SamplePercent float64 `koanf:"sample_percent"`

	// Parallel executes behaviors concurrently within a run.
	Parallel bool `koanf:"parallel"`
}

// Default returns the default settings: enabled, sampling every run,
// sequential execution.
func Default() *Settings {
	return &Settings{
		Enabled:       true,
		SamplePercent: 100,
	}
}

// Load builds Settings from YAML content overridden by environment
// variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (TRIALRUN_ENABLED, TRIALRUN_SAMPLE_PERCENT, ...)
//  2. YAML content
//  3. Defaults
//
// yamlContent may be nil to load from environment and defaults only.
func Load(yamlContent []byte) (*Settings, error) {
	k := koanf.New(".")

	if len(yamlContent) > 0 {
		if err := k.Load(rawbytes.Provider(yamlContent), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load yaml settings: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal over defaults so absent keys keep their default values.
	s := Default()
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}

	return s, nil
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	if s.SamplePercent < 0 || s.SamplePercent > 100 {
		return fmt.Errorf("sample_percent must be between 0 and 100, got %v", s.SamplePercent)
	}
	return nil
}

// Gate returns a predicate suitable for Experiment.RunIf: true when the
// settings are enabled and the run falls inside the sample percentage.
func (s *Settings) Gate() func(ctx context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if !s.Enabled {
			return false, nil
		}
		return rand.Float64()*100 < s.SamplePercent, nil
	}
}
