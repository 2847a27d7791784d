package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.True(t, s.Enabled)
	assert.Equal(t, 100.0, s.SamplePercent)
	assert.False(t, s.Parallel)
	assert.NoError(t, s.Validate())
}

func TestLoad_Empty(t *testing.T) {
	s, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_YAML(t *testing.T) {
	s, err := Load([]byte("enabled: false\nsample_percent: 25\nparallel: true\n"))
	require.NoError(t, err)
	assert.False(t, s.Enabled)
	assert.Equal(t, 25.0, s.SamplePercent)
	assert.True(t, s.Parallel)
}

func TestLoad_PartialYAMLKeepsDefaults(t *testing.T) {
	s, err := Load([]byte("sample_percent: 10\n"))
	require.NoError(t, err)
	assert.True(t, s.Enabled, "unspecified keys keep their defaults")
	assert.Equal(t, 10.0, s.SamplePercent)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("TRIALRUN_SAMPLE_PERCENT", "75")
	t.Setenv("TRIALRUN_PARALLEL", "true")

	s, err := Load([]byte("sample_percent: 10\nparallel: false\n"))
	require.NoError(t, err)
	assert.Equal(t, 75.0, s.SamplePercent)
	assert.True(t, s.Parallel)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load([]byte("enabled: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_InvalidPercent(t *testing.T) {
	_, err := Load([]byte("sample_percent: 250\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		wantErr bool
	}{
		{"zero percent", 0, false},
		{"full percent", 100, false},
		{"negative", -1, true},
		{"over 100", 101, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{Enabled: true, SamplePercent: tt.percent}
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGate(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled is always false", func(t *testing.T) {
		gate := (&Settings{Enabled: false, SamplePercent: 100}).Gate()
		for i := 0; i < 100; i++ {
			ok, err := gate(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
		}
	})

	t.Run("full sampling is always true", func(t *testing.T) {
		gate := (&Settings{Enabled: true, SamplePercent: 100}).Gate()
		for i := 0; i < 100; i++ {
			ok, err := gate(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	})

	t.Run("zero sampling is always false", func(t *testing.T) {
		gate := (&Settings{Enabled: true, SamplePercent: 0}).Gate()
		for i := 0; i < 100; i++ {
			ok, err := gate(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
		}
	})

	t.Run("partial sampling admits some runs", func(t *testing.T) {
		gate := (&Settings{Enabled: true, SamplePercent: 50}).Gate()
		admitted := 0
		for i := 0; i < 1000; i++ {
			ok, err := gate(ctx)
			require.NoError(t, err)
			if ok {
				admitted++
			}
		}
		assert.Greater(t, admitted, 0)
		assert.Less(t, admitted, 1000)
	})
}
