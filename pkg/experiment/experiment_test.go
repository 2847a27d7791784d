package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retZero(context.Context) (any, error) { return 0, nil }

func TestNew_DefaultName(t *testing.T) {
	e := New("")
	assert.NotEmpty(t, e.Name())
	assert.Contains(t, e.Name(), "experiment-")

	// Two unnamed experiments get distinct identifiers.
	assert.NotEqual(t, e.Name(), New("").Name())
}

func TestNew_ExplicitName(t *testing.T) {
	e := New("widget-pricing")
	assert.Equal(t, "widget-pricing", e.Name())
}

type metadataCallbacks struct {
	DefaultCallbacks
	defaults map[string]any
}

func (c metadataCallbacks) DefaultMetadata() map[string]any { return c.defaults }

func TestNew_MetadataMerge(t *testing.T) {
	cb := metadataCallbacks{defaults: map[string]any{
		"service": "pricing",
		"region":  "us-east-1",
	}}
	e := New("m",
		WithCallbacks(cb),
		WithMetadata(map[string]any{"region": "eu-west-1", "owner": "platform"}),
	)

	md := e.Metadata()
	assert.Equal(t, "pricing", md["service"], "unspecified default keys survive")
	assert.Equal(t, "eu-west-1", md["region"], "supplied keys win per key")
	assert.Equal(t, "platform", md["owner"])
}

func TestNew_MetadataCopy(t *testing.T) {
	e := New("m", WithMetadata(map[string]any{"k": "v"}))
	md := e.Metadata()
	md["k"] = "mutated"
	assert.Equal(t, "v", e.Metadata()["k"])
}

func TestUse_DuplicateControl(t *testing.T) {
	e, err := New("dup").Use(retZero)
	require.NoError(t, err)

	_, err = e.Use(retZero)
	assert.ErrorIs(t, err, ErrControlExists)
}

func TestTry_ReservedName(t *testing.T) {
	_, err := New("dup").Try("control", retZero)
	assert.ErrorIs(t, err, ErrDuplicateBehavior)
}

func TestTry_DuplicateCandidate(t *testing.T) {
	e, err := New("dup").Try("rewrite", retZero)
	require.NoError(t, err)

	_, err = e.Try("rewrite", retZero)
	assert.ErrorIs(t, err, ErrDuplicateBehavior)

	// A distinct name is still fine.
	_, err = e.Try("rewrite-v2", retZero)
	assert.NoError(t, err)
}

func TestBuilder_ReturnsCopies(t *testing.T) {
	base := New("immutable")

	withControl, err := base.Use(retZero)
	require.NoError(t, err)
	assert.Nil(t, base.control, "Use must not mutate the receiver")
	assert.NotNil(t, withControl.control)

	withCand, err := withControl.Try("cand", retZero)
	require.NoError(t, err)
	assert.Empty(t, withControl.candidates, "Try must not mutate the receiver")
	assert.Len(t, withCand.candidates, 1)

	withIgnore := withCand.Ignore(func(_, _ *Observation) (bool, error) { return true, nil })
	assert.Empty(t, withCand.ignores, "Ignore must not mutate the receiver")
	assert.Len(t, withIgnore.ignores, 1)

	withCmp := withCand.CompareWith(func(_, _ any) (bool, error) { return true, nil })
	assert.NotNil(t, withCmp.comparator)

	withClean := withCand.CleanWith(func(v any) (any, error) { return v, nil })
	assert.Nil(t, withCand.cleaner)
	assert.NotNil(t, withClean.cleaner)
}

func TestBuilder_SharedPrefixDiverges(t *testing.T) {
	base, err := New("diverge").Use(retZero)
	require.NoError(t, err)

	a, err := base.Try("a", retZero)
	require.NoError(t, err)
	b, err := base.Try("b", retZero)
	require.NoError(t, err)

	require.Len(t, a.candidates, 1)
	require.Len(t, b.candidates, 1)
	assert.Equal(t, "a", a.candidates[0].name)
	assert.Equal(t, "b", b.candidates[0].name)
}
