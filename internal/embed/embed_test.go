package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbed_EmptyInputReturnsZeroVector(t *testing.T) {
	e := New(16)
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, x := range v {
		require.Zero(t, x)
	}
}

func TestEmbed_UnitL2Norm(t *testing.T) {
	e := New(16)
	v, err := e.Embed(context.Background(), "hello world this is a test query")
	require.NoError(t, err)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	require.InDelta(t, 1.0, norm, 1e-5)
}

func TestEmbed_DeterministicWithoutModel(t *testing.T) {
	e := New(16)
	ctx := context.Background()
	a, err := e.Embed(ctx, "foo bar baz")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "foo bar baz")
	require.NoError(t, err)
	require.Equal(t, a, b)
}
