package projection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/types"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(text string) ([]float32, error) {
	v := make([]float32, 8)
	for i, c := range text {
		v[int(c)%8] += 1
	}
	return v, nil
}

func TestTrain_BelowMinimumReturnsIdentityProjection(t *testing.T) {
	p, err := Train(fakeEmbedder{}, []Pair{{Anchor: "a", Positive: "b", Negative: "c", Weight: 1}}, DefaultConfig(8, 8))
	require.NoError(t, err)
	require.True(t, p.LowSignal)
	require.Equal(t, 0, p.PairsCount)
}

func TestTrain_AboveMinimumProducesMatrix(t *testing.T) {
	pairs := make([]Pair, 60)
	for i := range pairs {
		pairs[i] = Pair{Anchor: "anchor text", Positive: "positive file content", Negative: "unrelated negative content", Weight: 1}
	}
	p, err := Train(fakeEmbedder{}, pairs, DefaultConfig(8, 4))
	require.NoError(t, err)
	require.False(t, p.LowSignal)
	require.Equal(t, 60, p.PairsCount)
	require.Len(t, p.Matrix, 8*4)
}

func TestMomentWeight_MatchesMultiplierTable(t *testing.T) {
	require.Equal(t, 3.0, MomentWeight(types.MomentBreaking))
	require.Equal(t, 2.0, MomentWeight(types.MomentBigBang))
	require.Equal(t, 1.5, MomentWeight(types.MomentMigration))
	require.Equal(t, 1.2, MomentWeight(types.MomentRewrite))
	require.Equal(t, 1.0, MomentWeight(types.MomentGenesis))
}
