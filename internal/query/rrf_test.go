package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/types"
)

// Monotonicity invariant: a doc ranked first by every contributing
// oracle must out-score one ranked first by only some of them.
func TestFuse_Monotonicity(t *testing.T) {
	hits := []oracleHits{
		{oracle: "semantic", results: []types.OracleResult{
			{DocID: "a", RawScore: 0.9, ScoreType: types.ScoreCosine},
			{DocID: "b", RawScore: 0.8, ScoreType: types.ScoreCosine},
		}},
		{oracle: "lexical", results: []types.OracleResult{
			{DocID: "a", RawScore: 5.0, ScoreType: types.ScoreBM25},
			{DocID: "b", RawScore: 4.0, ScoreType: types.ScoreBM25},
		}},
	}
	weights := map[string]float64{"semantic": 1.0, "lexical": 1.0}
	fused := fuse(hits, weights)
	require.Len(t, fused, 2)
	require.Equal(t, "a", fused[0].DocID)
	require.Greater(t, fused[0].Score, fused[1].Score)
}

func TestFuse_TieBreakByRawScoreThenDocID(t *testing.T) {
	hits := []oracleHits{
		{oracle: "semantic", results: []types.OracleResult{
			{DocID: "zzz", RawScore: 0.1, ScoreType: types.ScoreCosine},
			{DocID: "aaa", RawScore: 0.9, ScoreType: types.ScoreCosine},
		}},
	}
	fused := fuse(hits, map[string]float64{"semantic": 1.0})
	// both rank 1 and 2 under a single oracle, so RRF scores differ;
	// reverse ranks to force equal RRF score and verify raw-score tiebreak
	hits2 := []oracleHits{
		{oracle: "a", results: []types.OracleResult{{DocID: "zzz", RawScore: 0.1, ScoreType: types.ScoreCosine}}},
		{oracle: "b", results: []types.OracleResult{{DocID: "aaa", RawScore: 0.9, ScoreType: types.ScoreCosine}}},
	}
	fused2 := fuse(hits2, map[string]float64{"a": 1.0, "b": 1.0})
	require.Equal(t, "aaa", fused2[0].DocID)
	_ = fused
}

func TestWeightsFor_IntentOverridesLayerOverDefaults(t *testing.T) {
	w := weightsFor(types.IntentTemporal, nil)
	require.Equal(t, 2.0, w["lexical"])

	overrides := map[string]map[string]float64{"temporal": {"lexical": 9.0}}
	w2 := weightsFor(types.IntentTemporal, overrides)
	require.Equal(t, 9.0, w2["lexical"])
	require.Equal(t, 1.5, w2["temporal"]) // untouched default still present
}

func TestDetectIntent_WhWords(t *testing.T) {
	require.Equal(t, types.IntentRationale, DetectIntent("why does this exist"))
	require.Equal(t, types.IntentMechanism, DetectIntent("how does auth work"))
	require.Equal(t, types.IntentGeneral, DetectIntent("invoke command sozo"))
}
