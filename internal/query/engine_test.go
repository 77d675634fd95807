package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/oracle"
	"github.com/patina-dev/patina/internal/types"
)

type fakeOracle struct {
	name      string
	available bool
	results   []types.OracleResult
	err       error
}

func (f *fakeOracle) Name() string      { return f.name }
func (f *fakeOracle) IsAvailable() bool { return f.available }
func (f *fakeOracle) Query(ctx context.Context, text string, limit int) ([]types.OracleResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeAnnotator struct{}

func (fakeAnnotator) Annotate(ctx context.Context, path string) (*types.ModuleSignals, error) {
	return nil, nil
}

func TestEngine_GracefulOracleFailureDowngrades(t *testing.T) {
	e := New(Config{
		Oracles: map[string]oracle.Oracle{
			"semantic": &fakeOracle{name: "semantic", available: true, err: errors.New("boom")},
			"lexical":  &fakeOracle{name: "lexical", available: true, results: []types.OracleResult{{DocID: "x", RawScore: 1, ScoreType: types.ScoreBM25}}},
			"temporal": &fakeOracle{name: "temporal", available: false},
			"persona":  &fakeOracle{name: "persona", available: false},
		},
		Structural: fakeAnnotator{},
	})
	resp, err := e.Query(context.Background(), "find invoke command", types.ModeFind, types.IntentGeneral, 10, Options{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "x", resp.Results[0].DocID)
}

func TestEngine_WhyNotFoundReturnsNotFoundError(t *testing.T) {
	e := New(Config{
		Oracles: map[string]oracle.Oracle{
			"lexical": &fakeOracle{name: "lexical", available: true, results: nil},
		},
		Structural: fakeAnnotator{},
	})
	_, err := e.Query(context.Background(), "", types.ModeWhy, types.IntentGeneral, 10, Options{DocID: "nope"})
	require.Error(t, err)
}

func TestEngine_OrientOnUnavailableStructuralReturnsWarningNotError(t *testing.T) {
	e := New(Config{Oracles: map[string]oracle.Oracle{}, Structural: fakeAnnotator{}})
	resp, err := e.Query(context.Background(), "", types.ModeOrient, types.IntentGeneral, 10, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Warning)
}

func TestEngine_EmptyQueryFindModeIsInvalidRequest(t *testing.T) {
	e := New(Config{Oracles: map[string]oracle.Oracle{}, Structural: fakeAnnotator{}})
	_, err := e.Query(context.Background(), "", types.ModeFind, types.IntentGeneral, 10, Options{})
	require.Error(t, err)
}
