package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/oracle"
	"github.com/patina-dev/patina/internal/query"
	"github.com/patina-dev/patina/internal/storage/sqlite"
	"github.com/patina-dev/patina/internal/types"
)

type fakeOracle struct{ results []types.OracleResult }

func (f *fakeOracle) Name() string      { return "lexical" }
func (f *fakeOracle) IsAvailable() bool { return true }
func (f *fakeOracle) Query(ctx context.Context, text string, limit int) ([]types.OracleResult, error) {
	return f.results, nil
}

type fakeRecorder struct{ queries int }

func (f *fakeRecorder) RecordQuery(query, mode, intent string, resp types.FusedResponse) string {
	f.queries++
	return "q-1"
}
func (f *fakeRecorder) RecordUse(queryID, docID string, rank int)      {}
func (f *fakeRecorder) RecordFeedback(queryID, signal, comment string) {}

func newTestServer(t *testing.T) (*Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.OpenPath(t.TempDir() + "/patina.db")
	require.NoError(t, err)

	engine := query.New(query.Config{
		Oracles: map[string]oracle.Oracle{
			"lexical": &fakeOracle{results: []types.OracleResult{{DocID: "src/main.go", RawScore: 1.2, ScoreType: types.ScoreBM25}}},
		},
	})
	return NewServer(engine, store.ReadDB(), &fakeRecorder{}, nil), store
}

func rpcLine(method string, params interface{}) string {
	p, _ := json.Marshal(params)
	req := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method, "params": json.RawMessage(p)}
	b, _ := json.Marshal(req)
	return string(b) + "\n"
}

func TestServer_ToolsList(t *testing.T) {
	s, store := newTestServer(t)
	defer store.Close()

	var out bytes.Buffer
	err := s.Serve(context.Background(), strings.NewReader(rpcLine("tools/list", nil)), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "scry")
	require.Contains(t, out.String(), "assay")
}

func TestServer_UnknownMethodReturns32601(t *testing.T) {
	s, store := newTestServer(t)
	defer store.Close()

	var out bytes.Buffer
	err := s.Serve(context.Background(), strings.NewReader(rpcLine("bogus", nil)), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "-32601")
}

func TestServer_ScryToolCallReturnsFusedResponse(t *testing.T) {
	s, store := newTestServer(t)
	defer store.Close()

	var out bytes.Buffer
	line := rpcLine("tools/call", map[string]interface{}{
		"name":      "scry",
		"arguments": map[string]interface{}{"query": "main entrypoint", "mode": "find"},
	})
	err := s.Serve(context.Background(), strings.NewReader(line), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "src/main.go")
}

func TestServer_InitializeIncompatibleMajorVersion(t *testing.T) {
	s, store := newTestServer(t)
	defer store.Close()

	var out bytes.Buffer
	line := rpcLine("initialize", map[string]interface{}{"clientVersion": "v2.0.0"})
	err := s.Serve(context.Background(), strings.NewReader(line), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "incompatible protocol")
}

func TestServer_MalformedLineYieldsParseErrorAndContinues(t *testing.T) {
	s, store := newTestServer(t)
	defer store.Close()

	var out bytes.Buffer
	input := "not json\n" + rpcLine("tools/list", nil)
	err := s.Serve(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "-32700")
	require.Contains(t, out.String(), "scry")
}
