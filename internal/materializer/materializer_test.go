package materializer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/storage/sqlite"
	"github.com/patina-dev/patina/internal/types"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.OpenPath(t.TempDir() + "/patina.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// FTS dedup: a function emitted as both code.function and code.symbol
// produces exactly one code_fts row, keyed "<path>::<name>" — scenario 1.
func TestMaterializer_FTSDedup(t *testing.T) {
	store := newTestStore(t)
	m := New(store, nil)

	now := time.Now()
	events := []types.Event{
		{EventType: types.EventCodeFunction, SourceID: "a.rs::foo", Timestamp: now,
			Data: mustJSON(t, symbolPayload{Path: "a.rs", Name: "foo", Signature: "fn foo()"})},
		{EventType: types.EventCodeSymbol, SourceID: "a.rs::foo", Timestamp: now,
			Data: mustJSON(t, symbolPayload{Path: "a.rs", Name: "foo"})},
	}
	_, err := store.Append(events)
	require.NoError(t, err)

	res, err := m.Run()
	require.NoError(t, err)
	require.Equal(t, 2, res.Processed)

	var count int
	require.NoError(t, store.ReadDB().QueryRow(
		`SELECT COUNT(*) FROM code_fts WHERE doc_id = ?`, "a.rs::foo").Scan(&count))
	require.Equal(t, 1, count)
}

// Idempotent ingestion: appending the same event payload N times results
// in exactly one stored event.
func TestEventLog_IdempotentAppend(t *testing.T) {
	store := newTestStore(t)
	payload := mustJSON(t, symbolPayload{Path: "a.rs", Name: "foo", Signature: "fn foo()"})

	for i := 0; i < 3; i++ {
		_, err := store.Append([]types.Event{
			{EventType: types.EventCodeFunction, SourceID: "a.rs::foo", Timestamp: time.Now(), Data: payload},
		})
		require.NoError(t, err)
	}

	n, err := store.Count(types.EventFilter{EventType: types.EventCodeFunction})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

// Corrupt payloads are quarantined, not lost — the batch still advances
// past them and the remaining events in the batch still materialize.
func TestMaterializer_QuarantinesCorruptPayload(t *testing.T) {
	store := newTestStore(t)
	m := New(store, nil)

	_, err := store.Append([]types.Event{
		{EventType: types.EventCodeFunction, SourceID: "bad", Timestamp: time.Now(), Data: []byte(`{"path":""}`)},
		{EventType: types.EventCodeFunction, SourceID: "a.rs::foo", Timestamp: time.Now(),
			Data: mustJSON(t, symbolPayload{Path: "a.rs", Name: "foo"})},
	})
	require.NoError(t, err)

	res, err := m.Run()
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.Equal(t, 1, res.Quarantined)
}
