package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/storage/sqlite"
	"github.com/patina-dev/patina/internal/types"
	"github.com/patina-dev/patina/internal/vectorindex"
)

func TestDriver_RunMaterializesDerivesAndEmbeds(t *testing.T) {
	store, err := sqlite.OpenPath(t.TempDir() + "/patina.db")
	require.NoError(t, err)
	defer store.Close()

	commitEvents, err := ParseGitLog("abc123\x00Jane Dev\x001700000000\x00feat(query): add rrf fusion\nsrc/query/rrf.go\n\n")
	require.NoError(t, err)
	_, err = store.Append(commitEvents)
	require.NoError(t, err)

	d := New(Config{
		Store:    store,
		Embedder: fakeEmbedder{},
		Index:    vectorindex.New(3),
	})

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.FactsMaterialized)
	require.True(t, result.SignalsDerived)
	require.Equal(t, 1, result.Embedded)
	require.Equal(t, StateIdle, d.state)

	// idempotent: nothing new to materialize or embed on a second pass.
	result2, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result2.FactsMaterialized)
	require.Equal(t, 0, result2.Embedded)
}

func TestDriver_AppendEventsIsIdempotentByContentHash(t *testing.T) {
	store, err := sqlite.OpenPath(t.TempDir() + "/patina.db")
	require.NoError(t, err)
	defer store.Close()

	d := New(Config{Store: store})
	events := []types.Event{{
		EventType: types.EventSessionStart,
		SourceID:  "s1",
		Timestamp: time.Now(),
		Data:      []byte(`{"id":"s1","goal":"explore"}`),
	}}

	res1, err := d.AppendEvents(events)
	require.NoError(t, err)
	require.Equal(t, 1, res1.Inserted)

	res2, err := d.AppendEvents(events)
	require.NoError(t, err)
	require.Equal(t, 0, res2.Inserted)
	require.Equal(t, 1, res2.SkippedDuplicate)
}
