package vectorindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearch_RanksByCosine(t *testing.T) {
	ix := New(2)
	require.NoError(t, ix.Add(1, []float32{1, 0}))
	require.NoError(t, ix.Add(2, []float32{0, 1}))
	require.NoError(t, ix.Add(3, []float32{0.9, 0.1}))

	results, err := ix.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(1), results[0].RowID)
	require.Equal(t, int64(3), results[1].RowID)
}

func TestPersistLoad_RoundTrips(t *testing.T) {
	ix := New(3)
	require.NoError(t, ix.Add(10, []float32{0.1, 0.2, 0.3}))
	require.NoError(t, ix.Add(20, []float32{0.4, 0.5, 0.6}))

	path := filepath.Join(t.TempDir(), "semantic.usearch")
	require.NoError(t, ix.Persist(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ix.Len(), loaded.Len())

	results, err := loaded.Search([]float32{0.1, 0.2, 0.3}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(10), results[0].RowID)
}
