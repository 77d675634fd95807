package ingest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/storage/sqlite"
	"github.com/patina-dev/patina/internal/vectorindex"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedAndProject(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func TestEmbedAndIndex_EmbedsPendingSymbolsAndCommits(t *testing.T) {
	store, err := sqlite.OpenPath(t.TempDir() + "/patina.db")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.WithWrite(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO symbol_facts (path, name, kind, signature) VALUES (?, ?, ?, ?)`,
			"src/main.go", "Run", "function", "func Run()"); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO commits (sha, message, author, timestamp) VALUES (?, ?, ?, ?)`,
			"sha1", "initial commit", "a", 0)
		return err
	}))

	index := vectorindex.New(3)
	n, err := EmbedAndIndex(context.Background(), store.ReadDB(), store, fakeEmbedder{}, index, "")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, index.Len())

	// second pass finds nothing new — already embedded
	n2, err := EmbedAndIndex(context.Background(), store.ReadDB(), store, fakeEmbedder{}, index, "")
	require.NoError(t, err)
	require.Equal(t, 0, n2)
}
