package oracle

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/storage/sqlite"
)

func seedCommitWithFiles(t *testing.T, store *sqlite.Store) {
	t.Helper()
	require.NoError(t, store.WithWrite(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO commits (sha, message, author, timestamp) VALUES (?, ?, 'a', ?)`,
			"abc123", "add invoke command for sozo", time.Now().UnixNano())
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO commits_fts (message, conv_fields, sha) VALUES (?, '', ?)`,
			"add invoke command for sozo", "abc123")
		if err != nil {
			return err
		}
		for _, f := range []string{"src/sozo/invoke.rs", "src/sozo/mod.rs"} {
			if _, err := tx.Exec(`INSERT INTO commit_files (sha, path) VALUES (?, ?)`, "abc123", f); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Commit->file expansion — scenario 2: both touched files appear within
// the top 3 results for a query matching the commit message.
func TestLexical_CommitToFileExpansion(t *testing.T) {
	store, err := sqlite.OpenPath(t.TempDir() + "/patina.db")
	require.NoError(t, err)
	defer store.Close()

	seedCommitWithFiles(t, store)

	l := NewLexical(store.ReadDB())
	results, err := l.Query(context.Background(), "invoke command", 10)
	require.NoError(t, err)

	top3 := results
	if len(top3) > 3 {
		top3 = top3[:3]
	}
	var docIDs []string
	for _, r := range top3 {
		docIDs = append(docIDs, r.DocID)
	}
	require.Contains(t, docIDs, "src/sozo/invoke.rs")
	require.Contains(t, docIDs, "src/sozo/mod.rs")
}

func TestLexical_PreservesStopwordsForTemporalIntent(t *testing.T) {
	l := NewLexical(nil).WithPreserveStopwords(true)
	require.Contains(t, l.prepareQuery("when did we add commit message search"), "when")

	l2 := NewLexical(nil).WithPreserveStopwords(false)
	require.NotContains(t, l2.prepareQuery("when did we add commit message search"), "when")
}
