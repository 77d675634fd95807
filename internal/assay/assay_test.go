package assay

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/storage/sqlite"
)

func seedCommits(t *testing.T, store *sqlite.Store, now time.Time) {
	t.Helper()
	err := store.WithWrite(func(tx *sql.Tx) error {
		commits := []struct {
			sha          string
			message      string
			convType     string
			breaking     bool
			filesTouched int
			tsOffset     time.Duration
		}{
			{"c1", "initial commit", "", false, 1, 0},
			{"c2", "feat: refactor everything across the whole module tree", "feat", false, 120, time.Hour},
			{"c3", "fix!: breaking change to API contract for downstream callers", "fix", true, 5, 2 * time.Hour},
		}
		for _, c := range commits {
			ts := now.Add(c.tsOffset).UnixNano()
			if _, err := tx.Exec(`INSERT INTO commits (sha, message, author, timestamp, conv_type, breaking, files_touched) VALUES (?, ?, 'a', ?, ?, ?, ?)`,
				c.sha, c.message, ts, c.convType, c.breaking, c.filesTouched); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// Moment detection — scenario 4: genesis/big_bang/breaking commits
// classify correctly from the seeded rule table.
func TestDerive_MomentDetection(t *testing.T) {
	store, err := sqlite.OpenPath(t.TempDir() + "/patina.db")
	require.NoError(t, err)
	defer store.Close()

	now := time.Now()
	seedCommits(t, store, now)

	d := New(store.ReadDB())
	require.NoError(t, store.WithWrite(func(tx *sql.Tx) error {
		return d.deriveMoments(tx)
	}))

	rows, err := store.ReadDB().Query(`SELECT sha, moment_type FROM moments`)
	require.NoError(t, err)
	defer rows.Close()

	got := map[string]string{}
	for rows.Next() {
		var sha, mt string
		require.NoError(t, rows.Scan(&sha, &mt))
		got[sha] = mt
	}
	require.Equal(t, "genesis", got["c1"])
	require.Equal(t, "big_bang", got["c2"])
	require.Equal(t, "breaking", got["c3"])
}

// Idempotent: running derivation twice on identical facts produces
// identical module_signals output.
func TestDerive_Idempotent(t *testing.T) {
	store, err := sqlite.OpenPath(t.TempDir() + "/patina.db")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.WithWrite(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO symbol_facts (path, name, kind) VALUES ('a.go', 'Foo', 'function')`)
		return err
	}))

	d := New(store.ReadDB())
	now := time.Now()
	require.NoError(t, d.Derive(now))
	first, err := dumpSignals(store)
	require.NoError(t, err)

	require.NoError(t, d.Derive(now))
	second, err := dumpSignals(store)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func dumpSignals(store *sqlite.Store) (map[string]int, error) {
	rows, err := store.ReadDB().Query(`SELECT path, importer_count FROM module_signals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, err
		}
		out[p] = n
	}
	return out, rows.Err()
}
