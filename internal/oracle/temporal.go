package oracle

import (
	"context"
	"database/sql"

	"github.com/patina-dev/patina/internal/types"
)

// Temporal ranks files by co-change count against a reference file, or,
// when the query text has no co-change edges, returns the most recently
// touched files. Grounded on the teacher's internal/queries/graph.go
// edge-table ranking, here over co_change_edges instead of a dependency
// graph.
type Temporal struct {
	db *sql.DB
}

func NewTemporal(db *sql.DB) *Temporal { return &Temporal{db: db} }

func (t *Temporal) Name() string { return "temporal" }

func (t *Temporal) IsAvailable() bool { return t.db != nil }

// Query treats queryText as a path if it names a known file, else falls
// back to the most recently touched files as a recency proxy. The Query
// Engine dispatches it as a first-class oracle; recent mode checks only
// that it is available and does not call Query.
func (t *Temporal) Query(ctx context.Context, queryText string, limit int) ([]types.OracleResult, error) {
	if rows, err := t.coChangeFor(ctx, queryText, limit); err == nil && len(rows) > 0 {
		return rows, nil
	}
	return t.recentlyTouched(ctx, limit)
}

func (t *Temporal) coChangeFor(ctx context.Context, path string, limit int) ([]types.OracleResult, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT CASE WHEN file_a = ? THEN file_b ELSE file_a END AS other, count
		FROM co_change_edges WHERE file_a = ? OR file_b = ?
		ORDER BY count DESC LIMIT ?`, path, path, path, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.OracleResult
	for rows.Next() {
		var other string
		var count int
		if err := rows.Scan(&other, &count); err != nil {
			return nil, err
		}
		out = append(out, types.OracleResult{
			DocID: other, Path: other, RawScore: float64(count), ScoreType: types.ScoreCoChangeCount,
		})
	}
	return out, rows.Err()
}

func (t *Temporal) recentlyTouched(ctx context.Context, limit int) ([]types.OracleResult, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT cf.path, MAX(c.timestamp) AS ts
		FROM commit_files cf JOIN commits c ON c.sha = cf.sha
		GROUP BY cf.path ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.OracleResult
	rank := 0
	for rows.Next() {
		var path string
		var ts int64
		if err := rows.Scan(&path, &ts); err != nil {
			return nil, err
		}
		rank++
		out = append(out, types.OracleResult{
			DocID: path, Path: path, RawScore: float64(limit - rank), ScoreType: types.ScoreCoChangeCount,
		})
	}
	return out, rows.Err()
}
