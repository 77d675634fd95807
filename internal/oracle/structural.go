package oracle

import (
	"context"
	"database/sql"
	"time"

	"github.com/patina-dev/patina/internal/types"
)

// Structural returns files ranked by a composite of importer_count,
// centrality_score, and !is_test_file. Produces file-level results
// only; it is the primary signal for orient mode and contributes
// annotations only (never ranking) under find mode — that distinction
// is enforced by the Query Engine, not this oracle.
type Structural struct {
	db *sql.DB
}

func NewStructural(db *sql.DB) *Structural { return &Structural{db: db} }

func (s *Structural) Name() string { return "structural" }

func (s *Structural) IsAvailable() bool { return s.db != nil }

func (s *Structural) Query(ctx context.Context, queryText string, limit int) ([]types.OracleResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, importer_count, centrality_score, is_test_file
		FROM module_signals
		ORDER BY (importer_count * 1.0 + centrality_score) * (CASE WHEN is_test_file THEN 0.5 ELSE 1.0 END) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.OracleResult
	for rows.Next() {
		var path string
		var importerCount int
		var centrality float64
		var isTest bool
		if err := rows.Scan(&path, &importerCount, &centrality, &isTest); err != nil {
			return nil, err
		}
		composite := float64(importerCount) + centrality
		if isTest {
			composite *= 0.5
		}
		out = append(out, types.OracleResult{
			DocID: path, Path: path, RawScore: composite, ScoreType: types.ScoreComposite,
		})
	}
	return out, rows.Err()
}

// Annotate looks up a single path's signals for provenance annotation,
// used by the Query Engine regardless of whether Structural contributed
// to ranking (it is metadata, not signal, under find mode).
func (s *Structural) Annotate(ctx context.Context, path string) (*types.ModuleSignals, error) {
	var sig types.ModuleSignals
	var activity string
	var computedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT path, importer_count, is_entry_point, is_test_file, activity_level,
		       last_commit_days, centrality_score, centrality_pctile, computed_at
		FROM module_signals WHERE path = ?`, path).
		Scan(&sig.Path, &sig.ImporterCount, &sig.IsEntryPoint, &sig.IsTestFile, &activity,
			&sig.LastCommitDays, &sig.CentralityScore, &sig.CentralityPctile, &computedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sig.ActivityLevel = types.ActivityLevel(activity)
	sig.ComputedAt = time.Unix(0, computedAt).UTC()
	return &sig, nil
}
