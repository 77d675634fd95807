// Package assay implements the Structural Deriver: rebuilds
// module_signals and moments from current facts. Grounded on the
// teacher's internal/queries/graph.go edge-table aggregation (there:
// issue dependency graphs; here: import/call/co-change edge tables).
package assay

import (
	"database/sql"
	"strings"
	"time"

	"github.com/patina-dev/patina/internal/types"
)

// entryPointPatterns matches spec's "main, lib roots" rule for
// is_entry_point, kept as a short allowlist rather than a full build
// system integration.
var entryPointPatterns = []string{"main.go", "/main.go", "lib.rs", "/mod.rs", "index.js", "index.ts"}

// Deriver rebuilds module_signals and moments against a single
// read/write database handle.
type Deriver struct {
	db *sql.DB
}

func New(db *sql.DB) *Deriver {
	return &Deriver{db: db}
}

// Derive runs the full structural pass: idempotent, since it always
// recomputes from current facts rather than incrementally patching prior
// output — running it twice on identical facts produces identical rows.
func (d *Deriver) Derive(now time.Time) error {
	paths, err := d.allPaths()
	if err != nil {
		return err
	}

	importerCounts, err := d.importerCounts()
	if err != nil {
		return err
	}
	centrality, err := d.centralityScores(paths)
	if err != nil {
		return err
	}
	pctiles := percentiles(centrality)

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM module_signals WHERE path NOT IN (SELECT path FROM symbol_facts)`); err != nil {
		return err
	}

	for _, path := range paths {
		activity, lastDays, err := d.activityLevel(path, now)
		if err != nil {
			return err
		}
		isTest := strings.Contains(path, "_test.") || strings.Contains(path, "/test/") || strings.Contains(path, "/tests/")

		sig := types.ModuleSignals{
			Path:             path,
			ImporterCount:    importerCounts[path],
			IsEntryPoint:     isEntryPoint(path),
			IsTestFile:       isTest,
			ActivityLevel:    activity,
			LastCommitDays:   lastDays,
			CentralityScore:  centrality[path],
			CentralityPctile: pctiles[path],
			ComputedAt:       now,
		}
		if err := d.writeSignals(tx, sig); err != nil {
			return err
		}
	}

	if err := d.deriveMoments(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *Deriver) allPaths() ([]string, error) {
	rows, err := d.db.Query(`SELECT DISTINCT path FROM symbol_facts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *Deriver) importerCounts() (map[string]int, error) {
	rows, err := d.db.Query(`SELECT imported, COUNT(DISTINCT importer) FROM import_edges GROUP BY imported`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var path string
		var count int
		if err := rows.Scan(&path, &count); err != nil {
			return nil, err
		}
		out[path] = count
	}
	return out, rows.Err()
}

// centralityScores computes raw degree centrality on the call graph:
// in-degree plus out-degree per path, project-scoped, not normalized
// across projects (spec's explicit invariant).
func (d *Deriver) centralityScores(paths []string) (map[string]float64, error) {
	out := make(map[string]float64, len(paths))
	for _, p := range paths {
		out[p] = 0
	}
	rows, err := d.db.Query(`SELECT caller, callee FROM call_edges`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var caller, callee string
		if err := rows.Scan(&caller, &callee); err != nil {
			return nil, err
		}
		out[caller]++
		out[callee]++
	}
	return out, rows.Err()
}

// percentiles computes each path's centrality percentile within the
// current project's own distribution, as a fraction in (0, 1] (the Open
// Question decision recorded in DESIGN.md: raw score stays the
// invariant-mandated value, percentile is an additional annotation, not
// a replacement).
func percentiles(centrality map[string]float64) map[string]float64 {
	if len(centrality) == 0 {
		return map[string]float64{}
	}
	values := make([]float64, 0, len(centrality))
	for _, v := range centrality {
		values = append(values, v)
	}
	out := make(map[string]float64, len(centrality))
	for path, v := range centrality {
		out[path] = percentileRank(values, v) / 100
	}
	return out
}

// percentileRank returns the percentage (0-100] of values that are less
// than or equal to v.
func percentileRank(values []float64, v float64) float64 {
	var below int
	for _, x := range values {
		if x <= v {
			below++
		}
	}
	return 100 * float64(below) / float64(len(values))
}

func (d *Deriver) activityLevel(path string, now time.Time) (types.ActivityLevel, int, error) {
	row := d.db.QueryRow(`
		SELECT MAX(c.timestamp)
		FROM commits c JOIN commit_files cf ON cf.sha = c.sha
		WHERE cf.path = ?`, path)
	var lastTS sql.NullInt64
	if err := row.Scan(&lastTS); err != nil {
		return types.ActivityDormant, -1, err
	}
	if !lastTS.Valid {
		return types.ActivityDormant, -1, nil
	}
	last := time.Unix(0, lastTS.Int64).UTC()
	days := int(now.Sub(last).Hours() / 24)

	counts, err := d.commitCountsWithinWindows(path, now)
	if err != nil {
		return types.ActivityDormant, days, err
	}
	switch {
	case counts[7] > 0:
		return types.ActivityHigh, days, nil
	case counts[30] > 0:
		return types.ActivityMedium, days, nil
	case counts[180] > 0:
		return types.ActivityLow, days, nil
	default:
		return types.ActivityDormant, days, nil
	}
}

func (d *Deriver) commitCountsWithinWindows(path string, now time.Time) (map[int]int, error) {
	windows := []int{7, 30, 180}
	out := make(map[int]int, len(windows))
	for _, days := range windows {
		cutoff := now.Add(-time.Duration(days) * 24 * time.Hour).UnixNano()
		var count int
		err := d.db.QueryRow(`
			SELECT COUNT(*)
			FROM commits c JOIN commit_files cf ON cf.sha = c.sha
			WHERE cf.path = ? AND c.timestamp >= ?`, path, cutoff).Scan(&count)
		if err != nil {
			return nil, err
		}
		out[days] = count
	}
	return out, nil
}

func isEntryPoint(path string) bool {
	for _, pattern := range entryPointPatterns {
		if strings.HasSuffix(path, pattern) {
			return true
		}
	}
	return false
}

func (d *Deriver) writeSignals(tx *sql.Tx, s types.ModuleSignals) error {
	_, err := tx.Exec(`
		INSERT INTO module_signals (
			path, importer_count, is_entry_point, is_test_file, activity_level,
			last_commit_days, centrality_score, centrality_pctile, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			importer_count = excluded.importer_count,
			is_entry_point = excluded.is_entry_point,
			is_test_file = excluded.is_test_file,
			activity_level = excluded.activity_level,
			last_commit_days = excluded.last_commit_days,
			centrality_score = excluded.centrality_score,
			centrality_pctile = excluded.centrality_pctile,
			computed_at = excluded.computed_at`,
		s.Path, s.ImporterCount, s.IsEntryPoint, s.IsTestFile, string(s.ActivityLevel),
		s.LastCommitDays, s.CentralityScore, s.CentralityPctile, s.ComputedAt.UnixNano())
	return err
}
