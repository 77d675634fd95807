// Package bench generates commit-derived ground truth and scores the
// Query Engine against it, grounded on spec's benchmark harness
// section: "the query set is generated from git itself."
package bench

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
)

// Case is one benchmark query: a commit message as the query text, and
// the files it touched as the relevant-document ground truth.
type Case struct {
	SHA            string
	Query          string
	RelevantDocs   []string
	RelevantCommit string
}

var mergeOrWIP = regexp.MustCompile(`(?i)^(merge|wip|revert)\b`)

// GenerateCases pulls (message -> files_touched) ground truth straight
// from the materialized commits/commit_files tables: message length in
// [20, 200], non-merge, non-WIP, and 2 <= files <= 15.
func GenerateCases(ctx context.Context, db *sql.DB, limit int) ([]Case, error) {
	rows, err := db.QueryContext(ctx, `SELECT sha, message FROM commits ORDER BY timestamp ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []Case
	for rows.Next() {
		var sha, message string
		if err := rows.Scan(&sha, &message); err != nil {
			return nil, err
		}
		msg := strings.TrimSpace(message)
		if len(msg) < 20 || len(msg) > 200 {
			continue
		}
		if mergeOrWIP.MatchString(msg) {
			continue
		}
		files, err := touchedFiles(ctx, db, sha)
		if err != nil {
			return nil, err
		}
		if len(files) < 2 || len(files) > 15 {
			continue
		}
		cases = append(cases, Case{SHA: sha, Query: msg, RelevantDocs: files, RelevantCommit: sha})
		if limit > 0 && len(cases) >= limit {
			break
		}
	}
	return cases, rows.Err()
}

func touchedFiles(ctx context.Context, db *sql.DB, sha string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT path FROM commit_files WHERE sha = ?`, sha)
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
