package projection

import (
	"database/sql"
	"math/rand"
	"regexp"
	"strings"

	"github.com/patina-dev/patina/internal/types"
)

var conventionalPrefix = regexp.MustCompile(`^(feat|fix|refactor|perf)(\(|:|!)`)

// qualifiesForSignal filters commits per spec's pair-source quality gate:
// message length > 30, not a merge/WIP, conventional prefix.
func qualifiesForSignal(message string) bool {
	if len(message) <= 30 {
		return false
	}
	lower := strings.ToLower(message)
	if strings.HasPrefix(lower, "merge ") || strings.Contains(lower, "wip") {
		return false
	}
	return conventionalPrefix.MatchString(lower)
}

// CommitSignalPairs builds the always-available commit-signal pair
// source: anchor = commit message, positive = content sampled from a
// touched file, negative = content from a random untouched file.
// Weight is the commit's moment multiplier.
func CommitSignalPairs(db *sql.DB, fileContent func(path string) (string, error), limit int) ([]Pair, error) {
	rows, err := db.Query(`
		SELECT c.sha, c.message, m.moment_type
		FROM commits c
		LEFT JOIN moments m ON m.sha = c.sha
		ORDER BY c.timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allPaths []string
	pathRows, err := db.Query(`SELECT DISTINCT path FROM symbol_facts`)
	if err != nil {
		return nil, err
	}
	for pathRows.Next() {
		var p string
		if err := pathRows.Scan(&p); err != nil {
			pathRows.Close()
			return nil, err
		}
		allPaths = append(allPaths, p)
	}
	pathRows.Close()

	var pairs []Pair
	for rows.Next() {
		var sha, message string
		var momentType sql.NullString
		if err := rows.Scan(&sha, &message, &momentType); err != nil {
			return nil, err
		}
		if !qualifiesForSignal(message) {
			continue
		}

		touched, err := touchedFiles(db, sha)
		if err != nil || len(touched) == 0 {
			continue
		}
		positivePath := touched[0]
		negativePath := randomUntouched(allPaths, touched)
		if negativePath == "" {
			continue
		}

		posContent, err := fileContent(positivePath)
		if err != nil {
			continue
		}
		negContent, err := fileContent(negativePath)
		if err != nil {
			continue
		}

		weight := MomentWeight(types.MomentType(momentType.String))
		pairs = append(pairs, Pair{
			Anchor:   cleanCommitMessage(message),
			Positive: posContent,
			Negative: negContent,
			Weight:   weight,
		})
	}
	return pairs, rows.Err()
}

func touchedFiles(db *sql.DB, sha string) ([]string, error) {
	rows, err := db.Query(`SELECT path FROM commit_files WHERE sha = ?`, sha)
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

func randomUntouched(all, touched []string) string {
	touchedSet := make(map[string]bool, len(touched))
	for _, t := range touched {
		touchedSet[t] = true
	}
	var candidates []string
	for _, p := range all {
		if !touchedSet[p] {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[rand.Intn(len(candidates))]
}

func cleanCommitMessage(message string) string {
	// Strip a conventional-commit type prefix so the anchor text reads
	// as natural language rather than "feat(x):" boilerplate.
	if idx := strings.Index(message, ":"); idx > 0 && idx < 20 {
		return strings.TrimSpace(message[idx+1:])
	}
	return message
}

// SessionSignalPairs builds the optional session-cooccurrence pair
// source: anchor/positive from the same session's observations, negative
// from a different session. Returns nil if fewer than two sessions exist.
func SessionSignalPairs(db *sql.DB) ([]Pair, error) {
	rows, err := db.Query(`SELECT id, notes FROM sessions WHERE notes != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type sess struct{ id, notes string }
	var sessions []sess
	for rows.Next() {
		var s sess
		if err := rows.Scan(&s.id, &s.notes); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) < 2 {
		return nil, nil
	}

	var pairs []Pair
	for i, s := range sessions {
		lines := strings.Split(s.notes, "\n")
		if len(lines) < 2 {
			continue
		}
		neg := sessions[(i+1)%len(sessions)]
		pairs = append(pairs, Pair{
			Anchor:   lines[0],
			Positive: lines[1],
			Negative: neg.notes,
			Weight:   1.0,
		})
	}
	return pairs, nil
}
