package oracle

import (
	"context"
	"database/sql"
	"strings"

	"github.com/patina-dev/patina/internal/types"
)

// Lexical runs FTS5 queries against code_fts, commits_fts, and
// pattern_fts, directly generalizing the teacher's HybridSearch
// (internal/queries/search.go): same BM25-via-snippet()/prefix-match
// idiom, extended from one table to three and from entity-expansion to
// commit->file expansion.
type Lexical struct {
	db             *sql.DB
	expandedTerms  []string
	preserveStop   bool // temporal intent keeps when/why/how (Open Question decision)
}

func NewLexical(db *sql.DB) *Lexical { return &Lexical{db: db} }

// WithExpandedTerms attaches caller-supplied terms appended to the
// original query to bridge vocabulary gaps (spec's expanded_terms input).
func (l *Lexical) WithExpandedTerms(terms []string) *Lexical {
	c := *l
	c.expandedTerms = terms
	return &c
}

// WithPreserveStopwords controls whether wh-words survive into the FTS
// MATCH clause; the Query Engine sets this true only for temporal intent.
func (l *Lexical) WithPreserveStopwords(preserve bool) *Lexical {
	c := *l
	c.preserveStop = preserve
	return &c
}

func (l *Lexical) Name() string { return "lexical" }

func (l *Lexical) IsAvailable() bool { return l.db != nil }

var stopWords = map[string]bool{"when": true, "why": true, "how": true}

func (l *Lexical) prepareQuery(queryText string) string {
	terms := strings.Fields(queryText)
	var kept []string
	for _, t := range terms {
		if !l.preserveStop && stopWords[strings.ToLower(t)] {
			continue
		}
		kept = append(kept, t)
	}
	kept = append(kept, l.expandedTerms...)
	if len(kept) == 0 {
		return queryText
	}
	match := strings.Join(kept, " ")
	// Bare single-term queries get a prefix wildcard for completion UX,
	// matching the teacher's matchQuery+"*" idiom.
	if len(kept) == 1 {
		match += "*"
	}
	return match
}

func (l *Lexical) Query(ctx context.Context, queryText string, limit int) ([]types.OracleResult, error) {
	match := l.prepareQuery(queryText)
	var results []types.OracleResult

	codeResults, err := l.queryCodeFTS(ctx, match, limit)
	if err != nil {
		return nil, err
	}
	results = append(results, codeResults...)

	commitResults, expansions, err := l.queryCommitsFTS(ctx, match, limit)
	if err != nil {
		return nil, err
	}
	results = append(results, commitResults...)
	results = append(results, expansions...)

	patternResults, err := l.queryPatternFTS(ctx, match, limit)
	if err != nil {
		return nil, err
	}
	results = append(results, patternResults...)

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (l *Lexical) queryCodeFTS(ctx context.Context, match string, limit int) ([]types.OracleResult, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT doc_id, path, symbol_name, snippet(code_fts, 1, '[', ']', '...', 10), bm25(code_fts)
		FROM code_fts WHERE code_fts MATCH ? ORDER BY bm25(code_fts) LIMIT ?`, match, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.OracleResult
	for rows.Next() {
		var docID, path, symbolName, snippet string
		var score float64
		if err := rows.Scan(&docID, &path, &symbolName, &snippet, &score); err != nil {
			return nil, err
		}
		out = append(out, types.OracleResult{
			DocID: docID, Content: snippet, RawScore: -score, ScoreType: types.ScoreBM25,
			Path: path, EventType: types.EventCodeFunction, MatchedTerms: strings.Fields(match),
		})
	}
	return out, rows.Err()
}

// queryCommitsFTS implements commit->file expansion: for each matching
// commit, emit one result for the commit and one per touched file,
// scored at the commit's score scaled by 0.8 and decaying per
// subsequent file — per spec's "single most important retrieval lever".
func (l *Lexical) queryCommitsFTS(ctx context.Context, match string, limit int) (commitHits, fileExpansions []types.OracleResult, err error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT sha, snippet(commits_fts, 0, '[', ']', '...', 12), bm25(commits_fts)
		FROM commits_fts WHERE commits_fts MATCH ? ORDER BY bm25(commits_fts) LIMIT ?`, match, limit)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type hit struct {
		sha, snippet string
		score        float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.sha, &h.snippet, &h.score); err != nil {
			return nil, nil, err
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	for _, h := range hits {
		rawScore := -h.score
		commitHits = append(commitHits, types.OracleResult{
			DocID: h.sha, Content: h.snippet, RawScore: rawScore, ScoreType: types.ScoreBM25,
			EventType: types.EventGitCommit, MatchedTerms: strings.Fields(match),
		})

		fileRows, err := l.db.QueryContext(ctx, `SELECT path FROM commit_files WHERE sha = ?`, h.sha)
		if err != nil {
			return nil, nil, err
		}
		decay := 0.8
		for fileRows.Next() {
			var path string
			if err := fileRows.Scan(&path); err != nil {
				fileRows.Close()
				return nil, nil, err
			}
			fileExpansions = append(fileExpansions, types.OracleResult{
				DocID: path, Content: h.snippet, RawScore: rawScore * decay, ScoreType: types.ScoreBM25,
				Path: path, EventType: types.EventGitCommit, MatchedTerms: strings.Fields(match),
			})
			decay *= 0.8
		}
		fileRows.Close()
	}
	return commitHits, fileExpansions, nil
}

func (l *Lexical) queryPatternFTS(ctx context.Context, match string, limit int) ([]types.OracleResult, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT path, snippet(pattern_fts, 1, '[', ']', '...', 10), bm25(pattern_fts)
		FROM pattern_fts WHERE pattern_fts MATCH ? ORDER BY bm25(pattern_fts) LIMIT ?`, match, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.OracleResult
	for rows.Next() {
		var path, snippet string
		var score float64
		if err := rows.Scan(&path, &snippet, &score); err != nil {
			return nil, err
		}
		out = append(out, types.OracleResult{
			DocID: path, Content: snippet, RawScore: -score, ScoreType: types.ScoreBM25,
			Path: path, EventType: types.EventPatternDoc, MatchedTerms: strings.Fields(match),
		})
	}
	return out, rows.Err()
}
