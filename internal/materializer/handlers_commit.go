package materializer

import (
	"database/sql"
	"encoding/json"

	"github.com/patina-dev/patina/internal/types"
)

// handleCommit materializes a git.commit event into commits/commit_files
// and adds one row to commits_fts, per step 5 of the algorithm.
func (m *Materializer) handleCommit(tx *sql.Tx, e types.Event) error {
	var p commitPayload
	if err := decodeValidate(m, e.Data, &p); err != nil {
		return err
	}

	issueRefsJSON, _ := json.Marshal(p.IssueRefs)

	_, err := tx.Exec(`
		INSERT INTO commits (sha, message, author, timestamp, conv_type, scope, breaking, pr_ref, issue_refs, files_touched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sha) DO UPDATE SET
			message = excluded.message, author = excluded.author, timestamp = excluded.timestamp,
			conv_type = excluded.conv_type, scope = excluded.scope, breaking = excluded.breaking,
			pr_ref = excluded.pr_ref, issue_refs = excluded.issue_refs, files_touched = excluded.files_touched`,
		p.SHA, p.Message, p.Author, e.Timestamp.UnixNano(), p.Type, p.Scope, p.Breaking, p.PRRef,
		string(issueRefsJSON), len(p.Files))
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM commit_files WHERE sha = ?`, p.SHA); err != nil {
		return err
	}
	for _, f := range p.Files {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO commit_files (sha, path) VALUES (?, ?)`, p.SHA, f); err != nil {
			return err
		}
	}

	// FTS dedup: one commits_fts row per sha, refreshed on re-ingest
	// rather than appended to, so repeated materialization stays
	// byte-identical.
	if _, err := tx.Exec(`DELETE FROM commits_fts WHERE sha = ?`, p.SHA); err != nil {
		return err
	}
	convFields := p.Type + " " + p.Scope + " " + p.PRRef
	_, err = tx.Exec(`INSERT INTO commits_fts (message, conv_fields, sha) VALUES (?, ?, ?)`,
		p.Message, convFields, p.SHA)
	return err
}
