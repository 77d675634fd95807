package materializer

import (
	"database/sql"
	"encoding/json"

	"github.com/patina-dev/patina/internal/types"
)

func (m *Materializer) handleSession(tx *sql.Tx, e types.Event) error {
	var p sessionPayload
	if err := decodeValidate(m, e.Data, &p); err != nil {
		return err
	}
	_, err := tx.Exec(`
		INSERT INTO sessions (id, goal, start_ts, end_ts, notes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			goal = excluded.goal, end_ts = excluded.end_ts, notes = excluded.notes`,
		p.ID, p.Goal, p.StartTS, p.EndTS, p.Notes)
	return err
}

// handlePattern materializes a pattern.doc event into patterns and one
// pattern_fts row, replacing any prior row for the same path.
func (m *Materializer) handlePattern(tx *sql.Tx, e types.Event) error {
	var p patternPayload
	if err := decodeValidate(m, e.Data, &p); err != nil {
		return err
	}
	_, err := tx.Exec(`
		INSERT INTO patterns (path, title, content) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET title = excluded.title, content = excluded.content`,
		p.Path, p.Title, p.Content)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pattern_fts WHERE path = ?`, p.Path); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO pattern_fts (title, content, path) VALUES (?, ?, ?)`, p.Title, p.Content, p.Path)
	return err
}

func (m *Materializer) handleForgeIssue(tx *sql.Tx, e types.Event) error {
	var p forgeItemPayload
	if err := decodeValidate(m, e.Data, &p); err != nil {
		return err
	}
	return upsertForgeItem(tx, "forge_issues", p)
}

func (m *Materializer) handleForgePR(tx *sql.Tx, e types.Event) error {
	var p forgeItemPayload
	if err := decodeValidate(m, e.Data, &p); err != nil {
		return err
	}
	return upsertForgeItem(tx, "forge_prs", p)
}

func upsertForgeItem(tx *sql.Tx, table string, p forgeItemPayload) error {
	labels, _ := json.Marshal(p.Labels)
	linked, _ := json.Marshal(p.LinkedIssues)
	_, err := tx.Exec(`
		INSERT INTO `+table+` (number, title, body, state, labels, linked_issues, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			title = excluded.title, body = excluded.body, state = excluded.state,
			labels = excluded.labels, linked_issues = excluded.linked_issues, comments = excluded.comments`,
		p.Number, p.Title, p.Body, p.State, string(labels), string(linked), p.Comments)
	return err
}
