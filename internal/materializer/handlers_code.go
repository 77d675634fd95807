package materializer

import (
	"database/sql"

	"github.com/patina-dev/patina/internal/types"
)

// handleSymbol materializes a code.function/code.type event into
// symbol_facts and adds one code_fts row keyed by doc_id "<path>::<name>".
// A (path, name, kind) triple has at most one live fact, enforced by the
// table's primary key plus a replace-on-conflict write.
func (m *Materializer) handleSymbol(tx *sql.Tx, e types.Event, kind types.SymbolKind) error {
	var p symbolPayload
	if err := decodeValidate(m, e.Data, &p); err != nil {
		return err
	}

	_, err := tx.Exec(`
		INSERT INTO symbol_facts (path, name, kind, signature, start_line, end_line)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path, name, kind) DO UPDATE SET
			signature = excluded.signature, start_line = excluded.start_line, end_line = excluded.end_line`,
		p.Path, p.Name, string(kind), p.Signature, p.StartLine, p.EndLine)
	if err != nil {
		return err
	}

	docID := p.Path + "::" + p.Name

	// GROUP BY (source_id, event_type) dedup: delete any prior row for
	// this doc before inserting, so re-scraping never produces a second
	// code_fts row for the same (file, event_type).
	if _, err := tx.Exec(`DELETE FROM code_fts WHERE doc_id = ?`, docID); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO code_fts (symbol_name, content, path, doc_id) VALUES (?, ?, ?, ?)`,
		p.Name, p.Signature, p.Path, docID)
	return err
}

// handleImport materializes a code.import event into import_edges, used
// by the Structural Deriver's importer_count computation.
func (m *Materializer) handleImport(tx *sql.Tx, e types.Event) error {
	var p importPayload
	if err := decodeValidate(m, e.Data, &p); err != nil {
		return err
	}
	_, err := tx.Exec(`INSERT OR IGNORE INTO import_edges (importer, imported) VALUES (?, ?)`,
		p.Path, p.Imported)
	return err
}
