package sqlite

import (
	"database/sql"
	"fmt"
)

// schemaSQL is the full relational + FTS5 schema, modeled on the
// teacher's internal/storage/sqlite/schema.go (one large raw-SQL
// constant executed at migration time, rather than a migration-library
// DSL) but re-purposed for the Event Log / Fact Materializer data model
// instead of the issue tracker's.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	event_type  TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	timestamp   INTEGER NOT NULL,
	data_json   BLOB NOT NULL,
	quarantined INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_events_type_source_id ON events(event_type, source_id, id);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);

CREATE TABLE IF NOT EXISTS watermark (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	last_event_id TEXT NOT NULL DEFAULT ''
);
INSERT OR IGNORE INTO watermark (id, last_event_id) VALUES (1, '');

CREATE TABLE IF NOT EXISTS commits (
	sha         TEXT PRIMARY KEY,
	message     TEXT NOT NULL,
	author      TEXT NOT NULL,
	timestamp   INTEGER NOT NULL,
	conv_type   TEXT NOT NULL DEFAULT '',
	scope       TEXT NOT NULL DEFAULT '',
	breaking    INTEGER NOT NULL DEFAULT 0,
	pr_ref      TEXT NOT NULL DEFAULT '',
	issue_refs  TEXT NOT NULL DEFAULT '[]',
	files_touched INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_commits_timestamp ON commits(timestamp);

CREATE TABLE IF NOT EXISTS commit_files (
	sha  TEXT NOT NULL,
	path TEXT NOT NULL,
	PRIMARY KEY (sha, path)
);
CREATE INDEX IF NOT EXISTS idx_commit_files_path ON commit_files(path);

CREATE TABLE IF NOT EXISTS symbol_facts (
	path       TEXT NOT NULL,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	signature  TEXT NOT NULL DEFAULT '',
	start_line INTEGER NOT NULL DEFAULT 0,
	end_line   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (path, name, kind)
);
CREATE INDEX IF NOT EXISTS idx_symbol_facts_path ON symbol_facts(path);

CREATE TABLE IF NOT EXISTS import_edges (
	importer TEXT NOT NULL,
	imported TEXT NOT NULL,
	PRIMARY KEY (importer, imported)
);
CREATE INDEX IF NOT EXISTS idx_import_edges_imported ON import_edges(imported);

CREATE TABLE IF NOT EXISTS call_edges (
	caller TEXT NOT NULL,
	callee TEXT NOT NULL,
	PRIMARY KEY (caller, callee)
);

CREATE TABLE IF NOT EXISTS co_change_edges (
	file_a TEXT NOT NULL,
	file_b TEXT NOT NULL,
	count  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (file_a, file_b)
);

CREATE TABLE IF NOT EXISTS sessions (
	id       TEXT PRIMARY KEY,
	goal     TEXT NOT NULL DEFAULT '',
	start_ts INTEGER NOT NULL,
	end_ts   INTEGER NOT NULL,
	notes    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS patterns (
	path    TEXT PRIMARY KEY,
	title   TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS forge_issues (
	number        INTEGER PRIMARY KEY,
	title         TEXT NOT NULL,
	body          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	labels        TEXT NOT NULL DEFAULT '[]',
	linked_issues TEXT NOT NULL DEFAULT '[]',
	comments      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS forge_prs (
	number        INTEGER PRIMARY KEY,
	title         TEXT NOT NULL,
	body          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	labels        TEXT NOT NULL DEFAULT '[]',
	linked_issues TEXT NOT NULL DEFAULT '[]',
	comments      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS module_signals (
	path               TEXT PRIMARY KEY,
	importer_count     INTEGER NOT NULL DEFAULT 0,
	is_entry_point     INTEGER NOT NULL DEFAULT 0,
	is_test_file       INTEGER NOT NULL DEFAULT 0,
	activity_level     TEXT NOT NULL DEFAULT 'dormant',
	last_commit_days   INTEGER NOT NULL DEFAULT -1,
	centrality_score   REAL NOT NULL DEFAULT 0,
	centrality_pctile  REAL NOT NULL DEFAULT 0,
	staleness_flags    TEXT NOT NULL DEFAULT '[]',
	computed_at        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS moments (
	sha         TEXT PRIMARY KEY,
	moment_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS moment_rules (
	rule_name   TEXT PRIMARY KEY,
	match_kind  TEXT NOT NULL,
	match_value TEXT NOT NULL,
	moment_type TEXT NOT NULL,
	priority    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS embeddings (
	row_id     INTEGER PRIMARY KEY,
	event_type TEXT NOT NULL,
	source_id  TEXT NOT NULL,
	vector     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_embeddings_source ON embeddings(event_type, source_id);

CREATE TABLE IF NOT EXISTS projections (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	d_in         INTEGER NOT NULL,
	d_out        INTEGER NOT NULL,
	matrix       BLOB NOT NULL,
	pairs_count  INTEGER NOT NULL,
	loss         REAL NOT NULL,
	epoch        INTEGER NOT NULL,
	base_model_id TEXT NOT NULL DEFAULT '',
	low_signal   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS connections (
	session_id  TEXT NOT NULL,
	commit_sha  TEXT NOT NULL,
	confidence  REAL NOT NULL DEFAULT 0,
	method      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session_id, commit_sha)
);

CREATE VIRTUAL TABLE IF NOT EXISTS code_fts USING fts5(
	symbol_name, content, path UNINDEXED, doc_id UNINDEXED
);

CREATE VIRTUAL TABLE IF NOT EXISTS commits_fts USING fts5(
	message, conv_fields, sha UNINDEXED
);

CREATE VIRTUAL TABLE IF NOT EXISTS pattern_fts USING fts5(
	title, content, path UNINDEXED
);
`

// seedMomentRulesSQL is the hard-coded starting vocabulary (matching
// spec's design notes), applied with INSERT OR IGNORE by every migrate,
// i.e. on every OpenPath: a seed rule whose rule_name is missing from the
// table is inserted again, and existing rows, edited or not, are kept —
// see DESIGN.md's Open Question decision on moment rule vocabulary.
const seedMomentRulesSQL = `
INSERT OR IGNORE INTO moment_rules (rule_name, match_kind, match_value, moment_type, priority) VALUES
	('big_bang_file_count', 'file_count_gt', '50', 'big_bang', 100),
	('breaking_bang', 'keyword', '!', 'breaking', 90),
	('breaking_footer', 'keyword', 'BREAKING CHANGE', 'breaking', 90),
	('migration_type', 'conventional_type', 'migration', 'migration', 50),
	('migration_keyword', 'keyword', 'migrate', 'migration', 40),
	('rewrite_keyword', 'keyword', 'rewrite', 'rewrite', 40),
	('release_type', 'conventional_type', 'release', 'release', 30),
	('major_refactor_keyword', 'keyword', 'refactor everything', 'major', 20);
`

func (s *Store) migrate() error {
	return s.withWrite(func(tx *sql.Tx) error {
		if _, err := tx.Exec(schemaSQL); err != nil {
			return fmt.Errorf("sqlite: applying schema: %w", err)
		}
		if _, err := tx.Exec(seedMomentRulesSQL); err != nil {
			return fmt.Errorf("sqlite: seeding moment rules: %w", err)
		}
		return nil
	})
}
