// Package sqlite implements the Event Log Store and Fact Materializer
// over SQLite (via ncruces/go-sqlite3, a pure-Go WASM-hosted driver —
// the same driver the teacher depends on for its issue store, here
// exercised directly rather than only transitively).
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store owns the SQLite connections backing one project's
// .patina/local/data/patina.db. Writers serialize on a single connection
// within the process. OpenPath also takes an exclusive gofrs/flock lock
// on a sibling .lock file and holds it until Close, so a second process
// (`patina ingest` while `patina serve` runs) fails to open the same
// database instead of writing to it concurrently, per spec's
// single-writer resource model. Readers use a separate pooled connection
// under WAL snapshots.
type Store struct {
	path string
	lock *flock.Flock

	writeMu sync.Mutex
	writeDB *sql.DB
	readDB  *sql.DB
}

// Open creates (if absent) and opens the database at
// <projectDir>/.patina/local/data/patina.db, applying the schema.
func Open(projectDir string) (*Store, error) {
	dataDir := filepath.Join(projectDir, ".patina", "local", "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: creating data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "patina.db")
	return OpenPath(dbPath)
}

// OpenPath opens (and migrates) a database at an explicit path, used
// directly by tests and the benchmark harness against scratch fixtures.
func OpenPath(dbPath string) (*Store, error) {
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("sqlite: acquiring writer lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("sqlite: %s is locked by another patina process", dbPath)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	writeDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("sqlite: opening write conn: %w", err)
	}
	writeDB.SetMaxOpenConns(1) // single writer, per spec's resource model

	readDSN := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&mode=ro"
	readDB, err := sql.Open("sqlite3", readDSN)
	if err != nil {
		writeDB.Close()
		lock.Unlock()
		return nil, fmt.Errorf("sqlite: opening read pool: %w", err)
	}
	readDB.SetMaxOpenConns(4)

	s := &Store{path: dbPath, lock: lock, writeDB: writeDB, readDB: readDB}
	if err := s.migrate(); err != nil {
		writeDB.Close()
		readDB.Close()
		lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Close releases both connection pools and the cross-process writer lock.
func (s *Store) Close() error {
	err1 := s.writeDB.Close()
	err2 := s.readDB.Close()
	err3 := s.lock.Unlock()
	if err1 != nil {
		return err1
	}
	if err2 != nil {
		return err2
	}
	return err3
}

// Path returns the on-disk database path, used by export/backup tooling.
func (s *Store) Path() string { return s.path }

// withWrite serializes the callback against the single write connection,
// mirroring the teacher's RunInTransaction BEGIN IMMEDIATE discipline.
func (s *Store) withWrite(fn func(*sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.writeDB.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
