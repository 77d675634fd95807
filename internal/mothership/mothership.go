// Package mothership resolves the user-scoped, cross-project SQLite
// database the Persona oracle reads from, grounded on the teacher's
// internal/daemon/registry.go cross-workspace registry (there: tracking
// running daemons per workspace; here: tracking known project databases
// under one user-level root).
package mothership

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Dir resolves the mothership root: PATINA_MOTHERSHIP env var if set,
// else ~/.patina, mirroring the teacher's ~/.beads fallback.
func Dir() (string, error) {
	if v := os.Getenv("PATINA_MOTHERSHIP"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".patina"), nil
}

// Registry tracks every project database known to this mothership root,
// persisted as a small JSON index file rather than its own SQLite table
// — the registry itself is metadata about databases, not facts.
type Registry struct {
	mu    sync.Mutex
	path  string
	Known map[string]string // project name -> db path
}

// Open loads (or initializes) the registry file under dir/registry.json.
func Open(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "registry.json")
	reg := &Registry{path: path, Known: map[string]string{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &reg.Known); err != nil {
		return nil, err
	}
	return reg, nil
}

// Register records project -> dbPath and persists the index.
func (r *Registry) Register(project, dbPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Known[project] = dbPath
	data, err := json.MarshalIndent(r.Known, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}

// OpenProjectDB opens a read-only connection to a known project's
// database for cross-project persona search. Returns (nil, nil) if the
// project is unknown, so the Persona oracle downgrades to unavailable
// rather than erroring.
func (r *Registry) OpenProjectDB(project string) (*sql.DB, error) {
	r.mu.Lock()
	path, ok := r.Known[project]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return sql.Open("sqlite3", path+"?mode=ro")
}

// All returns every known project name, for iterating the Persona
// oracle's cross-project search scope.
func (r *Registry) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Known))
	for name := range r.Known {
		names = append(names, name)
	}
	return names
}
