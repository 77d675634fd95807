package types

import "time"

// Commit is materialized from git.commit events.
type Commit struct {
	SHA         string
	Message     string
	Author      string
	Timestamp   time.Time
	Type        string // parsed conventional-commit type: feat, fix, refactor, perf, ...
	Scope       string
	Breaking    bool
	PRRef       string
	IssueRefs   []string
	FilesTouch  int // cached len(CommitFiles) for moment detection
}

// CommitFile is a (sha, path) pair materialized alongside its Commit.
type CommitFile struct {
	SHA  string
	Path string
}

// SymbolKind distinguishes FunctionFact/ImportFact/TypeFact rows that
// otherwise share a table.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindImport   SymbolKind = "import"
	KindType     SymbolKind = "type"
)

// SymbolFact is the materialized shape of a code.function/code.import/
// code.type event. A (Path, Name, Kind) triple has at most one live row;
// re-ingesting a changed file replaces its facts in one transaction.
type SymbolFact struct {
	Path      string
	Name      string
	Kind      SymbolKind
	Signature string
	StartLine int
	EndLine   int
}

// Session groups a developer's work into a time window with free-form notes.
type Session struct {
	ID      string
	Goal    string
	StartTS time.Time
	EndTS   time.Time
	Notes   string
}

// Pattern is a markdown document extracted from a knowledge tree
// (layer/core, layer/surface), indexed in pattern_fts.
type Pattern struct {
	Path    string
	Title   string
	Content string
}

// ForgeIssue mirrors an issue from an external forge (GitHub, GitLab, ...).
type ForgeIssue struct {
	Number       int
	Title        string
	Body         string
	State        string
	Labels       []string
	LinkedIssues []int
	Comments     int
}

// ForgePR mirrors a pull/merge request from an external forge.
type ForgePR struct {
	Number       int
	Title        string
	Body         string
	State        string
	Labels       []string
	LinkedIssues []int
	Comments     int
}
