package rpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/patina-dev/patina/internal/query"
	"github.com/patina-dev/patina/internal/types"
)

// ToolDef is advertised verbatim under tools/list.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

var toolDefs = []ToolDef{
	{
		Name:        "scry",
		Description: "Hybrid retrieval query across semantic, lexical, temporal, structural, and persona oracles.",
		InputSchema: json.RawMessage(`{
			"type":"object",
			"properties":{
				"query":{"type":"string"},
				"mode":{"type":"string","enum":["find","orient","recent","why"]},
				"intent":{"type":"string"},
				"limit":{"type":"integer"},
				"expanded_terms":{"type":"array","items":{"type":"string"}},
				"doc_id":{"type":"string"}
			}
		}`),
	},
	{
		Name:        "context",
		Description: "Look up a pattern document by topic.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"topic":{"type":"string"}},"required":["topic"]}`),
	},
	{
		Name:        "assay",
		Description: "Structural queries: inventory, imports, callers, callees.",
		InputSchema: json.RawMessage(`{
			"type":"object",
			"properties":{
				"query":{"type":"string","enum":["inventory","imports","callers","callees"]},
				"path":{"type":"string"}
			},
			"required":["query"]
		}`),
	},
}

// scryArgs mirrors spec's scry tool argument list exactly.
type scryArgs struct {
	Query         string   `json:"query"`
	Mode          string   `json:"mode"`
	Intent        string   `json:"intent"`
	Limit         int      `json:"limit"`
	ExpandedTerms []string `json:"expanded_terms"`
	DocID         string   `json:"doc_id"`
}

func (s *Server) callScry(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args scryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolError(CodeInvalidParams, err.Error())
	}
	mode := types.QueryMode(args.Mode)
	if mode == "" {
		mode = types.ModeFind
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}
	opts := query.Options{ExpandedTerms: args.ExpandedTerms, DocID: args.DocID}

	resp, err := s.engine.Query(ctx, args.Query, mode, types.Intent(args.Intent), limit, opts)
	if err != nil {
		return nil, toolError(CodeInvalidParams, err.Error())
	}
	queryID := s.recorder.RecordQuery(args.Query, string(mode), string(args.Intent), resp)
	resp.QueryID = queryID
	return resp, nil
}

func (s *Server) callContext(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolError(CodeInvalidParams, err.Error())
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT path, title, content FROM patterns WHERE path LIKE '%'||?||'%' OR title LIKE '%'||?||'%' LIMIT 1`,
		args.Topic, args.Topic)
	var path, title, content string
	if err := row.Scan(&path, &title, &content); err != nil {
		if err == sql.ErrNoRows {
			return nil, toolError(CodeInvalidParams, fmt.Sprintf("no pattern found for topic %q", args.Topic))
		}
		return nil, toolError(CodeInternalError, err.Error())
	}
	return map[string]string{"path": path, "title": title, "content": content}, nil
}

func (s *Server) callAssay(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args struct {
		Query string `json:"query"`
		Path  string `json:"path"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolError(CodeInvalidParams, err.Error())
	}
	switch args.Query {
	case "inventory":
		return s.assayInventory(ctx)
	case "imports":
		return s.assayEdges(ctx, "import_edges", "importer", "imported", args.Path)
	case "callers":
		return s.assayEdges(ctx, "call_edges", "callee", "caller", args.Path)
	case "callees":
		return s.assayEdges(ctx, "call_edges", "caller", "callee", args.Path)
	default:
		return nil, toolError(CodeInvalidParams, "unknown assay query: "+args.Query)
	}
}

func (s *Server) assayInventory(ctx context.Context) (interface{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, importer_count, is_entry_point, is_test_file, activity_level, centrality_score FROM module_signals ORDER BY centrality_score DESC`)
	if err != nil {
		return nil, toolError(CodeInternalError, err.Error())
	}
	defer rows.Close()
	var out []map[string]interface{}
	for rows.Next() {
		var path, activity string
		var importers int
		var entry, test bool
		var centrality float64
		if err := rows.Scan(&path, &importers, &entry, &test, &activity, &centrality); err != nil {
			return nil, toolError(CodeInternalError, err.Error())
		}
		out = append(out, map[string]interface{}{
			"path": path, "importer_count": importers, "is_entry_point": entry,
			"is_test_file": test, "activity_level": activity, "centrality_score": centrality,
		})
	}
	return out, rows.Err()
}

// assayEdges answers imports/callers/callees by matching the driving
// column against path and projecting the other column, reused across
// the three edge-table queries per spec's single "structural queries"
// tool with a query discriminator.
func (s *Server) assayEdges(ctx context.Context, table, matchCol, projectCol, path string) (interface{}, error) {
	if path == "" {
		return nil, toolError(CodeInvalidParams, "path is required for "+table+" query")
	}
	//nolint:gosec -- table/matchCol/projectCol are fixed internal literals, never user input
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, projectCol, table, matchCol)
	rows, err := s.db.QueryContext(ctx, q, path)
	if err != nil {
		return nil, toolError(CodeInternalError, err.Error())
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, toolError(CodeInternalError, err.Error())
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func toolError(code int, msg string) error { return &Error{Code: code, Message: msg} }
func (e *Error) Error() string              { return e.Message }
