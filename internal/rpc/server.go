package rpc

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/mod/semver"

	"github.com/patina-dev/patina/internal/logging"
	"github.com/patina-dev/patina/internal/observability"
	"github.com/patina-dev/patina/internal/query"
)

// ProtocolVersion is compared against the initialize request's
// clientVersion using golang.org/x/mod/semver, replacing the teacher's
// daemon-socket version handshake for a stdio transport.
const ProtocolVersion = "v1.0.0"

// Server is the stdio JSON-RPC 2.0 loop: one request per line in, one
// response per line out, grounded on the teacher's
// internal/rpc/server_core.go dispatch-by-method shape.
type Server struct {
	engine   *query.Engine
	db       *sql.DB
	recorder observability.Recorder
	logger   logging.Logger
}

func NewServer(engine *query.Engine, db *sql.DB, recorder observability.Recorder, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop
	}
	return &Server{engine: engine, db: db, recorder: recorder, logger: logger}
}

// Serve reads line-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or ctx is cancelled. A malformed
// line yields a parse-error response; the connection continues per
// spec's "RPC parse error: JSON-RPC error response; connection
// continues" failure semantics.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.handleLine(ctx, line)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *Server) handleLine(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse(nil, CodeParseError, "invalid JSON: "+err.Error())
	}
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return resultResponse(req.ID, map[string]interface{}{"tools": toolDefs})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		s.logger.Warn("unknown method", "method", req.Method)
		return errorResponse(req.ID, CodeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (s *Server) handleInitialize(req Request) Response {
	var params struct {
		ClientVersion string `json:"clientVersion"`
	}
	_ = json.Unmarshal(req.Params, &params)
	if params.ClientVersion != "" && semver.IsValid(params.ClientVersion) {
		if semver.Major(params.ClientVersion) != semver.Major(ProtocolVersion) {
			return errorResponse(req.ID, CodeInvalidRequest,
				fmt.Sprintf("incompatible protocol major version: client %s, server %s", params.ClientVersion, ProtocolVersion))
		}
	}
	return resultResponse(req.ID, map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"tools":           toolDefs,
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req Request) Response {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	var (
		result interface{}
		err    error
	)
	switch params.Name {
	case "scry":
		result, err = s.callScry(ctx, params.Arguments)
	case "context":
		result, err = s.callContext(ctx, params.Arguments)
	case "assay":
		result, err = s.callAssay(ctx, params.Arguments)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, "unknown tool: "+params.Name)
	}
	if err != nil {
		if te, ok := err.(*Error); ok {
			return errorResponse(req.ID, te.Code, te.Message)
		}
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}
	return resultResponse(req.ID, result)
}
