// Package oracle implements the six retrieval strategies behind the
// Query Engine's uniform interface, grounded on the teacher's
// internal/queries/search.go (HybridSearch's BM25+prefix+entity-expansion
// idiom, generalized here into the lexical oracle) and
// internal/queries/graph.go (edge-table ranking, generalized into the
// temporal oracle).
package oracle

import (
	"context"

	"github.com/patina-dev/patina/internal/types"
)

// Oracle is the uniform capability every retrieval strategy implements;
// variants are closed and enumerated at Query Engine construction time
// per the design notes' "oracle polymorphism" note.
type Oracle interface {
	Name() string
	IsAvailable() bool
	Query(ctx context.Context, queryText string, limit int) ([]types.OracleResult, error)
}
