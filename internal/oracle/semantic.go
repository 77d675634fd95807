package oracle

import (
	"context"
	"database/sql"

	"github.com/patina-dev/patina/internal/types"
	"github.com/patina-dev/patina/internal/vectorindex"
)

// EmbedProjector is the narrow capability Semantic needs: turn query
// text into a point in the learned retrieval space. Implemented by
// internal/query gluing together internal/embed and internal/projection
// so this package doesn't depend on either directly.
type EmbedProjector interface {
	EmbedAndProject(ctx context.Context, text string) ([]float32, error)
}

// Semantic embeds the query, projects into the learned space, searches
// the vector index, and joins rows back to SQL for snippets.
type Semantic struct {
	ep    EmbedProjector
	index *vectorindex.Index
	db    *sql.DB
}

func NewSemantic(ep EmbedProjector, index *vectorindex.Index, db *sql.DB) *Semantic {
	return &Semantic{ep: ep, index: index, db: db}
}

func (s *Semantic) Name() string { return "semantic" }

// IsAvailable reports false when the vector index hasn't been built yet
// — the engine downgrades gracefully rather than failing the request.
func (s *Semantic) IsAvailable() bool {
	return s.ep != nil && s.index != nil && s.index.Len() > 0
}

func (s *Semantic) Query(ctx context.Context, queryText string, limit int) ([]types.OracleResult, error) {
	vec, err := s.ep.EmbedAndProject(ctx, queryText)
	if err != nil {
		return nil, err
	}
	hits, err := s.index.Search(vec, limit)
	if err != nil {
		return nil, err
	}

	var out []types.OracleResult
	for _, h := range hits {
		var eventType, sourceID string
		err := s.db.QueryRowContext(ctx, `SELECT event_type, source_id FROM embeddings WHERE row_id = ?`, h.RowID).
			Scan(&eventType, &sourceID)
		if err != nil {
			continue
		}
		content, path := s.lookupContent(ctx, eventType, sourceID)
		out = append(out, types.OracleResult{
			DocID: sourceID, Content: content, RawScore: h.Similarity, ScoreType: types.ScoreCosine,
			Path: path, EventType: eventType,
		})
	}
	return out, nil
}

func (s *Semantic) lookupContent(ctx context.Context, eventType, sourceID string) (content, path string) {
	switch eventType {
	case types.EventCodeFunction, types.EventCodeType:
		_ = s.db.QueryRowContext(ctx, `SELECT signature, path FROM symbol_facts WHERE path || '::' || name = ?`, sourceID).
			Scan(&content, &path)
	case types.EventGitCommit:
		_ = s.db.QueryRowContext(ctx, `SELECT message FROM commits WHERE sha = ?`, sourceID).Scan(&content)
	case types.EventPatternDoc:
		path = sourceID
		_ = s.db.QueryRowContext(ctx, `SELECT content FROM patterns WHERE path = ?`, sourceID).Scan(&content)
	}
	return content, path
}
