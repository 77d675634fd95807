package oracle

import (
	"context"
	"database/sql"

	"github.com/patina-dev/patina/internal/types"
	"github.com/patina-dev/patina/internal/vectorindex"
)

// Persona is vector search over a per-user, cross-project knowledge
// store (beliefs, patterns accumulated under the mothership directory).
// It reuses Semantic's embed/project/search shape: hits come from the
// vector index it is given and are joined against its own database
// handle. cmd/patina passes the mothership-registered database together
// with the project's own vector index.
type Persona struct {
	ep    EmbedProjector
	index *vectorindex.Index
	db    *sql.DB
}

func NewPersona(ep EmbedProjector, index *vectorindex.Index, db *sql.DB) *Persona {
	return &Persona{ep: ep, index: index, db: db}
}

func (p *Persona) Name() string { return "persona" }

func (p *Persona) IsAvailable() bool {
	return p.db != nil && p.ep != nil && p.index != nil && p.index.Len() > 0
}

func (p *Persona) Query(ctx context.Context, queryText string, limit int) ([]types.OracleResult, error) {
	vec, err := p.ep.EmbedAndProject(ctx, queryText)
	if err != nil {
		return nil, err
	}
	hits, err := p.index.Search(vec, limit)
	if err != nil {
		return nil, err
	}

	var out []types.OracleResult
	for _, h := range hits {
		var sourceID, content string
		err := p.db.QueryRowContext(ctx, `
			SELECT source_id, content FROM patterns
			JOIN embeddings ON embeddings.source_id = patterns.path
			WHERE embeddings.row_id = ?`, h.RowID).Scan(&sourceID, &content)
		if err != nil {
			continue
		}
		out = append(out, types.OracleResult{
			DocID: sourceID, Content: content, RawScore: h.Similarity, ScoreType: types.ScoreCosine,
			Path: sourceID, EventType: types.EventPatternDoc,
		})
	}
	return out, nil
}
