package query

import (
	"context"

	"github.com/patina-dev/patina/internal/projection"
	"github.com/patina-dev/patina/internal/types"
)

// embedder is the narrow capability this package needs from
// internal/embed, kept local so query doesn't force a wazero runtime
// dependency onto callers that only want RRF/intent logic (e.g. tests).
type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pipeline implements oracle.EmbedProjector by gluing the Embedder and a
// trained Projection together — the combination every vector-search
// oracle (semantic, persona, commits) needs but neither package alone
// should own.
type Pipeline struct {
	embedder   embedder
	projection types.Projection
}

func NewPipeline(e embedder, proj types.Projection) *Pipeline {
	return &Pipeline{embedder: e, projection: proj}
}

func (p *Pipeline) EmbedAndProject(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(p.projection.Matrix) == 0 {
		return vec, nil
	}
	return projection.Apply(p.projection, vec), nil
}
