package oracle

import (
	"context"
	"database/sql"

	"github.com/patina-dev/patina/internal/types"
	"github.com/patina-dev/patina/internal/vectorindex"
)

// Commits is semantic search over commit messages specifically —
// optional, since some repos carry too little commit-message signal to
// be worth a dedicated oracle over and above Lexical's commits_fts path.
type Commits struct {
	ep    EmbedProjector
	index *vectorindex.Index
	db    *sql.DB
}

func NewCommits(ep EmbedProjector, index *vectorindex.Index, db *sql.DB) *Commits {
	return &Commits{ep: ep, index: index, db: db}
}

func (c *Commits) Name() string { return "commits" }

func (c *Commits) IsAvailable() bool {
	return c.db != nil && c.ep != nil && c.index != nil && c.index.Len() > 0
}

func (c *Commits) Query(ctx context.Context, queryText string, limit int) ([]types.OracleResult, error) {
	vec, err := c.ep.EmbedAndProject(ctx, queryText)
	if err != nil {
		return nil, err
	}
	hits, err := c.index.Search(vec, limit)
	if err != nil {
		return nil, err
	}

	var out []types.OracleResult
	for _, h := range hits {
		var sha, message string
		err := c.db.QueryRowContext(ctx, `
			SELECT commits.sha, message FROM commits
			JOIN embeddings ON embeddings.source_id = commits.sha
			WHERE embeddings.row_id = ? AND embeddings.event_type = ?`,
			h.RowID, types.EventGitCommit).Scan(&sha, &message)
		if err != nil {
			continue
		}
		out = append(out, types.OracleResult{
			DocID: sha, Content: message, RawScore: h.Similarity, ScoreType: types.ScoreCosine,
			EventType: types.EventGitCommit,
		})
	}
	return out, nil
}
