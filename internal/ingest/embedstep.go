package ingest

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/patina-dev/patina/internal/types"
	"github.com/patina-dev/patina/internal/vectorindex"
)

// Embedder is the narrow capability the embedding/indexing step needs.
type Embedder interface {
	EmbedAndProject(ctx context.Context, text string) ([]float32, error)
}

// embedCandidate is one row eligible for embedding: a piece of content
// addressed by (event_type, source_id).
type embedCandidate struct {
	eventType string
	sourceID  string
	content   string
}

// EmbedAndIndex implements the pipeline's "embedding" and "indexing"
// states in one pass: find facts with no embeddings row yet, embed and
// project each, append to the vector index, and persist both the SQL
// metadata row and the index.
func EmbedAndIndex(ctx context.Context, db *sql.DB, store interface {
	WithWrite(func(*sql.Tx) error) error
}, emb Embedder, index *vectorindex.Index, indexPath string) (int, error) {
	candidates, err := pendingCandidates(db)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, c := range candidates {
		vec, err := emb.EmbedAndProject(ctx, c.content)
		if err != nil {
			continue // downgrade: one bad embed doesn't stop the batch
		}
		var rowID int64
		err = store.WithWrite(func(tx *sql.Tx) error {
			res, err := tx.Exec(`INSERT INTO embeddings (event_type, source_id, vector) VALUES (?, ?, ?)`,
				c.eventType, c.sourceID, encodeVector(vec))
			if err != nil {
				return err
			}
			rowID, err = res.LastInsertId()
			return err
		})
		if err != nil {
			continue
		}
		if err := index.Add(rowID, vec); err != nil {
			continue
		}
		count++
	}
	if count > 0 && indexPath != "" {
		if err := index.Persist(indexPath); err != nil {
			return count, err
		}
	}
	return count, nil
}

func pendingCandidates(db *sql.DB) ([]embedCandidate, error) {
	var out []embedCandidate

	rows, err := db.Query(`
		SELECT sf.path, sf.name, sf.signature, sf.kind FROM symbol_facts sf
		LEFT JOIN embeddings e ON e.event_type IN (?, ?) AND e.source_id = sf.path || '::' || sf.name
		WHERE e.row_id IS NULL`, types.EventCodeFunction, types.EventCodeType)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var path, name, sig, kind string
		if err := rows.Scan(&path, &name, &sig, &kind); err != nil {
			rows.Close()
			return nil, err
		}
		eventType := types.EventCodeFunction
		if kind == string(types.KindType) {
			eventType = types.EventCodeType
		}
		out = append(out, embedCandidate{eventType: eventType, sourceID: path + "::" + name, content: sig})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := db.Query(`
		SELECT c.sha, c.message FROM commits c
		LEFT JOIN embeddings e ON e.event_type = ? AND e.source_id = c.sha
		WHERE e.row_id IS NULL`, types.EventGitCommit)
	if err != nil {
		return nil, err
	}
	for crows.Next() {
		var sha, message string
		if err := crows.Scan(&sha, &message); err != nil {
			crows.Close()
			return nil, err
		}
		out = append(out, embedCandidate{eventType: types.EventGitCommit, sourceID: sha, content: message})
	}
	crows.Close()
	if err := crows.Err(); err != nil {
		return nil, err
	}

	prows, err := db.Query(`
		SELECT p.path, p.content FROM patterns p
		LEFT JOIN embeddings e ON e.event_type = ? AND e.source_id = p.path
		WHERE e.row_id IS NULL`, types.EventPatternDoc)
	if err != nil {
		return nil, err
	}
	for prows.Next() {
		var path, content string
		if err := prows.Scan(&path, &content); err != nil {
			prows.Close()
			return nil, err
		}
		out = append(out, embedCandidate{eventType: types.EventPatternDoc, sourceID: path, content: content})
	}
	prows.Close()
	return out, prows.Err()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}
