package query

import (
	"sort"

	"github.com/patina-dev/patina/internal/types"
)

// rrfK is the RRF smoothing constant, fixed per spec.
const rrfK = 60

// oracleHits is one oracle's ranked output, already truncated to its
// over-fetch limit by the caller.
type oracleHits struct {
	oracle  string
	results []types.OracleResult
}

// fuse computes weighted RRF: score(doc) = sum_i weight[oracle_i] *
// 1/(k+rank_i(doc)). Ties broken by (higher sum of raw scores, then
// lexicographic doc_id). Contributions where an oracle did not return
// the doc are omitted, not represented as null.
func fuse(hits []oracleHits, weights map[string]float64) []types.FusedResult {
	type accum struct {
		docID         string
		score         float64
		rawScoreSum   float64
		contributions []types.Contribution
		bestResult    types.OracleResult
	}
	byDoc := make(map[string]*accum)

	for _, h := range hits {
		weight := weights[h.oracle]
		if weight == 0 {
			weight = 1.0
		}
		for rank, r := range h.results {
			a, ok := byDoc[r.DocID]
			if !ok {
				a = &accum{docID: r.DocID, bestResult: r}
				byDoc[r.DocID] = a
			}
			rrfScore := weight * (1.0 / float64(rrfK+rank+1))
			a.score += rrfScore
			a.rawScoreSum += r.RawScore
			a.contributions = append(a.contributions, types.Contribution{
				Oracle: h.oracle, Rank: rank + 1, RawScore: r.RawScore, ScoreType: r.ScoreType,
			})
		}
	}

	out := make([]types.FusedResult, 0, len(byDoc))
	for _, a := range byDoc {
		out = append(out, types.FusedResult{
			DocID:         a.docID,
			Content:       a.bestResult.Content,
			Score:         a.score,
			Contributions: a.contributions,
			Path:          a.bestResult.Path,
			Line:          a.bestResult.Line,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		si, sj := rawScoreSum(out[i]), rawScoreSum(out[j])
		if si != sj {
			return si > sj
		}
		return out[i].DocID < out[j].DocID
	})
	return out
}

func rawScoreSum(r types.FusedResult) float64 {
	var sum float64
	for _, c := range r.Contributions {
		sum += c.RawScore
	}
	return sum
}
