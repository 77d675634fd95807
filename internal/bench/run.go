package bench

import (
	"context"
	"time"

	"github.com/patina-dev/patina/internal/query"
	"github.com/patina-dev/patina/internal/types"
)

// Result is the aggregate the runner accumulates across the whole suite.
type Result struct {
	MRR            float64
	RecallAt5      float64
	RecallAt10     float64
	FileRecallAt10 float64
	MeanLatency    time.Duration
	CasesRun       int
}

// Run executes every case in-process against engine and aggregates MRR,
// Recall@5, Recall@10, File-Recall@10, and mean latency. Run has no
// oracle filter of its own: an ablation run ("--oracle X") passes an
// engine built with that single oracle.
func Run(ctx context.Context, engine *query.Engine, cases []Case) Result {
	var (
		mrrSum, recall5Sum, recall10Sum, fileRecall10Sum float64
		totalLatency                                     time.Duration
		n                                                int
	)
	for _, c := range cases {
		start := time.Now()
		resp, err := engine.Query(ctx, c.Query, types.ModeFind, "", 10, query.Options{})
		elapsed := time.Since(start)
		if err != nil {
			continue
		}
		n++
		totalLatency += elapsed

		relevant := toSet(c.RelevantDocs)
		rank := firstRelevantRank(resp.Results, relevant)
		if rank > 0 {
			mrrSum += 1.0 / float64(rank)
		}
		recall5Sum += recallAtK(resp.Results, relevant, 5)
		recall10Sum += recallAtK(resp.Results, relevant, 10)
		fileRecall10Sum += fileRecallAtK(resp.Results, relevant, 10)
	}
	if n == 0 {
		return Result{}
	}
	return Result{
		MRR:            mrrSum / float64(n),
		RecallAt5:      recall5Sum / float64(n),
		RecallAt10:     recall10Sum / float64(n),
		FileRecallAt10: fileRecall10Sum / float64(n),
		MeanLatency:    totalLatency / time.Duration(n),
		CasesRun:       n,
	}
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func firstRelevantRank(results []types.FusedResult, relevant map[string]bool) int {
	for i, r := range results {
		if relevant[r.DocID] || relevant[r.Path] {
			return i + 1
		}
	}
	return 0
}

func recallAtK(results []types.FusedResult, relevant map[string]bool, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	if k > len(results) {
		k = len(results)
	}
	hit := 0
	for _, r := range results[:k] {
		if relevant[r.DocID] || relevant[r.Path] {
			hit++
		}
	}
	return float64(hit) / float64(len(relevant))
}

// fileRecallAtK counts a hit on path alone, since semantic/lexical
// oracles may surface a symbol doc_id for a file that is itself the
// ground-truth relevant document — spec's distinct "File-Recall@K"
// metric from plain doc-id Recall@K.
func fileRecallAtK(results []types.FusedResult, relevant map[string]bool, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	if k > len(results) {
		k = len(results)
	}
	seen := make(map[string]bool)
	for _, r := range results[:k] {
		if r.Path != "" {
			seen[r.Path] = true
		}
	}
	hit := 0
	for path := range relevant {
		if seen[path] {
			hit++
		}
	}
	return float64(hit) / float64(len(relevant))
}
