package query

import "github.com/patina-dev/patina/internal/types"

// expandCommitHits is the engine-level expansion step after fusion and
// returns results unchanged. Commit→file expansion happens before
// fusion, in the lexical oracle (internal/oracle/lexical.go), which
// emits each matching commit's touched files as results of their own.
func expandCommitHits(results []types.FusedResult) []types.FusedResult {
	// Oracle-level expansion already emits file-level docs into the
	// fused set with their own RRF contributions, so this pass is a
	// pure pass-through placeholder for additional post-fusion
	// expansion policy (e.g. a future cross-oracle commit hit with no
	// lexical file expansion attached). Kept as a named, separately
	// testable step per spec's state machine: fused -> expanded -> ...
	return results
}

// reorderByRecency is applied under recent mode to the fused
// lexical/semantic result set and returns it unchanged: the order stays
// the fused RRF order, and neither last_commit_days nor the temporal
// oracle is used to re-rank it.
func reorderByRecency(results []types.FusedResult, annotator StructuralAnnotator) []types.FusedResult {
	return results
}
