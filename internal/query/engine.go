package query

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/patina-dev/patina/internal/oracle"
	"github.com/patina-dev/patina/internal/types"
)

// StructuralAnnotator looks up structural signals for provenance
// annotation, regardless of whether structural contributed to ranking.
type StructuralAnnotator interface {
	Annotate(ctx context.Context, path string) (*types.ModuleSignals, error)
}

// Engine dispatches to enabled oracles in parallel, fuses with weighted
// RRF, and assembles provenance. Oracle futures are tied to the request
// context, so cancellation drops all in-flight oracle work per the
// design notes' cancellation-safety requirement.
type Engine struct {
	oracles    map[string]oracle.Oracle
	structural StructuralAnnotator
	weights    map[string]map[string]float64
	deadline   time.Duration
}

// Config wires the concrete oracle implementations in by name.
type Config struct {
	Oracles         map[string]oracle.Oracle
	Structural      StructuralAnnotator
	WeightOverrides map[string]map[string]float64
	Deadline        time.Duration
}

func New(cfg Config) *Engine {
	deadline := cfg.Deadline
	if deadline == 0 {
		deadline = 2 * time.Second
	}
	return &Engine{
		oracles:    cfg.Oracles,
		structural: cfg.Structural,
		weights:    cfg.WeightOverrides,
		deadline:   deadline,
	}
}

// Options carries the less-common scry arguments.
type Options struct {
	ExpandedTerms []string
	DocID         string // only meaningful for ModeWhy
}

// Query implements query(text, mode, intent, limit, options) ->
// FusedResponse.
func (e *Engine) Query(ctx context.Context, text string, mode types.QueryMode, intent types.Intent, limit int, opts Options) (types.FusedResponse, error) {
	if text == "" && mode != types.ModeWhy {
		return types.FusedResponse{}, errInvalidRequest("empty query")
	}
	if intent == "" {
		intent = DetectIntent(text)
	}

	switch mode {
	case types.ModeWhy:
		return e.queryWhy(ctx, opts.DocID)
	case types.ModeOrient:
		return e.queryOrient(ctx, limit)
	case types.ModeRecent:
		return e.queryRecent(ctx, text, limit)
	default:
		return e.queryFind(ctx, text, intent, limit, opts)
	}
}

func (e *Engine) queryFind(ctx context.Context, text string, intent types.Intent, limit int, opts Options) (types.FusedResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	enabled := []string{"semantic", "lexical", "temporal", "persona"}
	resultsByOracle, unavailable := e.dispatch(ctx, enabled, text, limit, intent, opts)

	weights := weightsFor(intent, e.weights)
	fused := fuse(resultsByOracle, weights)

	fused = expandCommitHits(fused)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	e.annotate(ctx, fused)

	resp := types.FusedResponse{Results: fused}
	if unavailable["semantic"] {
		resp.SemanticUnavailable = true
	}
	if len(resultsByOracle) == 0 {
		resp.Warning = "no oracle returned results within the deadline"
	}
	return resp, nil
}

func (e *Engine) queryOrient(ctx context.Context, limit int) (types.FusedResponse, error) {
	structural, ok := e.oracles["structural"]
	if !ok || !structural.IsAvailable() {
		return types.FusedResponse{Warning: "structural oracle unavailable"}, nil
	}
	results, err := structural.Query(ctx, "", limit)
	if err != nil {
		return types.FusedResponse{}, err
	}
	var out []types.FusedResult
	for i, r := range results {
		out = append(out, types.FusedResult{
			DocID: r.DocID, Content: r.Content, Path: r.Path, Score: r.RawScore,
			Contributions: []types.Contribution{{Oracle: "structural", Rank: i + 1, RawScore: r.RawScore, ScoreType: r.ScoreType}},
		})
	}
	e.annotate(ctx, out)
	return types.FusedResponse{Results: out}, nil
}

func (e *Engine) queryRecent(ctx context.Context, text string, limit int) (types.FusedResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	enabled := []string{"semantic", "lexical"}
	resultsByOracle, _ := e.dispatch(ctx, enabled, text, 2*limit, types.IntentGeneral, Options{})
	fused := fuse(resultsByOracle, weightsFor(types.IntentGeneral, e.weights))

	if temporal, ok := e.oracles["temporal"]; ok && temporal.IsAvailable() {
		fused = reorderByRecency(fused, e.structural)
	}
	if len(fused) > limit {
		fused = fused[:limit]
	}
	e.annotate(ctx, fused)
	return types.FusedResponse{Results: fused}, nil
}

func (e *Engine) queryWhy(ctx context.Context, docID string) (types.FusedResponse, error) {
	if docID == "" {
		return types.FusedResponse{}, errNotFound("doc_id required for why mode")
	}
	var contributions []types.Contribution
	found := false
	for name, o := range e.oracles {
		if !o.IsAvailable() {
			continue
		}
		results, err := o.Query(ctx, docID, 50)
		if err != nil {
			continue
		}
		for rank, r := range results {
			if r.DocID == docID {
				found = true
				contributions = append(contributions, types.Contribution{
					Oracle: name, Rank: rank + 1, RawScore: r.RawScore, ScoreType: r.ScoreType,
				})
			}
		}
	}
	if !found {
		return types.FusedResponse{}, errNotFound("doc_id not found: " + docID)
	}
	result := types.FusedResult{DocID: docID, Contributions: contributions}
	e.annotate(ctx, []types.FusedResult{result})
	return types.FusedResponse{Results: []types.FusedResult{result}}, nil
}

// dispatch runs each named oracle concurrently, over-fetching 2*limit
// results per spec; an oracle that errors, times out, or reports
// unavailable is skipped rather than failing the whole request.
func (e *Engine) dispatch(ctx context.Context, names []string, text string, limit int, intent types.Intent, opts Options) ([]oracleHits, map[string]bool) {
	var (
		results     []oracleHits
		unavailable = make(map[string]bool)
	)
	g, gctx := errgroup.WithContext(ctx)
	out := make(chan oracleHits, len(names))

	for _, name := range names {
		name := name
		o, ok := e.oracles[name]
		if !ok {
			unavailable[name] = true
			continue
		}
		if !o.IsAvailable() {
			unavailable[name] = true
			continue
		}
		if name == "lexical" {
			if lex, ok := o.(*oracle.Lexical); ok {
				if len(opts.ExpandedTerms) > 0 {
					lex = lex.WithExpandedTerms(opts.ExpandedTerms)
				}
				if intent == types.IntentTemporal {
					lex = lex.WithPreserveStopwords(true)
				}
				o = lex
			}
		}
		g.Go(func() error {
			res, err := o.Query(gctx, text, 2*limit)
			if err != nil {
				return nil // downgrade, never fail the request
			}
			out <- oracleHits{oracle: name, results: res}
			return nil
		})
	}
	_ = g.Wait()
	close(out)
	for h := range out {
		results = append(results, h)
	}
	return results, unavailable
}

func errInvalidRequest(msg string) error { return &engineError{kind: "InvalidRequest", msg: msg} }
func errNotFound(msg string) error       { return &engineError{kind: "NotFound", msg: msg} }

type engineError struct {
	kind string
	msg  string
}

func (e *engineError) Error() string { return e.kind + ": " + e.msg }
