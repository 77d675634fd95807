package query

import (
	"context"

	"github.com/patina-dev/patina/internal/types"
)

// annotate attaches structural signals to each result's Path regardless
// of whether structural contributed to ranking — provenance is always
// available even when structural didn't win a slot in fusion.
func (e *Engine) annotate(ctx context.Context, results []types.FusedResult) {
	if e.structural == nil {
		return
	}
	for i := range results {
		if results[i].Path == "" {
			continue
		}
		sig, err := e.structural.Annotate(ctx, results[i].Path)
		if err != nil || sig == nil {
			continue
		}
		results[i].Structural = sig
	}
}
