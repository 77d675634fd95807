package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/patina-dev/patina/internal/bench"
)

// RenderBenchResult renders a single bench.Result as a labeled block,
// used both for the whole-suite run and each --oracle X ablation run.
func RenderBenchResult(label string, r bench.Result) string {
	title := HeaderStyle.Render(label)
	body := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("MRR:              %.4f", r.MRR),
		fmt.Sprintf("Recall@5:         %.4f", r.RecallAt5),
		fmt.Sprintf("Recall@10:        %.4f", r.RecallAt10),
		fmt.Sprintf("File-Recall@10:   %.4f", r.FileRecallAt10),
		fmt.Sprintf("Mean latency:     %s", r.MeanLatency),
		MutedStyle.Render(fmt.Sprintf("cases run: %d", r.CasesRun)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}
