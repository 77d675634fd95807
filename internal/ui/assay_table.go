package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/patina-dev/patina/internal/types"
)

// RenderModuleSignals renders the structural deriver's per-path output
// as a bordered table, grounded on the teacher's NewSearchTable idiom.
func RenderModuleSignals(rows []types.ModuleSignals) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Width(Width()).
		Headers("PATH", "IMPORTERS", "CENTRALITY", "PCTILE", "ACTIVITY", "LAST COMMIT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			sig := rows[row]
			switch {
			case sig.ActivityLevel == types.ActivityDormant:
				return MutedStyle
			case sig.ActivityLevel == types.ActivityHigh:
				return PassStyle
			default:
				return lipgloss.NewStyle()
			}
		})
	for _, sig := range rows {
		t.Row(
			sig.Path,
			fmt.Sprintf("%d", sig.ImporterCount),
			fmt.Sprintf("%.3f", sig.CentralityScore),
			fmt.Sprintf("%.0f%%", sig.CentralityPctile*100),
			string(sig.ActivityLevel),
			fmt.Sprintf("%dd ago", sig.LastCommitDays),
		)
	}
	return t.Render()
}

// RenderMoments renders the derived moment-per-commit timeline.
func RenderMoments(moments []types.Moment) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Headers("SHA", "MOMENT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			if moments[row].Type == types.MomentBreaking {
				return WarnStyle
			}
			return lipgloss.NewStyle()
		})
	for _, m := range moments {
		sha := m.SHA
		if len(sha) > 10 {
			sha = sha[:10]
		}
		t.Row(sha, string(m.Type))
	}
	return t.Render()
}
