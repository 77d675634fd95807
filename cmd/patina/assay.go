package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/patina-dev/patina/internal/assay"
	"github.com/patina-dev/patina/internal/types"
	"github.com/patina-dev/patina/internal/ui"
)

func newAssayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assay",
		Short: "Inspect derived structural signals (importer counts, centrality, activity, moments)",
	}
	cmd.AddCommand(newAssayDeriveCmd(), newAssayInventoryCmd(), newAssayMomentsCmd())
	return cmd
}

func newAssayDeriveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "derive",
		Short: "Recompute module_signals and moments from current facts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()
			deriver := assay.New(a.store.ReadDB())
			return deriver.Derive(time.Now())
		},
	}
}

func newAssayInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "List module signals for every known path",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			rows, err := queryModuleSignals(a)
			if err != nil {
				return err
			}
			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			cmd.Println(ui.RenderModuleSignals(rows))
			return nil
		},
	}
}

func newAssayMomentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moments",
		Short: "List derived moments (genesis/big_bang/major/breaking/migration/rewrite/release) per commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			moments, err := queryMoments(a)
			if err != nil {
				return err
			}
			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(moments)
			}
			cmd.Println(ui.RenderMoments(moments))
			return nil
		},
	}
}

func queryModuleSignals(a *app) ([]types.ModuleSignals, error) {
	rows, err := a.store.ReadDB().Query(`
		SELECT path, importer_count, is_entry_point, is_test_file, activity_level,
		       last_commit_days, centrality_score, centrality_pctile, computed_at
		FROM module_signals ORDER BY centrality_score DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ModuleSignals
	for rows.Next() {
		var sig types.ModuleSignals
		var isEntry, isTest int
		var computedAt int64
		if err := rows.Scan(&sig.Path, &sig.ImporterCount, &isEntry, &isTest, &sig.ActivityLevel,
			&sig.LastCommitDays, &sig.CentralityScore, &sig.CentralityPctile, &computedAt); err != nil {
			return nil, err
		}
		sig.IsEntryPoint = isEntry != 0
		sig.IsTestFile = isTest != 0
		sig.ComputedAt = time.Unix(0, computedAt).UTC()
		out = append(out, sig)
	}
	return out, rows.Err()
}

func queryMoments(a *app) ([]types.Moment, error) {
	rows, err := a.store.ReadDB().Query(`SELECT sha, moment_type FROM moments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Moment
	for rows.Next() {
		var m types.Moment
		if err := rows.Scan(&m.SHA, &m.Type); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
