package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/patina-dev/patina/internal/bench"
	"github.com/patina-dev/patina/internal/ui"
)

func newBenchCmd() *cobra.Command {
	var (
		limit  int
		oracle string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the commit-derived retrieval benchmark (MRR, Recall@K, File-Recall@K)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			var only []string
			label := "full"
			if oracle != "" {
				only = []string{oracle}
				label = oracle
			}
			engine, err := a.buildEngine(only...)
			if err != nil {
				return err
			}

			cases, err := bench.GenerateCases(cmd.Context(), a.store.ReadDB(), limit)
			if err != nil {
				return err
			}

			result := bench.Run(cmd.Context(), engine, cases)

			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			cmd.Println(ui.RenderBenchResult(label, result))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 200, "max benchmark cases to derive from commit history")
	cmd.Flags().StringVar(&oracle, "oracle", "", "restrict to a single oracle (lexical|semantic|temporal|structural|persona|commits) for an ablation run")
	return cmd
}
