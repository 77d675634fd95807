package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patina-dev/patina/internal/observability"
	"github.com/patina-dev/patina/internal/query"
	"github.com/patina-dev/patina/internal/types"
)

func newQueryCmd() *cobra.Command {
	var (
		mode  string
		docID string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Run a scry query against the fused oracles",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			engine, err := a.buildEngine()
			if err != nil {
				return err
			}
			recorder := observability.NewEventRecorder(a.store)

			text := strings.Join(args, " ")
			resp, err := engine.Query(cmd.Context(), text, types.QueryMode(mode), "", limit, query.Options{DocID: docID})
			if err != nil {
				return err
			}
			resp.QueryID = recorder.RecordQuery(text, mode, "", resp)

			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printResults(cmd, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "find", "find|orient|recent|why")
	cmd.Flags().StringVar(&docID, "doc", "", "doc id to explain, for --mode why")
	cmd.Flags().IntVar(&limit, "limit", 10, "max results")
	return cmd
}

func printResults(cmd *cobra.Command, resp types.FusedResponse) {
	if resp.Warning != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n\n", resp.Warning)
	}
	for i, r := range resp.Results {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s  (score=%.4f)\n", i+1, r.DocID, r.Score)
		if r.Path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "   %s:%d\n", r.Path, r.Line)
		}
		var contribs []string
		for _, c := range r.Contributions {
			contribs = append(contribs, fmt.Sprintf("%s#%d", c.Oracle, c.Rank))
		}
		if len(contribs) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "   via: %s\n", strings.Join(contribs, ", "))
		}
	}
}
