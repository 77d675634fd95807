// Command patina is the retrieval engine's CLI: ingest a repository's
// history and code into the local event log, query it through the six
// oracles, inspect derived structural signals, and serve the JSON-RPC
// tool surface an agent talks to.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/patina-dev/patina/internal/config"
	"github.com/patina-dev/patina/internal/logging"
)

var (
	flagDB       string
	flagJSON     bool
	flagLogPath  string
	flagLogLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "patina",
		Short: "Local-first hybrid retrieval engine over a project's history and code",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Initialize()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagDB, "db", "", "path to patina.db (default: .patina/local/data/patina.db under the project root)")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON instead of rendered tables")
	root.PersistentFlags().StringVar(&flagLogPath, "log-file", "", "rotate logs to this path instead of stderr")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "debug|info|warn|error")

	root.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newQueryCmd(),
		newAssayCmd(),
		newBenchCmd(),
		newVersionCmd(),
	)
	return root
}

func newLogger() logging.Logger {
	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logging.New(logging.Options{Path: flagLogPath, Level: level})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
