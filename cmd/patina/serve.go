package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/patina-dev/patina/internal/observability"
	"github.com/patina-dev/patina/internal/rpc"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON-RPC 2.0 tool surface (scry/context/assay) over stdio",
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
			server := rpc.NewServer(engine, a.store.ReadDB(), recorder, a.logger)

			a.logger.Info("rpc server starting", "protocol_version", rpc.ProtocolVersion)
			return server.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
