package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patina-dev/patina/internal/rpc"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the RPC protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "patina rpc protocol %s\n", rpc.ProtocolVersion)
			return nil
		},
	}
}
