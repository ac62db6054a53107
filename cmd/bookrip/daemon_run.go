package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookrip/internal/daemonrun"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:          "daemon",
		Short:        "Run the bookrip daemon in the foreground (internal)",
		Hidden:       true,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts := daemonrun.Options{}
			if ctx.socketFlag != nil {
				opts.SocketPath = *ctx.socketFlag
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}
}
