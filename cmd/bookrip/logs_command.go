package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bookrip/internal/logging"
	"bookrip/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lineCount int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logPath := logging.FilePath(cfg)
			if logPath == "" {
				return errors.New("log directory is not configured")
			}

			stdout := cmd.OutOrStdout()
			lines, offset, err := logs.Tail(logPath, lineCount)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(stdout, line)
			}
			if !follow {
				if len(lines) == 0 {
					fmt.Fprintf(stdout, "No log output yet at %s\n", logPath)
				}
				return nil
			}

			err = logs.Follow(cmd.Context(), logPath, offset, func(line string) {
				fmt.Fprintln(stdout, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&lineCount, "lines", "n", 50, "number of recent log lines to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new log lines until interrupted")
	return cmd
}
