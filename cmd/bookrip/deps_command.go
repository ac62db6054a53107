package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookrip/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "deps",
		Short:       "Check availability of external tools",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			// The daemon host owns the drive and the rip tools; ask it
			// first and only check this machine when it is unreachable.
			statuses := daemonDependencies(ctx)
			if statuses == nil {
				statuses = deps.CheckBinaries(deps.Default())
			}
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(stdout, line)
			}

			capabilities := deps.CheckFFmpegCapabilities("ffmpeg")
			if len(capabilities) > 0 {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("FFmpeg capabilities", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, line := range dependencyLines(capabilities, colorize) {
					fmt.Fprintln(stdout, line)
				}
			}
			return nil
		},
	}
}

// daemonDependencies fetches the tool report over IPC, or nil when the
// daemon cannot be reached.
func daemonDependencies(ctx *commandContext) []deps.Status {
	client, err := ctx.dialClient()
	if err != nil {
		return nil
	}
	defer client.Close()

	resp, err := client.Dependencies()
	if err != nil {
		return nil
	}
	statuses := make([]deps.Status, 0, len(resp.Statuses))
	for _, status := range resp.Statuses {
		statuses = append(statuses, deps.Status{
			Name:      status.Name,
			Command:   status.Command,
			Optional:  status.Optional,
			Available: status.Available,
			Detail:    status.Detail,
		})
	}
	return statuses
}
