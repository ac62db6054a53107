package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookrip/internal/disc"
	"bookrip/internal/ipc"
	"bookrip/internal/metadata"
)

func newDrivesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List optical drives and their readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			var drives []metadata.Drive

			// Ask the daemon first so readiness reflects the host actually
			// holding the drive; fall back to a local scan.
			err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Drives()
				if err != nil {
					return err
				}
				drives = resp.Drives
				return nil
			})
			if err != nil {
				local, scanErr := disc.NewScanner().ListDrives()
				if scanErr != nil {
					return scanErr
				}
				drives = local
			}

			out := cmd.OutOrStdout()
			if len(drives) == 0 {
				fmt.Fprintln(out, "No optical drives found")
				return nil
			}
			rows := make([][]string, 0, len(drives))
			for _, drive := range drives {
				model := drive.Model
				if model == "" {
					model = "unknown"
				}
				rows = append(rows, []string{drive.Device, model, yesNo(drive.Ready)})
			}
			table := renderTable([]string{"Device", "Model", "Ready"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft})
			fmt.Fprintln(out, table)
			return nil
		},
	}
}
