package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bookrip/internal/ipc"
)

func newRipCommand(ctx *commandContext) *cobra.Command {
	var (
		device  string
		mode    string
		bitrate int
	)

	cmd := &cobra.Command{
		Use:   "rip",
		Short: "Detect and queue the disc in the drive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Rip(ipc.RipRequest{Device: device, Mode: mode, Bitrate: bitrate})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Queued {
					fmt.Fprintf(out, "Queued disc as item %d\n", resp.ItemID)
					return nil
				}
				if resp.Message != "" {
					fmt.Fprintln(out, resp.Message)
					return nil
				}
				fmt.Fprintln(out, "Disc was not queued")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "Optical drive device path (defaults to the configured drive)")
	cmd.Flags().StringVar(&mode, "mode", "", "Output mode for this disc: combined or split (defaults to the configured mode)")
	cmd.Flags().IntVar(&bitrate, "bitrate", 0, "MP3 bitrate in kbps for this disc (defaults to the configured bitrate)")
	return cmd
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <itemID>",
		Short: "Cancel a queued or in-flight rip job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Cancel(id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Cancelled {
					fmt.Fprintf(out, "Cancelled item %d\n", id)
				} else {
					fmt.Fprintf(out, "Item %d was not cancelled (already finished?)\n", id)
				}
				return nil
			})
		},
	}
}
