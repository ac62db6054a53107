package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bookrip/internal/ipc"
	"bookrip/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show details for a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var item ipc.QueueItem
				if client != nil {
					resp, err := client.QueueDescribe(id)
					if err != nil {
						return err
					}
					item = resp.Item
				} else {
					stored, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if stored == nil {
						return fmt.Errorf("queue item %d not found", id)
					}
					item = ipc.FromQueueItem(stored)
				}

				out := cmd.OutOrStdout()
				if asJSON {
					encoded, err := json.MarshalIndent(item, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(encoded))
					return nil
				}
				fmt.Fprintf(out, "ID:       %d\n", item.ID)
				fmt.Fprintf(out, "Title:    %s\n", itemTitle(item))
				if item.DiscID != "" {
					fmt.Fprintf(out, "Disc ID:  %s\n", item.DiscID)
				}
				fmt.Fprintf(out, "Device:   %s\n", item.Device)
				fmt.Fprintf(out, "Mode:     %s (%d kbps)\n", item.Mode, item.Bitrate)
				fmt.Fprintf(out, "Output:   %s\n", item.OutputDir)
				fmt.Fprintf(out, "Status:   %s\n", formatStatusLabel(item.Status))
				fmt.Fprintf(out, "Progress: %s\n", formatProgress(item))
				if msg := strings.TrimSpace(item.ProgressMessage); msg != "" {
					fmt.Fprintf(out, "Message:  %s\n", msg)
				}
				if item.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", item.ErrorMessage)
				}
				fmt.Fprintf(out, "Created:  %s\n", formatDisplayTime(item.CreatedAt))
				fmt.Fprintf(out, "Updated:  %s\n", formatDisplayTime(item.UpdatedAt))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the item as JSON")
	return cmd
}
