package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"bookrip/internal/ipc"
	"bookrip/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the rip queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				stats := make(map[string]int)
				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					for status, count := range status.QueueStats {
						stats[status] = count
					}
				} else {
					health, err := store.Health(cmd.Context())
					if err != nil {
						return err
					}
					for status, count := range health.ByStatus {
						stats[string(status)] = count
					}
				}

				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var (
		listStatuses []string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var items []ipc.QueueItem
				if client != nil {
					resp, err := client.QueueList(listStatuses)
					if err != nil {
						return err
					}
					items = resp.Items
				} else {
					statuses := make([]queue.Status, 0, len(listStatuses))
					for _, raw := range listStatuses {
						parsed, ok := queue.ParseStatus(raw)
						if !ok {
							return fmt.Errorf("unknown status %q", raw)
						}
						statuses = append(statuses, parsed)
					}
					stored, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					items = make([]ipc.QueueItem, 0, len(stored))
					for _, item := range stored {
						items = append(items, ipc.FromQueueItem(item))
					}
				}

				if asJSON {
					encoded, err := json.MarshalIndent(items, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
					return nil
				}

				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Created"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return fmt.Errorf("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var removed int64
				var label string
				var err error

				switch {
				case clearCompleted:
					label = "completed items"
					if client != nil {
						var resp *ipc.QueueClearCompletedResponse
						resp, err = client.QueueClearCompleted()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearCompleted(cmd.Context())
					}
				case clearFailed:
					label = "failed items"
					if client != nil {
						var resp *ipc.QueueClearFailedResponse
						resp, err = client.QueueClearFailed()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearFailed(cmd.Context())
					}
				default:
					label = "queue items"
					if client != nil {
						var resp *ipc.QueueClearResponse
						resp, err = client.QueueClear()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.Clear(cmd.Context())
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d %s\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed items")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Retry failed queue items",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var updated int64
				var err error
				if client != nil {
					var resp *ipc.QueueRetryResponse
					resp, err = client.QueueRetry(ids)
					if err == nil {
						updated = resp.Updated
					}
				} else {
					updated, err = store.RetryFailed(cmd.Context(), ids...)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Retried %d failed items\n", updated)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var total, failed, cancelled int
				byStatus := make(map[string]int)

				if client != nil {
					health, err := client.QueueHealth()
					if err != nil {
						return err
					}
					total = health.Total
					failed = health.Failed
					cancelled = health.Cancelled
					for status, count := range health.ByStatus {
						byStatus[status] = count
					}
				} else {
					health, err := store.Health(cmd.Context())
					if err != nil {
						return err
					}
					total = health.Total
					failed = health.Failed
					cancelled = health.Cancelled
					for status, count := range health.ByStatus {
						byStatus[string(status)] = count
					}
				}

				fmt.Fprintf(out, "Total: %d\n", total)
				statuses := make([]string, 0, len(byStatus))
				for status := range byStatus {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				for _, status := range statuses {
					fmt.Fprintf(out, "%s: %d\n", formatStatusLabel(status), byStatus[status])
				}
				fmt.Fprintf(out, "Failed: %d\nCancelled: %d\n", failed, cancelled)
				return nil
			})
		},
	}
}
