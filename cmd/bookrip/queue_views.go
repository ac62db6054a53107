package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bookrip/internal/ipc"
)

var statusTitleCaser = cases.Title(language.English)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []ipc.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]ipc.QueueItem, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseQueueTime(sorted[i].CreatedAt)
		tj := parseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			itemTitle(item),
			formatStatusLabel(item.Status),
			formatProgress(item),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func itemTitle(item ipc.QueueItem) string {
	title := strings.TrimSpace(item.DiscTitle)
	if title != "" {
		return title
	}
	device := strings.TrimSpace(item.Device)
	if device != "" {
		return fmt.Sprintf("Unknown disc (%s)", device)
	}
	return "Unknown disc"
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Unknown"
	}
	return statusTitleCaser.String(strings.ReplaceAll(status, "_", " "))
}

func formatProgress(item ipc.QueueItem) string {
	stage := strings.TrimSpace(item.ProgressStage)
	if stage == "" {
		return fmt.Sprintf("%.0f%%", item.ProgressPercent)
	}
	return fmt.Sprintf("%s %.0f%%", stage, item.ProgressPercent)
}

func parseQueueTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func formatDisplayTime(value string) string {
	parsed := parseQueueTime(value)
	if parsed.IsZero() {
		return strings.TrimSpace(value)
	}
	return parsed.Local().Format("2006-01-02 15:04")
}
