package ipc

import (
	"time"

	"bookrip/internal/metadata"
	"bookrip/internal/queue"
)

// QueueItem is the wire representation of a rip job.
type QueueItem struct {
	ID              int64   `json:"id"`
	Device          string  `json:"device"`
	DiscTitle       string  `json:"disc_title"`
	DiscID          string  `json:"disc_id,omitempty"`
	Mode            string  `json:"mode"`
	Bitrate         int     `json:"bitrate"`
	OutputDir       string  `json:"output_dir"`
	Status          string  `json:"status"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	ProgressStage   string  `json:"progress_stage"`
	ProgressPercent float64 `json:"progress_percent"`
	ProgressMessage string  `json:"progress_message"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// FromQueueItem converts a queue item into its wire representation.
func FromQueueItem(item *queue.Item) QueueItem {
	return QueueItem{
		ID:              item.ID,
		Device:          item.Device,
		DiscTitle:       item.DiscTitle,
		DiscID:          item.DiscID,
		Mode:            item.Mode,
		Bitrate:         item.Bitrate,
		OutputDir:       item.OutputDir,
		Status:          string(item.Status),
		ErrorMessage:    item.ErrorMessage,
		ProgressStage:   item.ProgressStage,
		ProgressPercent: item.ProgressPercent,
		ProgressMessage: item.ProgressMessage,
		CreatedAt:       item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.Format(time.RFC3339),
	}
}

// StageHealth describes readiness of a pipeline stage.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error"`
	LastItem    *QueueItem     `json:"last_item"`
	LockPath    string         `json:"lock_path"`
	QueueDBPath string         `json:"queue_db_path"`
	StageHealth []StageHealth  `json:"stage_health"`
	PID         int            `json:"pid"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// RipRequest asks the daemon to detect and queue the disc in a drive. An
// empty device uses the configured drive; zero mode/bitrate use the
// configured defaults.
type RipRequest struct {
	Device  string `json:"device"`
	Mode    string `json:"mode,omitempty"`
	Bitrate int    `json:"bitrate,omitempty"`
}

// RipResponse reports whether a disc was queued.
type RipResponse struct {
	Queued  bool   `json:"queued"`
	ItemID  int64  `json:"item_id"`
	Message string `json:"message"`
}

// CancelRequest cancels a queued or in-flight rip job.
type CancelRequest struct {
	ID int64 `json:"id"`
}

// CancelResponse reports whether the job was cancelled.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// QueueClearRequest removes all items.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueRetryRequest retries failed items. Empty list means all failed items.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried items.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	Failed    int            `json:"failed"`
	Cancelled int            `json:"cancelled"`
}

// DrivesRequest lists optical drives on the host.
type DrivesRequest struct{}

// DrivesResponse contains the detected drives.
type DrivesResponse struct {
	Drives []metadata.Drive `json:"drives"`
}

// DependenciesRequest checks external tool availability on the daemon host.
type DependenciesRequest struct{}

// DependencyStatus is the wire representation of one external tool check.
type DependencyStatus struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Optional  bool   `json:"optional"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// DependenciesResponse contains the tool availability report.
type DependenciesResponse struct {
	Statuses []DependencyStatus `json:"statuses"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
