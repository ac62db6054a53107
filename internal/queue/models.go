package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a rip job.
type Status string

const (
	StatusPending     Status = "pending"
	StatusIdentifying Status = "identifying"
	StatusIdentified  Status = "identified"
	StatusRipping     Status = "ripping"
	StatusRipped      Status = "ripped"
	StatusEncoding    Status = "encoding"
	StatusEncoded     Status = "encoded"
	StatusTagging     Status = "tagging"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// UserCancelMessage is the error message set when a user cancels a job.
const UserCancelMessage = "Cancelled by user"

var allStatuses = []Status{
	StatusPending,
	StatusIdentifying,
	StatusIdentified,
	StatusRipping,
	StatusRipped,
	StatusEncoding,
	StatusEncoded,
	StatusTagging,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusIdentifying: {},
	StatusRipping:     {},
	StatusEncoding:    {},
	StatusTagging:     {},
}

// stageRollbacks maps each processing status to the stage-start status a stuck
// item is returned to on daemon restart.
var stageRollbacks = map[Status]Status{
	StatusIdentifying: StatusPending,
	StatusRipping:     StatusIdentified,
	StatusEncoding:    StatusRipped,
	StatusTagging:     StatusEncoded,
}

// Item represents a rip job persisted in SQLite.
type Item struct {
	ID               int64
	Device           string
	DiscTitle        string
	DiscID           string
	Mode             string
	Bitrate          int
	OutputDir        string
	Status           Status
	DiscJSON         string
	MetadataJSON     string
	RippedFile       string
	OutputFilesJSON  string
	FailedTracksJSON string
	ErrorMessage     string
	ProgressStage    string
	ProgressPercent  float64
	ProgressMessage  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status ends the job lifecycle.
func IsTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	if percent > i.ProgressPercent {
		i.ProgressPercent = percent
	}
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressStage = "Failed"
	i.ProgressMessage = message
}

// SetCancelled marks the item as cancelled.
func (i *Item) SetCancelled() {
	i.Status = StatusCancelled
	i.ErrorMessage = UserCancelMessage
	i.ProgressStage = "Cancelled"
	i.ProgressMessage = UserCancelMessage
}
