package stage

import (
	"errors"

	"bookrip/internal/queue"
	"bookrip/internal/services"
)

// LoadMetadata decodes the job metadata payload from an item. On a missing or
// invalid payload it returns a services.ErrConfiguration suitable for stage
// Execute methods.
func LoadMetadata(item *queue.Item) (*queue.JobMetadata, error) {
	meta, err := item.Metadata()
	if err != nil {
		return nil, services.Wrap(
			services.ErrConfiguration, "stage", "load metadata",
			"Job metadata invalid; rerun identification", err)
	}
	if meta == nil || len(meta.Tracks) == 0 {
		return nil, services.Wrap(
			services.ErrConfiguration, "stage", "load metadata",
			"Job metadata missing; rerun identification", errors.New("no tracks selected"))
	}
	return meta, nil
}
