package queue

import (
	"encoding/json"
	"fmt"

	"bookrip/internal/metadata"
)

// JobMetadata captures the disc-level book information and the selected
// tracks a job will encode. Tracks carry the user-facing titles, so edits made
// before ripping survive daemon restarts.
type JobMetadata struct {
	Book   metadata.Book    `json:"book"`
	Tracks []metadata.Track `json:"tracks"`
}

// OutputFile records a single encoded file produced for the job.
type OutputFile struct {
	Track int    `json:"track"`
	Path  string `json:"path"`
}

// FailedTrack records a track that failed to encode in split mode.
type FailedTrack struct {
	Track int    `json:"track"`
	Error string `json:"error"`
}

// Disc decodes the table-of-contents snapshot stored on the item.
func (i *Item) Disc() (*metadata.Disc, error) {
	if i.DiscJSON == "" {
		return nil, nil
	}
	var disc metadata.Disc
	if err := json.Unmarshal([]byte(i.DiscJSON), &disc); err != nil {
		return nil, fmt.Errorf("decode disc snapshot: %w", err)
	}
	return &disc, nil
}

// SetDisc stores the table-of-contents snapshot on the item.
func (i *Item) SetDisc(disc *metadata.Disc) error {
	if disc == nil {
		i.DiscJSON = ""
		return nil
	}
	payload, err := json.Marshal(disc)
	if err != nil {
		return fmt.Errorf("encode disc snapshot: %w", err)
	}
	i.DiscJSON = string(payload)
	return nil
}

// Metadata decodes the job metadata payload.
func (i *Item) Metadata() (*JobMetadata, error) {
	if i.MetadataJSON == "" {
		return nil, nil
	}
	var meta JobMetadata
	if err := json.Unmarshal([]byte(i.MetadataJSON), &meta); err != nil {
		return nil, fmt.Errorf("decode job metadata: %w", err)
	}
	return &meta, nil
}

// SetMetadata stores the job metadata payload.
func (i *Item) SetMetadata(meta *JobMetadata) error {
	if meta == nil {
		i.MetadataJSON = ""
		return nil
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode job metadata: %w", err)
	}
	i.MetadataJSON = string(payload)
	return nil
}

// OutputFiles decodes the list of encoded files produced so far.
func (i *Item) OutputFiles() ([]OutputFile, error) {
	if i.OutputFilesJSON == "" {
		return nil, nil
	}
	var files []OutputFile
	if err := json.Unmarshal([]byte(i.OutputFilesJSON), &files); err != nil {
		return nil, fmt.Errorf("decode output files: %w", err)
	}
	return files, nil
}

// SetOutputFiles stores the list of encoded files.
func (i *Item) SetOutputFiles(files []OutputFile) error {
	if len(files) == 0 {
		i.OutputFilesJSON = ""
		return nil
	}
	payload, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encode output files: %w", err)
	}
	i.OutputFilesJSON = string(payload)
	return nil
}

// FailedTracks decodes the tracks that failed to encode.
func (i *Item) FailedTracks() ([]FailedTrack, error) {
	if i.FailedTracksJSON == "" {
		return nil, nil
	}
	var failed []FailedTrack
	if err := json.Unmarshal([]byte(i.FailedTracksJSON), &failed); err != nil {
		return nil, fmt.Errorf("decode failed tracks: %w", err)
	}
	return failed, nil
}

// SetFailedTracks stores the tracks that failed to encode.
func (i *Item) SetFailedTracks(failed []FailedTrack) error {
	if len(failed) == 0 {
		i.FailedTracksJSON = ""
		return nil
	}
	payload, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("encode failed tracks: %w", err)
	}
	i.FailedTracksJSON = string(payload)
	return nil
}
