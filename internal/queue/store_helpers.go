package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, device, disc_title, disc_id, mode, bitrate, output_dir, status, disc_json, metadata_json, ripped_file, output_files_json, failed_tracks_json, error_message, progress_stage, progress_percent, progress_message, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		device          string
		discTitle       sql.NullString
		discID          sql.NullString
		mode            string
		bitrate         int64
		outputDir       string
		statusStr       string
		discJSON        sql.NullString
		metadataJSON    sql.NullString
		rippedFile      sql.NullString
		outputFiles     sql.NullString
		failedTracks    sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&device,
		&discTitle,
		&discID,
		&mode,
		&bitrate,
		&outputDir,
		&statusStr,
		&discJSON,
		&metadataJSON,
		&rippedFile,
		&outputFiles,
		&failedTracks,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		Device:           device,
		DiscTitle:        discTitle.String,
		DiscID:           discID.String,
		Mode:             mode,
		Bitrate:          int(bitrate),
		OutputDir:        outputDir,
		Status:           Status(statusStr),
		DiscJSON:         discJSON.String,
		MetadataJSON:     metadataJSON.String,
		RippedFile:       rippedFile.String,
		OutputFilesJSON:  outputFiles.String,
		FailedTracksJSON: failedTracks.String,
		ErrorMessage:     errorMessage.String,
		ProgressStage:    progressStage.String,
		ProgressPercent:  progressPercent.Float64,
		ProgressMessage:  progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
