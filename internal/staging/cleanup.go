// Package staging manages intermediate rip artifacts under the staging
// directory. Rips and encode segments live in per-job directories
// (rips/job-N, segments/job-N); this package removes them when a job leaves
// the pipeline or when leftovers from interrupted runs grow stale.
package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bookrip/internal/logging"
)

// Subdirectories of the staging dir that hold per-job artifacts.
var jobRoots = []string{"rips", "segments"}

// CleanupError pairs a directory path with its removal error.
type CleanupError struct {
	Path  string
	Error error
}

// Result reports which directories a cleanup pass removed.
type Result struct {
	Removed []string
	Errors  []CleanupError
}

// CleanJob removes all staging artifacts belonging to a single queue item.
func CleanJob(stagingDir string, itemID int64) error {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil
	}
	name := fmt.Sprintf("job-%d", itemID)
	for _, root := range jobRoots {
		dir := filepath.Join(stagingDir, root, name)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove staging dir %s: %w", dir, err)
		}
	}
	return nil
}

// CleanStale removes per-job staging directories older than maxAge. Jobs
// interrupted by a crash or cancelled mid-rip leave their directories behind;
// this reclaims the space without touching in-flight work.
func CleanStale(stagingDir string, maxAge time.Duration, logger *slog.Logger) Result {
	result := Result{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}
	cutoff := time.Now().Add(-maxAge)

	for _, root := range jobRoots {
		rootDir := filepath.Join(stagingDir, root)
		entries, err := os.ReadDir(rootDir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: rootDir, Error: err})
			}
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dirPath := filepath.Join(rootDir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}

			if err := os.RemoveAll(dirPath); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
				if logger != nil {
					logger.Warn("failed to remove stale staging directory",
						logging.String("path", dirPath),
						logging.Error(err),
					)
				}
				continue
			}
			result.Removed = append(result.Removed, dirPath)
			if logger != nil {
				logger.Info("removed stale staging directory",
					logging.String("path", dirPath),
					logging.Duration("age", time.Since(info.ModTime())),
				)
			}
		}
	}

	return result
}

// Usage returns the total on-disk size of all staged job artifacts.
func Usage(stagingDir string) (int64, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return 0, nil
	}
	var size int64
	for _, root := range jobRoots {
		_ = filepath.Walk(filepath.Join(stagingDir, root), func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() {
				size += info.Size()
			}
			return nil
		})
	}
	return size, nil
}
