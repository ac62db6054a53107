package encoding

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bookrip/internal/config"
	"bookrip/internal/metadata"
	"bookrip/internal/queue"
)

// Job describes one MP3 encode unit within a plan.
type Job struct {
	Track  metadata.Track
	Source string
	Dest   string
}

// Plan captures everything the encoding stage will execute for one item.
type Plan struct {
	Mode       string
	Jobs       []Job
	SegmentDir string
}

// BuildPlan derives the encode jobs for an item. Combined mode yields a
// single job spanning the whole rip; split mode yields one job per selected
// track, each fed from a PCM segment cut out of the rip.
func BuildPlan(cfg *config.Config, item *queue.Item, meta *queue.JobMetadata) (Plan, error) {
	if item.RippedFile == "" {
		return Plan{}, errors.New("no ripped file recorded")
	}
	if meta == nil || len(meta.Tracks) == 0 {
		return Plan{}, errors.New("no tracks selected")
	}

	plan := Plan{Mode: item.Mode}
	switch item.Mode {
	case config.ModeCombined:
		discNumber := meta.Book.DiscNumber
		if discNumber < 1 {
			discNumber = 1
		}
		total := meta.Tracks[len(meta.Tracks)-1].End
		plan.Jobs = []Job{{
			Track: metadata.Track{
				Number: discNumber,
				Title:  metadata.CombinedTitle(discNumber),
				Start:  0,
				End:    total,
			},
			Source: item.RippedFile,
			Dest:   uniquePath(filepath.Join(item.OutputDir, metadata.CombinedFileName(meta.Book.Album, discNumber))),
		}}
	case config.ModeSplit:
		plan.SegmentDir = filepath.Join(cfg.Paths.StagingDir, "segments", fmt.Sprintf("job-%d", item.ID))
		plan.Jobs = make([]Job, 0, len(meta.Tracks))
		for _, track := range meta.Tracks {
			plan.Jobs = append(plan.Jobs, Job{
				Track:  track,
				Source: filepath.Join(plan.SegmentDir, fmt.Sprintf("track-%02d.wav", track.Number)),
				Dest:   filepath.Join(item.OutputDir, metadata.TrackFileName(track.Number, track.Title)),
			})
		}
	default:
		return Plan{}, fmt.Errorf("unknown output mode %q", item.Mode)
	}
	return plan, nil
}

// uniquePath returns path unchanged when nothing exists there, otherwise a
// " (n)" suffixed variant, so a re-ripped disc never overwrites an earlier
// result.
func uniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
