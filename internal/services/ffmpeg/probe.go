package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookrip/internal/metadata"
)

// Prober reads the table of contents from an audio CD.
type Prober interface {
	Probe(ctx context.Context, device string) ([]metadata.Track, error)
}

type probeChapter struct {
	ID        int64             `json:"id"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeOutput struct {
	Chapters []probeChapter `json:"chapters"`
	Format   probeFormat    `json:"format"`
}

// Probe reads the disc table of contents via ffprobe's libcdio input. Each CD
// track surfaces as a chapter; discs whose TOC cannot be split into chapters
// fall back to a single track spanning the full disc duration.
func (c *Client) Probe(ctx context.Context, device string) ([]metadata.Track, error) {
	probeCtx, cancel, err := c.withTimeout(ctx, c.probeTimeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_chapters",
		"-show_format",
		"-f", "libcdio",
		"-i", device,
	}

	var output strings.Builder
	if err := c.exec.Run(probeCtx, c.ffprobeBinary, args, func(line string) {
		output.WriteString(line)
		output.WriteByte('\n')
	}); err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", device, err)
	}

	tracks, err := parseProbeOutput(output.String())
	if err != nil {
		return nil, fmt.Errorf("parse ffprobe output for %s: %w", device, err)
	}
	return tracks, nil
}

func parseProbeOutput(raw string) ([]metadata.Track, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON payload found")
	}

	var parsed probeOutput
	if err := json.Unmarshal([]byte(raw[start:]), &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Chapters) == 0 {
		total, err := parseSeconds(parsed.Format.Duration)
		if err != nil || total <= 0 {
			return nil, fmt.Errorf("disc reports no chapters and no duration")
		}
		return []metadata.Track{{
			Number: 1,
			Title:  metadata.DefaultTrackTitle(1),
			Start:  0,
			End:    total,
		}}, nil
	}

	tracks := make([]metadata.Track, 0, len(parsed.Chapters))
	for i, chapter := range parsed.Chapters {
		start, err := parseSeconds(chapter.StartTime)
		if err != nil {
			return nil, fmt.Errorf("chapter %d start: %w", i+1, err)
		}
		end, err := parseSeconds(chapter.EndTime)
		if err != nil {
			return nil, fmt.Errorf("chapter %d end: %w", i+1, err)
		}
		number := i + 1
		title := strings.TrimSpace(chapter.Tags["title"])
		if title == "" {
			title = metadata.DefaultTrackTitle(number)
		}
		tracks = append(tracks, metadata.Track{
			Number: number,
			Title:  title,
			Start:  start,
			End:    end,
		})
	}
	return tracks, nil
}

func parseSeconds(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty duration")
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
