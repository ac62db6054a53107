package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Segmenter cuts PCM segments out of a ripped WAV file.
type Segmenter interface {
	Extract(ctx context.Context, src, dest string, start, end time.Duration) error
}

// Extract copies the [start, end) span of a WAV source into dest without
// re-encoding. Used to cut the whole-disc rip into per-track WAV segments.
func (c *Client) Extract(ctx context.Context, src, dest string, start, end time.Duration) error {
	if src == "" {
		return errors.New("source path required")
	}
	if dest == "" {
		return errors.New("destination path required")
	}
	if end <= start {
		return fmt.Errorf("invalid segment bounds %s..%s", start, end)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	args := []string{
		"-y",
		"-i", src,
		"-ss", strconv.FormatFloat(start.Seconds(), 'f', 3, 64),
		"-to", strconv.FormatFloat(end.Seconds(), 'f', 3, 64),
		"-acodec", "copy",
		dest,
	}

	var lastLine string
	if err := c.exec.Run(ctx, c.ffmpegBinary, args, func(line string) {
		lastLine = line
	}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastLine != "" {
			return fmt.Errorf("ffmpeg extract %s: %s: %w", filepath.Base(dest), lastLine, err)
		}
		return fmt.Errorf("ffmpeg extract %s: %w", filepath.Base(dest), err)
	}

	info, err := os.Stat(dest)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		return fmt.Errorf("ffmpeg produced no segment for %s", filepath.Base(dest))
	}
	return nil
}
