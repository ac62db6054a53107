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

// Ripper defines the behaviour required by the ripping handler.
type Ripper interface {
	RipDisc(ctx context.Context, device, destPath string, total time.Duration, progress func(ProgressUpdate)) error
}

// RipDisc reads the whole disc into a single PCM WAV file at destPath. The
// total disc duration bounds the read and drives progress reporting.
func (c *Client) RipDisc(ctx context.Context, device, destPath string, total time.Duration, progress func(ProgressUpdate)) error {
	if destPath == "" {
		return errors.New("destination path required")
	}
	if total <= 0 {
		return errors.New("total duration required")
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	ripCtx, cancel, err := c.withTimeout(ctx, c.ripTimeout)
	if err != nil {
		return err
	}
	defer cancel()

	args := []string{
		"-y",
		"-f", "libcdio",
		"-i", device,
		"-map", "0:a:0",
		"-t", strconv.FormatFloat(total.Seconds(), 'f', 2, 64),
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		destPath,
	}

	var lastLine string
	if err := c.exec.Run(ripCtx, c.ffmpegBinary, args, func(line string) {
		lastLine = line
		if progress == nil {
			return
		}
		if elapsed, ok := parseStatusClock(line); ok {
			percent := clampPercent(elapsed.Seconds() / total.Seconds() * 100)
			progress(ProgressUpdate{Stage: "Ripping", Percent: percent})
		}
	}); err != nil {
		// Leave nothing behind for a rip that did not finish.
		os.Remove(destPath)
		if ripCtx.Err() != nil {
			return ripCtx.Err()
		}
		if lastLine != "" {
			return fmt.Errorf("ffmpeg rip from %s: %s: %w", device, lastLine, err)
		}
		return fmt.Errorf("ffmpeg rip from %s: %w", device, err)
	}

	info, err := os.Stat(destPath)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		return fmt.Errorf("ffmpeg produced no output; check disc for read errors")
	}
	return nil
}

func clampPercent(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
