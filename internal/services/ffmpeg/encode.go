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

// EncodeRequest describes a single MP3 encode of a source WAV file. Start and
// End select a segment of the source; both zero means the whole file, in
// which case Duration must carry the source length for progress reporting.
type EncodeRequest struct {
	Source   string
	Dest     string
	Bitrate  int
	Start    time.Duration
	End      time.Duration
	Duration time.Duration
}

func (r EncodeRequest) span() time.Duration {
	if r.End > r.Start {
		return r.End - r.Start
	}
	return r.Duration
}

// Encoder defines the behaviour required by the encoding handler.
type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest, progress func(ProgressUpdate)) error
}

// Encode converts a WAV source (or a segment of it) to MP3 via libmp3lame.
func (c *Client) Encode(ctx context.Context, req EncodeRequest, progress func(ProgressUpdate)) error {
	if req.Source == "" {
		return errors.New("source path required")
	}
	if req.Dest == "" {
		return errors.New("destination path required")
	}
	if req.Bitrate <= 0 {
		return errors.New("bitrate required")
	}
	if err := os.MkdirAll(filepath.Dir(req.Dest), 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	args := []string{"-y", "-i", req.Source}
	if req.End > req.Start {
		args = append(args,
			"-ss", strconv.FormatFloat(req.Start.Seconds(), 'f', 3, 64),
			"-to", strconv.FormatFloat(req.End.Seconds(), 'f', 3, 64),
		)
	}
	args = append(args,
		"-codec:a", "libmp3lame",
		"-b:a", strconv.Itoa(req.Bitrate)+"k",
		"-q:a", "2",
		"-progress", "pipe:1",
		"-nostats",
		req.Dest,
	)

	span := req.span()
	var lastLine string
	if err := c.exec.Run(ctx, c.ffmpegBinary, args, func(line string) {
		lastLine = line
		if progress == nil || span <= 0 {
			return
		}
		if elapsed, ok := parseOutTime(line); ok {
			percent := clampPercent(elapsed.Seconds() / span.Seconds() * 100)
			progress(ProgressUpdate{Stage: "Encoding", Percent: percent})
		}
	}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastLine != "" {
			return fmt.Errorf("ffmpeg encode %s: %s: %w", filepath.Base(req.Dest), lastLine, err)
		}
		return fmt.Errorf("ffmpeg encode %s: %w", filepath.Base(req.Dest), err)
	}

	info, err := os.Stat(req.Dest)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		return fmt.Errorf("ffmpeg produced no output for %s", filepath.Base(req.Dest))
	}
	return nil
}
