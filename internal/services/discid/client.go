package discid

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"bookrip/internal/services"
)

// Result captures cd-discid output for a loaded audio CD.
type Result struct {
	// DiscID is the FreeDB 8-digit hex identifier.
	DiscID string
	// TrackCount is the number of audio tracks in the TOC.
	TrackCount int
	// Offsets holds the per-track start offsets in CD frames, including the
	// standard 150-frame lead-in.
	Offsets []int
	// LengthSeconds is the total playing time of the disc.
	LengthSeconds int
	// Raw is the full cd-discid output line.
	Raw string
}

// TOC renders the table of contents in the form MusicBrainz disc ID lookups
// accept: first track, last track, leadout frame, then per-track frame
// offsets. Empty when the offsets were not parsed.
func (r Result) TOC() string {
	if len(r.Offsets) == 0 || r.LengthSeconds <= 0 {
		return ""
	}
	leadout := r.LengthSeconds*framesPerSecond + leadInFrames
	fields := make([]string, 0, len(r.Offsets)+3)
	fields = append(fields, "1", strconv.Itoa(len(r.Offsets)), strconv.Itoa(leadout))
	for _, offset := range r.Offsets {
		fields = append(fields, strconv.Itoa(offset))
	}
	return strings.Join(fields, " ")
}

const (
	framesPerSecond = 75
	leadInFrames    = 150
)

// Reader computes disc identifiers from a drive.
type Reader interface {
	Read(ctx context.Context, device string) (Result, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client shells out to cd-discid to compute the disc identifier.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a cd-discid client.
func New(timeoutSeconds int, opts ...Option) *Client {
	client := &Client{
		binary:  "cd-discid",
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Read computes the disc identifier for the loaded disc. Failures are wrapped
// as services.ErrDiscIDUnavailable: a missing binary or an unreadable TOC
// degrades identification but never blocks ripping.
func (c *Client) Read(ctx context.Context, device string) (Result, error) {
	readCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	output, err := c.exec.Output(readCtx, c.binary, []string{device})
	if err != nil {
		return Result{}, services.Wrap(
			services.ErrDiscIDUnavailable, "discid", "read",
			"Disc ID could not be computed; continuing without lookup", err)
	}

	result, err := parseOutput(string(output))
	if err != nil {
		return Result{}, services.Wrap(
			services.ErrDiscIDUnavailable, "discid", "parse",
			"Disc ID output unreadable; continuing without lookup", err)
	}
	return result, nil
}

func parseOutput(raw string) (Result, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Result{}, errors.New("empty output")
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Result{}, errors.New("too few fields")
	}
	if len(fields[0]) != 8 {
		return Result{}, errors.New("malformed disc id")
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil || count <= 0 {
		return Result{}, errors.New("malformed track count")
	}

	result := Result{DiscID: fields[0], TrackCount: count, Raw: line}

	// cd-discid prints one frame offset per track followed by the disc length
	// in seconds. Tolerate output without them; the TOC is then unavailable.
	if len(fields) == count+3 {
		offsets := make([]int, 0, count)
		for _, field := range fields[2 : 2+count] {
			offset, err := strconv.Atoi(field)
			if err != nil {
				return result, nil
			}
			offsets = append(offsets, offset)
		}
		length, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			return result, nil
		}
		result.Offsets = offsets
		result.LengthSeconds = length
	}
	return result, nil
}
