package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ProgressUpdate captures ffmpeg progress output.
type ProgressUpdate struct {
	Stage   string
	Percent float64
	Message string
}

// Executor abstracts command execution for testability. Every line of stdout
// and stderr is forwarded to onLine.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
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

// Client wraps ffmpeg and ffprobe CLI interactions.
type Client struct {
	ffmpegBinary  string
	ffprobeBinary string
	ripTimeout    time.Duration
	probeTimeout  time.Duration
	exec          Executor
}

// New constructs an ffmpeg client.
func New(ffmpegBinary, ffprobeBinary string, ripTimeoutSeconds, probeTimeoutSeconds int, opts ...Option) (*Client, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	client := &Client{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		ripTimeout:    time.Duration(ripTimeoutSeconds) * time.Second,
		probeTimeout:  time.Duration(probeTimeoutSeconds) * time.Second,
		exec:          commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, split bufio.SplitFunc) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Split(split)
		for scanner.Scan() {
			line := scanner.Text()
			if onLine != nil {
				onLine(line)
				continue
			}
			fmt.Fprintln(os.Stderr, line)
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout, bufio.ScanLines)
	// ffmpeg rewrites its status line with carriage returns, so stderr is
	// split on both \r and \n.
	go scan(stderr, scanCarriageLines)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// scanCarriageLines splits on \n or \r so ffmpeg status-line rewrites appear
// as individual lines.
func scanCarriageLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var errContextRequired = errors.New("context required")

func (c *Client) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if ctx == nil {
		return nil, nil, errContextRequired
	}
	if timeout <= 0 {
		return ctx, func() {}, nil
	}
	bounded, cancel := context.WithTimeout(ctx, timeout)
	return bounded, cancel, nil
}
