package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type ripExecutor struct {
	gotArgs   []string
	lines     []string
	err       error
	writeDest bool
}

func (r *ripExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	r.gotArgs = args
	if r.writeDest {
		dest := args[len(args)-1]
		if err := os.WriteFile(dest, []byte("RIFF"), 0o644); err != nil {
			return err
		}
	}
	for _, line := range r.lines {
		onLine(line)
	}
	return r.err
}

func TestRipDiscCommandLine(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "disc.wav")
	executor := &ripExecutor{writeDest: true}
	client, err := New("ffmpeg", "ffprobe", 0, 0, WithExecutor(executor))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := client.RipDisc(context.Background(), "/dev/sr0", dest, time.Hour, nil); err != nil {
		t.Fatalf("RipDisc failed: %v", err)
	}

	args := strings.Join(executor.gotArgs, " ")
	for _, want := range []string{"-f libcdio", "-i /dev/sr0", "-map 0:a:0", "-acodec pcm_s16le", "-ar 44100", "-ac 2"} {
		if !strings.Contains(args, want) {
			t.Errorf("expected %q in command line %q", want, args)
		}
	}
	if executor.gotArgs[len(executor.gotArgs)-1] != dest {
		t.Fatalf("expected destination as final argument, got %q", executor.gotArgs[len(executor.gotArgs)-1])
	}
}

func TestRipDiscReportsProgress(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "disc.wav")
	executor := &ripExecutor{
		writeDest: true,
		lines: []string{
			"size=  100352kB time=00:15:00.00 bitrate=1411.2kbits/s speed=4.1x",
			"size=  200704kB time=00:30:00.00 bitrate=1411.2kbits/s speed=4.1x",
		},
	}
	client, err := New("ffmpeg", "ffprobe", 0, 0, WithExecutor(executor))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var percents []float64
	err = client.RipDisc(context.Background(), "/dev/sr0", dest, time.Hour, func(update ProgressUpdate) {
		percents = append(percents, update.Percent)
	})
	if err != nil {
		t.Fatalf("RipDisc failed: %v", err)
	}
	if len(percents) != 2 || percents[0] != 25 || percents[1] != 50 {
		t.Fatalf("unexpected progress: %v", percents)
	}
}

func TestRipDiscRemovesPartialOutputOnFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "disc.wav")
	executor := &ripExecutor{writeDest: true, err: errors.New("wait command: exit status 1")}
	client, err := New("ffmpeg", "ffprobe", 0, 0, WithExecutor(executor))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := client.RipDisc(context.Background(), "/dev/sr0", dest, time.Hour, nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial output to be removed, stat err = %v", err)
	}
}

func TestRipDiscRemovesPartialOutputOnCancel(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "disc.wav")
	executor := &ripExecutor{writeDest: true, err: context.Canceled}
	client, err := New("ffmpeg", "ffprobe", 0, 0, WithExecutor(executor))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.RipDisc(ctx, "/dev/sr0", dest, time.Hour, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial output to be removed, stat err = %v", err)
	}
}
