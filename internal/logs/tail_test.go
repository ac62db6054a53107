package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bookrip/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookrip.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Tail(path, 2)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset == 0 {
		t.Fatal("expected offset to advance")
	}
}

func TestTailFewerLinesThanLimit(t *testing.T) {
	path := writeLog(t, "only\n")

	lines, _, err := logs.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	lines, offset, err := logs.Tail(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %#v at offset %d", lines, offset)
	}
}

func TestReadFromReturnsNewLines(t *testing.T) {
	path := writeLog(t, "start\n")

	_, offset, err := logs.Tail(path, 1)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	lines, newOffset, err := logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("ReadFrom returned error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "later" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if newOffset <= offset {
		t.Fatalf("expected offset to advance past %d, got %d", offset, newOffset)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")

	_, offset, err := logs.Tail(path, 1)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = logs.Follow(ctx, path, offset, func(line string) {
			mu.Lock()
			seen = append(seen, line)
			mu.Unlock()
			cancel()
		})
	}()

	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Follow did not observe the appended line")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "later" {
		t.Fatalf("unexpected lines: %#v", seen)
	}
}
