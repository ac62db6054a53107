package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
}

func TestCheckFFmpegCapabilities(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := filepath.Join(binDir, "ffmpeg")
	script := []byte("#!/bin/sh\ncase \"$2\" in\n-demuxers) echo ' D  libcdio' ;;\n-encoders) echo ' A..... mp2fixed' ;;\nesac\nexit 0\n")
	if err := os.WriteFile(ffmpeg, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}

	results := CheckFFmpegCapabilities(ffmpeg)
	if len(results) != 2 {
		t.Fatalf("expected 2 capability checks, got %d", len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected libcdio check to pass, got %#v", results[0])
	}
	if results[1].Available {
		t.Fatalf("expected libmp3lame check to fail, got %#v", results[1])
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail for missing encoder")
	}
}

func TestCheckFFmpegCapabilitiesMissingBinary(t *testing.T) {
	results := CheckFFmpegCapabilities("clearly-not-present-ffmpeg")
	for _, status := range results {
		if status.Available {
			t.Fatalf("expected unavailable status, got %#v", status)
		}
	}
}
