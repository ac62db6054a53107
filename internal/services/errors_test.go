package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bookrip/internal/services"
)

func TestWrapTagsMarkerAndContext(t *testing.T) {
	cause := errors.New("exit status 1")
	err := services.Wrap(services.ErrRipProcess, "ripping", "extract audio", "ffmpeg exited early", cause)

	if !errors.Is(err, services.ErrRipProcess) {
		t.Fatalf("expected ErrRipProcess marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	msg := err.Error()
	for _, part := range []string{"ripping", "extract audio", "ffmpeg exited early", "exit status 1"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q missing %q", msg, part)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "encoding", "", "bitrate missing", nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration marker, got %v", err)
	}
	if strings.Contains(err.Error(), "<nil>") {
		t.Fatalf("nil cause leaked into message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", errors.New("boom"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient fallback, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected generic detail, got %q", err.Error())
	}
}

func TestDegraded(t *testing.T) {
	degraded := []error{
		services.Wrap(services.ErrDiscIDUnavailable, "discid", "read", "binary missing", nil),
		services.Wrap(services.ErrMetadataLookup, "musicbrainz", "lookup", "no match", nil),
	}
	for _, err := range degraded {
		if !services.Degraded(err) {
			t.Errorf("expected degraded classification for %v", err)
		}
	}

	fatal := []error{
		services.Wrap(services.ErrDriveNotReady, "identification", "wait", "tray open", nil),
		services.Wrap(services.ErrRipProcess, "ripping", "extract", "ffmpeg failed", nil),
		services.Wrap(services.ErrEncode, "encoding", "encode", "lame missing", nil),
	}
	for _, err := range fatal {
		if services.Degraded(err) {
			t.Errorf("expected fatal classification for %v", err)
		}
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("empty context should not carry an item id")
	}

	ctx = services.WithItemID(ctx, 42)
	ctx = services.WithStage(ctx, "ripping")
	ctx = services.WithRequestID(ctx, "req-7")

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected item id: %d (ok=%v)", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "ripping" {
		t.Fatalf("unexpected stage: %q (ok=%v)", stage, ok)
	}
	if reqID, ok := services.RequestIDFromContext(ctx); !ok || reqID != "req-7" {
		t.Fatalf("unexpected request id: %q (ok=%v)", reqID, ok)
	}

	// Empty values are ignored rather than stored.
	blank := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(blank); ok {
		t.Fatal("blank stage should not be stored")
	}
}
