package ripping_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bookrip/internal/logging"
	"bookrip/internal/metadata"
	"bookrip/internal/notifications"
	"bookrip/internal/ripping"
	"bookrip/internal/services"
	"bookrip/internal/services/ffmpeg"
	"bookrip/internal/testsupport"
)

type stubRipClient struct {
	err          error
	updates      []float64
	writePartial bool
	gotDest      string
	gotTotal     time.Duration
}

func (s *stubRipClient) RipDisc(ctx context.Context, device, destPath string, total time.Duration, progress func(ffmpeg.ProgressUpdate)) error {
	s.gotDest = destPath
	s.gotTotal = total
	if s.writePartial {
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(destPath, []byte("RIFF"), 0o644); err != nil {
			return err
		}
	}
	for _, percent := range s.updates {
		progress(ffmpeg.ProgressUpdate{Stage: "Ripping", Percent: percent})
	}
	return s.err
}

type recordingEjector struct {
	ejected bool
}

func (r *recordingEjector) Eject(context.Context, string) error {
	r.ejected = true
	return nil
}

func TestExecuteRipsAndEjects(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")
	if err := item.SetDisc(&metadata.Disc{
		Device: cfg.Rip.Device,
		Tracks: []metadata.Track{{Number: 1, Start: 0, End: time.Hour}},
	}); err != nil {
		t.Fatalf("SetDisc failed: %v", err)
	}
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	client := &stubRipClient{updates: []float64{25, 50, 100}}
	ejector := &recordingEjector{}
	ripper := ripping.NewRipperWithDependencies(cfg, store, logging.NewNop(), client, ejector, notifications.NewService(cfg))

	if err := ripper.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := ripper.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if item.RippedFile != ripping.RipPath(cfg, item) {
		t.Fatalf("unexpected ripped file: %q", item.RippedFile)
	}
	if client.gotTotal != time.Hour {
		t.Fatalf("unexpected total duration: %s", client.gotTotal)
	}
	if !ejector.ejected {
		t.Fatal("expected disc to be ejected after rip")
	}
	// Split mode weights the rip phase at 40% of the job.
	if item.ProgressPercent != 40 {
		t.Fatalf("unexpected progress: %v", item.ProgressPercent)
	}
}

func TestExecuteWrapsRipFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "Bad Disc")
	if err := item.SetDisc(&metadata.Disc{
		Tracks: []metadata.Track{{Number: 1, Start: 0, End: time.Minute}},
	}); err != nil {
		t.Fatalf("SetDisc failed: %v", err)
	}

	client := &stubRipClient{err: errors.New("ffmpeg rip from /dev/sr0: exit status 1")}
	ripper := ripping.NewRipperWithDependencies(cfg, store, logging.NewNop(), client, &recordingEjector{}, notifications.NewService(cfg))

	err := ripper.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrRipProcess) {
		t.Fatalf("expected ErrRipProcess, got %v", err)
	}
	if services.Degraded(err) {
		t.Fatal("rip failures must be fatal")
	}
}

func TestExecuteRemovesPartialRipOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "Interrupted Disc")
	if err := item.SetDisc(&metadata.Disc{
		Tracks: []metadata.Track{{Number: 1, Start: 0, End: time.Hour}},
	}); err != nil {
		t.Fatalf("SetDisc failed: %v", err)
	}
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	client := &stubRipClient{writePartial: true, err: context.Canceled}
	ripper := ripping.NewRipperWithDependencies(cfg, store, logging.NewNop(), client, &recordingEjector{}, notifications.NewService(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ripper.Execute(ctx, item); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(ripping.RipPath(cfg, item)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial rip to be removed, stat err = %v", err)
	}
}

func TestExecuteRemovesPartialRipOnFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "Scratched Disc")
	if err := item.SetDisc(&metadata.Disc{
		Tracks: []metadata.Track{{Number: 1, Start: 0, End: time.Minute}},
	}); err != nil {
		t.Fatalf("SetDisc failed: %v", err)
	}

	client := &stubRipClient{writePartial: true, err: errors.New("ffmpeg rip from /dev/sr0: exit status 1")}
	ripper := ripping.NewRipperWithDependencies(cfg, store, logging.NewNop(), client, &recordingEjector{}, notifications.NewService(cfg))

	if err := ripper.Execute(context.Background(), item); !errors.Is(err, services.ErrRipProcess) {
		t.Fatalf("expected ErrRipProcess, got %v", err)
	}
	if _, err := os.Stat(ripping.RipPath(cfg, item)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial rip to be removed, stat err = %v", err)
	}
}

func TestExecuteRequiresDiscSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "No Snapshot")

	ripper := ripping.NewRipperWithDependencies(cfg, store, logging.NewNop(), &stubRipClient{}, &recordingEjector{}, notifications.NewService(cfg))

	if err := ripper.Execute(context.Background(), item); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestProgressNeverDecreases(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "Out Of Order")
	if err := item.SetDisc(&metadata.Disc{
		Tracks: []metadata.Track{{Number: 1, Start: 0, End: time.Hour}},
	}); err != nil {
		t.Fatalf("SetDisc failed: %v", err)
	}
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	client := &stubRipClient{updates: []float64{50, 30, 80, 10}}
	ripper := ripping.NewRipperWithDependencies(cfg, store, logging.NewNop(), client, &recordingEjector{}, notifications.NewService(cfg))

	if err := ripper.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.ProgressPercent != 40 {
		t.Fatalf("unexpected final progress: %v", item.ProgressPercent)
	}
}
