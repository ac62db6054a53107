package tagging_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bookrip/internal/config"
	"bookrip/internal/logging"
	"bookrip/internal/metadata"
	"bookrip/internal/notifications"
	"bookrip/internal/queue"
	"bookrip/internal/services"
	"bookrip/internal/tagging"
	"bookrip/internal/testsupport"
)

// writeDummyMP3 writes one zero-padded MPEG frame (128 kbps, 44.1 kHz) so the
// file is a plausible tagless MP3 larger than an ID3v2 header.
func writeDummyMP3(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

type recordingWriter struct {
	mu     sync.Mutex
	calls  []writeCall
	failOn string
}

type writeCall struct {
	path  string
	book  metadata.Book
	title string
}

func (w *recordingWriter) write(path string, book metadata.Book, title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn != "" && filepath.Base(path) == w.failOn {
		return errors.New("truncated file")
	}
	w.calls = append(w.calls, writeCall{path: path, book: book, title: title})
	return nil
}

func newTagItem(t *testing.T, cfg *config.Config, store *queue.Store, trackCount int) *queue.Item {
	t.Helper()
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")

	tracks := make([]metadata.Track, 0, trackCount)
	outputs := make([]queue.OutputFile, 0, trackCount)
	for i := 1; i <= trackCount; i++ {
		title := fmt.Sprintf("Chapter %d", i)
		tracks = append(tracks, metadata.Track{
			Number: i,
			Title:  title,
			Start:  time.Duration(i-1) * time.Minute,
			End:    time.Duration(i) * time.Minute,
		})
		path := filepath.Join(cfg.Paths.OutputDir, metadata.TrackFileName(i, title))
		writeDummyMP3(t, path)
		outputs = append(outputs, queue.OutputFile{Track: i, Path: path})
	}
	meta := &queue.JobMetadata{
		Book: metadata.Book{
			Title:      "The Long Way Home",
			Author:     "Jane Writer",
			Album:      "The Long Way Home",
			Genre:      "Audiobook",
			DiscNumber: 2,
			TotalDiscs: 3,
		},
		Tracks: tracks,
	}
	if err := item.SetMetadata(meta); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := item.SetOutputFiles(outputs); err != nil {
		t.Fatalf("SetOutputFiles failed: %v", err)
	}
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return item
}

func TestExecuteTagsEveryOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := newTagItem(t, cfg, store, 3)

	writer := &recordingWriter{}
	tagger := tagging.NewTaggerWithDependencies(cfg, store, logging.NewNop(), writer.write, notifications.NewService(cfg))

	if err := tagger.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := tagger.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(writer.calls) != 3 {
		t.Fatalf("expected 3 tag writes, got %d", len(writer.calls))
	}
	for i, call := range writer.calls {
		if call.book.TrackNumber != i+1 {
			t.Errorf("call %d: track number = %d", i, call.book.TrackNumber)
		}
		if call.book.TotalTracks != 3 {
			t.Errorf("call %d: total tracks = %d", i, call.book.TotalTracks)
		}
		if want := fmt.Sprintf("Chapter %d", i+1); call.title != want {
			t.Errorf("call %d: title = %q, want %q", i, call.title, want)
		}
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", item.ProgressPercent)
	}
}

func TestExecuteCombinedUsesDiscNumbering(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMode(config.ModeCombined))
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")

	meta := &queue.JobMetadata{
		Book: metadata.Book{
			Author:     "Jane Writer",
			Album:      "The Long Way Home",
			DiscNumber: 2,
			TotalDiscs: 3,
		},
		Tracks: []metadata.Track{{Number: 1, Title: "Chapter 1", End: time.Hour}},
	}
	if err := item.SetMetadata(meta); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	path := filepath.Join(cfg.Paths.OutputDir, metadata.CombinedFileName("The Long Way Home", 2))
	writeDummyMP3(t, path)
	if err := item.SetOutputFiles([]queue.OutputFile{{Track: 2, Path: path}}); err != nil {
		t.Fatalf("SetOutputFiles failed: %v", err)
	}
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	writer := &recordingWriter{}
	tagger := tagging.NewTaggerWithDependencies(cfg, store, logging.NewNop(), writer.write, notifications.NewService(cfg))
	if err := tagger.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(writer.calls) != 1 {
		t.Fatalf("expected 1 tag write, got %d", len(writer.calls))
	}
	call := writer.calls[0]
	if call.title != "Disc 02" {
		t.Errorf("title = %q, want %q", call.title, "Disc 02")
	}
	if call.book.TrackNumber != 2 || call.book.TotalTracks != 3 {
		t.Errorf("numbering = %d/%d, want 2/3", call.book.TrackNumber, call.book.TotalTracks)
	}
}

func TestExecuteRequiresOutputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")
	meta := &queue.JobMetadata{
		Book:   metadata.Book{Album: "The Long Way Home"},
		Tracks: []metadata.Track{{Number: 1, End: time.Minute}},
	}
	if err := item.SetMetadata(meta); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}

	tagger := tagging.NewTaggerWithDependencies(cfg, store, logging.NewNop(), (&recordingWriter{}).write, notifications.NewService(cfg))
	err := tagger.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestExecuteContinuesPastWriteFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := newTagItem(t, cfg, store, 3)

	writer := &recordingWriter{failOn: "02 - Chapter 2.mp3"}
	tagger := tagging.NewTaggerWithDependencies(cfg, store, logging.NewNop(), writer.write, notifications.NewService(cfg))

	// The encoded audio is already correct, so a bad tag write only warns.
	if err := tagger.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(writer.calls) != 2 {
		t.Fatalf("expected 2 successful tag writes, got %d", len(writer.calls))
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", item.ProgressPercent)
	}
	if want := "Tagged 2 of 3 files; 1 left untagged"; item.ProgressMessage != want {
		t.Fatalf("progress message = %q, want %q", item.ProgressMessage, want)
	}
}
