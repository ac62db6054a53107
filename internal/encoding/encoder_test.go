package encoding_test

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
	"bookrip/internal/encoding"
	"bookrip/internal/logging"
	"bookrip/internal/metadata"
	"bookrip/internal/notifications"
	"bookrip/internal/queue"
	"bookrip/internal/services"
	"bookrip/internal/services/ffmpeg"
	"bookrip/internal/testsupport"
)

type stubClient struct {
	mu          sync.Mutex
	failTracks  map[int]bool
	extracted   []string
	encoded     []string
	extractErr  error
	maxParallel int
	inFlight    int
}

func (s *stubClient) Extract(ctx context.Context, src, dest string, start, end time.Duration) error {
	if s.extractErr != nil {
		return s.extractErr
	}
	s.mu.Lock()
	s.extracted = append(s.extracted, dest)
	s.mu.Unlock()
	return writeStubFile(dest)
}

func (s *stubClient) Encode(ctx context.Context, req ffmpeg.EncodeRequest, progress func(ffmpeg.ProgressUpdate)) error {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxParallel {
		s.maxParallel = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if progress != nil {
		progress(ffmpeg.ProgressUpdate{Stage: "Encoding", Percent: 50})
	}

	trackFromName := 0
	fmt.Sscanf(filepath.Base(req.Dest), "%02d", &trackFromName)
	s.mu.Lock()
	fail := s.failTracks[trackFromName]
	s.encoded = append(s.encoded, req.Dest)
	s.mu.Unlock()
	if fail {
		return errors.New("encode exited 1")
	}
	return writeStubFile(req.Dest)
}

func writeStubFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("stub"), 0o644)
}

func newEncodeItem(t *testing.T, cfg *config.Config, store *queue.Store, trackCount int) *queue.Item {
	t.Helper()
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")
	ripPath := cfg.Paths.StagingDir + "/disc.wav"
	testsupport.WriteFile(t, ripPath, 64)
	item.RippedFile = ripPath

	tracks := make([]metadata.Track, 0, trackCount)
	for i := 1; i <= trackCount; i++ {
		tracks = append(tracks, metadata.Track{
			Number: i,
			Title:  fmt.Sprintf("Chapter %d", i),
			Start:  time.Duration(i-1) * time.Minute,
			End:    time.Duration(i) * time.Minute,
		})
	}
	meta := &queue.JobMetadata{
		Book:   metadata.Book{Album: "The Long Way Home", DiscNumber: 1, TotalDiscs: 1},
		Tracks: tracks,
	}
	if err := item.SetMetadata(meta); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return item
}

func TestExecuteSplitEncodesAllTracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := newEncodeItem(t, cfg, store, 4)

	client := &stubClient{}
	encoder := encoding.NewEncoderWithDependencies(cfg, store, logging.NewNop(), client, notifications.NewService(cfg))

	if err := encoder.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := encoder.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	outputs, err := item.OutputFiles()
	if err != nil {
		t.Fatalf("OutputFiles failed: %v", err)
	}
	if len(outputs) != 4 {
		t.Fatalf("expected 4 outputs, got %d", len(outputs))
	}
	failures, err := item.FailedTracks()
	if err != nil {
		t.Fatalf("FailedTracks failed: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %#v", failures)
	}
	if len(client.extracted) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(client.extracted))
	}
	// Encode phase ends at 95% in the split weighting.
	if item.ProgressPercent != 95 {
		t.Fatalf("unexpected progress: %v", item.ProgressPercent)
	}
}

func TestExecuteSplitKeepsGoodTracksOnPartialFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := newEncodeItem(t, cfg, store, 3)

	client := &stubClient{failTracks: map[int]bool{2: true}}
	encoder := encoding.NewEncoderWithDependencies(cfg, store, logging.NewNop(), client, notifications.NewService(cfg))

	if err := encoder.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	outputs, err := item.OutputFiles()
	if err != nil {
		t.Fatalf("OutputFiles failed: %v", err)
	}
	failures, err := item.FailedTracks()
	if err != nil {
		t.Fatalf("FailedTracks failed: %v", err)
	}
	if len(outputs)+len(failures) != 3 {
		t.Fatalf("expected outcomes to cover all tracks: %d outputs, %d failures", len(outputs), len(failures))
	}
	if len(failures) != 1 || failures[0].Track != 2 {
		t.Fatalf("unexpected failures: %#v", failures)
	}
	for _, output := range outputs {
		if output.Track == 2 {
			t.Fatal("failed track must not appear in outputs")
		}
	}
}

func TestExecuteFailsWhenAllTracksFail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := newEncodeItem(t, cfg, store, 2)

	client := &stubClient{failTracks: map[int]bool{1: true, 2: true}}
	encoder := encoding.NewEncoderWithDependencies(cfg, store, logging.NewNop(), client, notifications.NewService(cfg))

	err := encoder.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
}

func TestExecuteCombinedProducesSingleFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMode(config.ModeCombined))
	store := testsupport.MustOpenStore(t, cfg)
	item := newEncodeItem(t, cfg, store, 5)

	client := &stubClient{}
	encoder := encoding.NewEncoderWithDependencies(cfg, store, logging.NewNop(), client, notifications.NewService(cfg))

	if err := encoder.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	outputs, err := item.OutputFiles()
	if err != nil {
		t.Fatalf("OutputFiles failed: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("expected single combined output, got %d", len(outputs))
	}
	if len(client.extracted) != 0 {
		t.Fatal("combined mode must not cut segments")
	}
}

func TestExecuteBoundsWorkerPool(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Rip.EncodeWorkers = 2
	store := testsupport.MustOpenStore(t, cfg)
	item := newEncodeItem(t, cfg, store, 6)

	client := &stubClient{}
	encoder := encoding.NewEncoderWithDependencies(cfg, store, logging.NewNop(), client, notifications.NewService(cfg))

	if err := encoder.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if client.maxParallel > 2 {
		t.Fatalf("expected at most 2 concurrent encodes, observed %d", client.maxParallel)
	}
}
