package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookrip/internal/logging"
	"bookrip/internal/queue"
	"bookrip/internal/services"
	"bookrip/internal/stage"
	"bookrip/internal/testsupport"
	"bookrip/internal/workflow"
)

type stubHandler struct {
	name    string
	execute func(ctx context.Context, item *queue.Item) error
}

func (h *stubHandler) Prepare(ctx context.Context, item *queue.Item) error { return nil }

func (h *stubHandler) Execute(ctx context.Context, item *queue.Item) error {
	if h.execute != nil {
		return h.execute(ctx, item)
	}
	return nil
}

func (h *stubHandler) HealthCheck(ctx context.Context) stage.Health { return stage.Healthy(h.name) }

type recordingNotifier struct {
	mu     sync.Mutex
	errors []error
}

func (n *recordingNotifier) NotifyDiscDetected(context.Context, string) error           { return nil }
func (n *recordingNotifier) NotifyRipStarted(context.Context, string) error             { return nil }
func (n *recordingNotifier) NotifyRipCompleted(context.Context, string) error           { return nil }
func (n *recordingNotifier) NotifyEncodingCompleted(context.Context, string, int) error { return nil }
func (n *recordingNotifier) NotifyBookCompleted(context.Context, string, int) error     { return nil }
func (n *recordingNotifier) TestNotification(context.Context) error                     { return nil }

func (n *recordingNotifier) NotifyError(_ context.Context, err error, _ string) error {
	n.mu.Lock()
	n.errors = append(n.errors, err)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

func passthroughStages() workflow.StageSet {
	return workflow.StageSet{
		Identifier: &stubHandler{name: "identifier"},
		Ripper:     &stubHandler{name: "ripper"},
		Encoder:    &stubHandler{name: "encoder"},
		Tagger:     &stubHandler{name: "tagger"},
	}
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if item != nil && item.Status == want {
			return item
		}
		time.Sleep(10 * time.Millisecond)
	}
	item, _ := store.GetByID(context.Background(), id)
	t.Fatalf("job never reached %s, last status %v", want, item.Status)
	return nil
}

func TestManagerRunsPipelineToCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(passthroughStages())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(manager.Stop)

	done := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if done.ProgressPercent != 100 {
		t.Fatalf("completed job progress = %v, want 100", done.ProgressPercent)
	}
	if done.ProgressStage != "Completed" {
		t.Fatalf("completed job stage = %q", done.ProgressStage)
	}
}

func TestManagerMarksFailedOnRipError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")

	stages := passthroughStages()
	stages.Ripper = &stubHandler{
		name: "ripper",
		execute: func(ctx context.Context, item *queue.Item) error {
			return services.Wrap(services.ErrRipProcess, "ripping", "rip disc", "ffmpeg exited with status 1", nil)
		},
	}
	notifier := &recordingNotifier{}
	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	manager.ConfigureStages(stages)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(manager.Stop)

	failed := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatal("expected error message on failed job")
	}
	if notifier.errorCount() != 1 {
		t.Fatalf("expected 1 error notification, got %d", notifier.errorCount())
	}
}

func TestCancelRunningJobMarksCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")

	ripStarted := make(chan struct{})
	var once sync.Once
	stages := passthroughStages()
	stages.Ripper = &stubHandler{
		name: "ripper",
		execute: func(ctx context.Context, item *queue.Item) error {
			once.Do(func() { close(ripStarted) })
			<-ctx.Done()
			return ctx.Err()
		},
	}
	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(stages)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(manager.Stop)

	select {
	case <-ripStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("rip stage never started")
	}
	cancelled, err := manager.Cancel(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if !cancelled {
		t.Fatal("expected cancel to affect running job")
	}

	done := waitForStatus(t, store, item.ID, queue.StatusCancelled)
	if done.ErrorMessage != queue.UserCancelMessage {
		t.Fatalf("error message = %q, want %q", done.ErrorMessage, queue.UserCancelMessage)
	}
}

func TestCancelQueuedJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(passthroughStages())

	cancelled, err := manager.Cancel(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if !cancelled {
		t.Fatal("expected queued job to be cancelled")
	}
	got, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != queue.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
}

func TestDegradedLookupStillCompletes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewDisc(t, store, cfg, "The Long Way Home")

	stages := passthroughStages()
	stages.Identifier = &stubHandler{
		name: "identifier",
		execute: func(ctx context.Context, item *queue.Item) error {
			return services.Wrap(services.ErrMetadataLookup, "identifying", "lookup disc", "musicbrainz unreachable", nil)
		},
	}
	notifier := &recordingNotifier{}
	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	manager.ConfigureStages(stages)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(manager.Stop)

	waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if notifier.errorCount() != 0 {
		t.Fatalf("degraded lookup must not notify errors, got %d", notifier.errorCount())
	}
}

func TestStatusReportsStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewDisc(t, store, cfg, "The Long Way Home")

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(passthroughStages())

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("manager should not report running before Start")
	}
	if len(summary.StageHealth) != 4 {
		t.Fatalf("expected 4 stage health entries, got %d", len(summary.StageHealth))
	}
	if summary.Queue.Total != 1 {
		t.Fatalf("queue total = %d, want 1", summary.Queue.Total)
	}
}
