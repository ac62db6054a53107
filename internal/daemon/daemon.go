package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"bookrip/internal/config"
	"bookrip/internal/disc"
	"bookrip/internal/logging"
	"bookrip/internal/notifications"
	"bookrip/internal/queue"
	"bookrip/internal/staging"
	"bookrip/internal/workflow"
)

// Staging directories untouched for this long belong to jobs that will never
// resume; rollback re-rips from scratch.
const staleStagingAge = 72 * time.Hour

// DriveProbe reports the media status of an optical drive.
type DriveProbe func(device string) (disc.DriveStatus, error)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	monitor  *discMonitor

	driveProbe DriveProbe

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
}

// Option configures optional daemon behavior.
type Option func(*Daemon)

// WithDriveProbe overrides how the daemon checks drive readiness (used in tests).
func WithDriveProbe(probe DriveProbe) Option {
	return func(d *Daemon) {
		if probe != nil {
			d.driveProbe = probe
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "bookripd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		workflow:   wf,
		driveProbe: disc.CheckDriveStatus,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	if cfg.Rip.AutoRip {
		d.monitor = newDiscMonitor(cfg, logger, func(ctx context.Context, device string) (*DiscDetectedResult, error) {
			return d.DetectDisc(ctx, device, RipOverrides{})
		})
	}
	return d, nil
}

// Start launches the workflow manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another bookrip daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if d.monitor != nil {
		if err := d.monitor.Start(d.ctx); err != nil {
			d.logger.Warn("disc monitor unavailable", logging.Error(err))
		}
	}

	// Leftovers from jobs interrupted before the last shutdown.
	go func() {
		result := staging.CleanStale(d.cfg.Paths.StagingDir, staleStagingAge, d.logger)
		if len(result.Removed) > 0 {
			d.logger.Info("staging cleanup finished", logging.Int("removed", len(result.Removed)))
		}
	}()

	d.running.Store(true)
	d.logger.Info("bookrip daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.monitor != nil {
		d.monitor.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("bookrip daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// DescribeJob returns a single queue item by id.
func (d *Daemon) DescribeJob(ctx context.Context, id int64) (*queue.Item, error) {
	return d.store.GetByID(ctx, id)
}

// CancelJob stops an in-flight or queued rip job.
func (d *Daemon) CancelJob(ctx context.Context, id int64) (bool, error) {
	return d.workflow.Cancel(ctx, id)
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	return d.store.RetryFailed(ctx, ids...)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthStatus, error) {
	return d.store.Health(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
