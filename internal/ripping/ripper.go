package ripping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bookrip/internal/config"
	"bookrip/internal/disc"
	"bookrip/internal/logging"
	"bookrip/internal/notifications"
	"bookrip/internal/progress"
	"bookrip/internal/queue"
	"bookrip/internal/services"
	"bookrip/internal/services/ffmpeg"
	"bookrip/internal/stage"
)

// Ripper manages the whole-disc rip to a staging WAV file.
type Ripper struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   ffmpeg.Ripper
	ejector  disc.Ejector
	notifier notifications.Service
}

// NewRipper constructs the ripping handler using default dependencies.
func NewRipper(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Ripper {
	client, err := ffmpeg.New("ffmpeg", "ffprobe", cfg.Rip.RipTimeout, cfg.Rip.ProbeTimeout)
	if err != nil {
		logger.Warn("ffmpeg client unavailable", logging.Error(err))
	}
	return NewRipperWithDependencies(cfg, store, logger, client, disc.NewEjector(), notifications.NewService(cfg))
}

// NewRipperWithDependencies allows injecting all collaborators (used in tests).
func NewRipperWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client ffmpeg.Ripper, ejector disc.Ejector, notifier notifications.Service) *Ripper {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "ripper"))
	}
	return &Ripper{store: store, cfg: cfg, logger: stageLogger, client: client, ejector: ejector, notifier: notifier}
}

func (r *Ripper) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	item.ProgressStage = "Ripping"
	item.ProgressMessage = "Starting rip"
	item.ErrorMessage = ""
	logger.Info(
		"starting rip preparation",
		logging.String("disc_title", strings.TrimSpace(item.DiscTitle)),
		logging.String("device", item.Device),
	)
	if r.notifier != nil {
		if err := r.notifier.NotifyRipStarted(ctx, item.DiscTitle); err != nil {
			logger.Warn("failed to send rip start notification", logging.Error(err))
		}
	}
	return nil
}

func (r *Ripper) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)

	snapshot, err := item.Disc()
	if err != nil || snapshot == nil || len(snapshot.Tracks) == 0 {
		return services.Wrap(
			services.ErrConfiguration, "ripping", "load disc snapshot",
			"Disc snapshot missing; rerun identification", err)
	}
	total := snapshot.TotalDuration()
	if total <= 0 {
		return services.Wrap(
			services.ErrConfiguration, "ripping", "disc duration",
			"Disc snapshot reports no duration; rerun identification", fmt.Errorf("total duration %s", total))
	}

	tracker := progress.NewTracker(item.Mode)
	tracker.Resume(item.ProgressPercent)

	destPath := RipPath(r.cfg, item)
	logger.Info(
		"starting rip execution",
		logging.String("disc_title", strings.TrimSpace(item.DiscTitle)),
		logging.String("ripped_file", destPath),
		logging.Duration("disc_duration", total),
	)

	err = r.client.RipDisc(ctx, item.Device, destPath, total, func(update ffmpeg.ProgressUpdate) {
		overall := tracker.Update(progress.PhaseRip, update.Percent/100)
		r.applyProgress(ctx, item, "Ripping", "Reading disc audio", overall)
	})
	if err != nil {
		if removeErr := os.Remove(destPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.Warn("failed to remove partial rip", logging.String("ripped_file", destPath), logging.Error(removeErr))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(
			services.ErrRipProcess, "ripping", "ffmpeg rip",
			"Disc rip failed; check the disc surface and drive", err)
	}

	item.RippedFile = destPath
	item.ProgressStage = "Ripped"
	item.ProgressMessage = "Disc audio ripped"
	item.ProgressPercent = tracker.Update(progress.PhaseRip, 1)
	logger.Info("ripping completed", logging.String("ripped_file", destPath))

	if r.cfg.Rip.EjectWhenDone && r.ejector != nil {
		logger.Info("ejecting disc", logging.String("device", item.Device))
		if err := r.ejector.Eject(ctx, item.Device); err != nil {
			logger.Warn("failed to eject disc", logging.Error(err))
		}
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyRipCompleted(ctx, item.DiscTitle); err != nil {
			logger.Warn("rip completion notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies ripping dependencies.
func (r *Ripper) HealthCheck(ctx context.Context) stage.Health {
	const name = "ripper"
	if r.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(r.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if strings.TrimSpace(r.cfg.Rip.Device) == "" {
		return stage.Unhealthy(name, "optical drive not configured")
	}
	if r.client == nil {
		return stage.Unhealthy(name, "ffmpeg client unavailable")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return stage.Unhealthy(name, "ffmpeg binary not found")
	}
	return stage.Healthy(name)
}

// RipPath returns the staging location of the whole-disc WAV for an item.
func RipPath(cfg *config.Config, item *queue.Item) string {
	return filepath.Join(cfg.Paths.StagingDir, "rips", fmt.Sprintf("job-%d", item.ID), "disc.wav")
}

func (r *Ripper) applyProgress(ctx context.Context, item *queue.Item, stageName, message string, percent float64) {
	logger := logging.WithContext(ctx, r.logger)
	updated := *item
	updated.SetProgress(stageName, message, percent)
	if err := r.store.Update(ctx, &updated); err != nil {
		logger.Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = updated
}
