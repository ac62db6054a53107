package tagging

import (
	"context"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"bookrip/internal/config"
	"bookrip/internal/logging"
	"bookrip/internal/metadata"
	"bookrip/internal/notifications"
	"bookrip/internal/progress"
	"bookrip/internal/queue"
	"bookrip/internal/services"
	"bookrip/internal/stage"
	"bookrip/internal/staging"
)

// WriteFunc writes the ID3 frames for a single output file.
type WriteFunc func(path string, book metadata.Book, title string) error

// Tagger applies ID3 metadata to the encoded MP3 files.
type Tagger struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	write    WriteFunc
	notifier notifications.Service
}

// NewTagger constructs the tagging stage handler using default dependencies.
func NewTagger(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Tagger {
	return NewTaggerWithDependencies(cfg, store, logger, WriteTags, notifications.NewService(cfg))
}

// NewTaggerWithDependencies allows injecting collaborators (used in tests).
func NewTaggerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, write WriteFunc, notifier notifications.Service) *Tagger {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "tagging"))
	}
	if write == nil {
		write = WriteTags
	}
	return &Tagger{store: store, cfg: cfg, logger: stageLogger, write: write, notifier: notifier}
}

func (t *Tagger) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	item.ProgressStage = "Tagging"
	item.ProgressMessage = "Preparing metadata tagging"
	item.ErrorMessage = ""
	logger.Info(
		"starting tagging preparation",
		logging.String("disc_title", strings.TrimSpace(item.DiscTitle)),
	)
	return nil
}

func (t *Tagger) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	meta, err := stage.LoadMetadata(item)
	if err != nil {
		return err
	}
	outputs, err := item.OutputFiles()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "tagging", "load outputs", "Output file list is invalid; rerun encoding", err)
	}
	if len(outputs) == 0 {
		return services.Wrap(services.ErrConfiguration, "tagging", "validate inputs", "No encoded files present for tagging; run encoding before tagging", nil)
	}

	tracker := progress.NewTracker(item.Mode)
	tracker.Resume(item.ProgressPercent)

	book := meta.Book
	if item.Mode == config.ModeSplit && book.TotalTracks == 0 {
		book.TotalTracks = len(meta.Tracks)
	}

	logger.Info(
		"starting tagging",
		logging.String("album", strings.TrimSpace(book.Album)),
		logging.Int("files", len(outputs)),
	)

	// A failed tag write never fails the job: the audio on disk is already
	// correct, so the file is left untagged with a warning.
	var tagFailures int
	for i, output := range outputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		fileBook, title := t.frameValues(item.Mode, book, meta, output)
		if err := t.write(output.Path, fileBook, title); err != nil {
			tagFailures++
			logger.Warn(
				"tag write failed, leaving file untagged",
				logging.String("path", output.Path),
				logging.Error(err),
			)
		}
		percent := tracker.Update(progress.PhaseTag, float64(i+1)/float64(len(outputs)))
		t.applyProgress(ctx, item, "Tagging", fmt.Sprintf("Tagged %d/%d files", i+1, len(outputs)), percent)
	}

	item.ProgressStage = "Completed"
	item.ProgressPercent = tracker.Update(progress.PhaseTag, 1)
	if tagFailures > 0 {
		item.ProgressMessage = fmt.Sprintf("Tagged %d of %d files; %d left untagged", len(outputs)-tagFailures, len(outputs), tagFailures)
	} else {
		item.ProgressMessage = fmt.Sprintf("Tagged %d files", len(outputs))
	}
	logger.Info("tagging completed", logging.Int("files", len(outputs)), logging.Int("tag_failures", tagFailures))

	if err := staging.CleanJob(t.cfg.Paths.StagingDir, item.ID); err != nil {
		logger.Warn("staging cleanup failed", logging.Error(err))
	}

	if t.notifier != nil {
		title := strings.TrimSpace(book.Title)
		if title == "" {
			title = strings.TrimSpace(book.Album)
		}
		if title == "" {
			title = strings.TrimSpace(item.DiscTitle)
		}
		if err := t.notifier.NotifyBookCompleted(ctx, title, len(outputs)); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	return nil
}

// frameValues resolves the per-file tag payload. Split tracks get their own
// track number and chapter title; a combined disc file is numbered by disc.
func (t *Tagger) frameValues(mode string, book metadata.Book, meta *queue.JobMetadata, output queue.OutputFile) (metadata.Book, string) {
	fileBook := book
	if fileBook.DiscNumber == 0 {
		fileBook.DiscNumber = 1
	}
	if mode == config.ModeCombined {
		fileBook.TrackNumber = fileBook.DiscNumber
		fileBook.TotalTracks = fileBook.TotalDiscs
		return fileBook, metadata.CombinedTitle(fileBook.DiscNumber)
	}
	fileBook.TrackNumber = output.Track
	title := metadata.DefaultTrackTitle(output.Track)
	for _, track := range meta.Tracks {
		if track.Number == output.Track {
			if strings.TrimSpace(track.Title) != "" {
				title = track.Title
			}
			break
		}
	}
	return fileBook, title
}

// HealthCheck verifies tagging prerequisites.
func (t *Tagger) HealthCheck(ctx context.Context) stage.Health {
	const name = "tagging"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(t.cfg.Paths.OutputDir) == "" {
		return stage.Unhealthy(name, "output directory not configured")
	}
	if _, err := os.Stat(t.cfg.Paths.OutputDir); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("output directory unavailable: %v", err))
	}
	return stage.Healthy(name)
}

func (t *Tagger) applyProgress(ctx context.Context, item *queue.Item, stageName, message string, percent float64) {
	logger := logging.WithContext(ctx, t.logger)
	updated := *item
	updated.SetProgress(stageName, message, percent)
	if err := t.store.Update(ctx, &updated); err != nil {
		logger.Warn("failed to persist tagging progress", logging.Error(err))
		return
	}
	*item = updated
}
