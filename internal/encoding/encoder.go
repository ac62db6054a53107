package encoding

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"bookrip/internal/config"
	"bookrip/internal/logging"
	"bookrip/internal/notifications"
	"bookrip/internal/progress"
	"bookrip/internal/queue"
	"bookrip/internal/services"
	"bookrip/internal/services/ffmpeg"
	"bookrip/internal/stage"
)

// Client is the ffmpeg surface the encoding stage needs.
type Client interface {
	ffmpeg.Encoder
	ffmpeg.Segmenter
}

// Encoder converts the staged rip into the item's final MP3 files.
type Encoder struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   Client
	notifier notifications.Service

	// progressMu serializes item snapshots while encode workers report
	// progress concurrently.
	progressMu sync.Mutex
}

// NewEncoder constructs the encoding handler using default dependencies.
func NewEncoder(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Encoder {
	client, err := ffmpeg.New("ffmpeg", "ffprobe", cfg.Rip.RipTimeout, cfg.Rip.ProbeTimeout)
	if err != nil {
		logger.Warn("ffmpeg client unavailable", logging.Error(err))
	}
	return NewEncoderWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewEncoderWithDependencies allows injecting all collaborators (used in tests).
func NewEncoderWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client Client, notifier notifications.Service) *Encoder {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "encoder"))
	}
	return &Encoder{store: store, cfg: cfg, logger: stageLogger, client: client, notifier: notifier}
}

func (e *Encoder) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	item.ProgressStage = "Encoding"
	item.ProgressMessage = "Preparing encode"
	item.ErrorMessage = ""
	logger.Info(
		"starting encode preparation",
		logging.String("mode", item.Mode),
		logging.Int("bitrate", item.Bitrate),
	)
	return nil
}

func (e *Encoder) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	meta, err := stage.LoadMetadata(item)
	if err != nil {
		return err
	}
	plan, err := BuildPlan(e.cfg, item, meta)
	if err != nil {
		return services.Wrap(
			services.ErrConfiguration, "encoding", "build plan",
			"Could not derive encode jobs for this item", err)
	}
	if err := os.MkdirAll(item.OutputDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration, "encoding", "ensure output dir",
			"Failed to create output directory; set output_dir to a writable location", err)
	}

	tracker := progress.NewTracker(item.Mode)
	tracker.Resume(item.ProgressPercent)

	if plan.Mode == config.ModeSplit {
		if err := e.segment(ctx, item, plan, tracker); err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(plan.SegmentDir) }()
	}

	outputs, failures := e.encodeJobs(ctx, item, plan, tracker)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if len(outputs) == 0 {
		detail := "no tracks produced output"
		if len(failures) > 0 {
			detail = failures[0].Error
		}
		return services.Wrap(
			services.ErrEncode, "encoding", "encode tracks",
			"All tracks failed to encode", fmt.Errorf("%s", detail))
	}
	if len(failures) > 0 {
		// Split-mode partial failure: keep the good tracks, record the rest.
		logger.Warn("some tracks failed to encode",
			logging.Int("failed", len(failures)),
			logging.Int("succeeded", len(outputs)),
		)
	}

	if err := item.SetOutputFiles(outputs); err != nil {
		return services.Wrap(services.ErrConfiguration, "encoding", "store outputs", "Could not persist encode results", err)
	}
	if err := item.SetFailedTracks(failures); err != nil {
		return services.Wrap(services.ErrConfiguration, "encoding", "store failures", "Could not persist encode results", err)
	}

	item.ProgressStage = "Encoded"
	item.ProgressMessage = fmt.Sprintf("%d of %d tracks encoded", len(outputs), len(plan.Jobs))
	item.ProgressPercent = tracker.Update(progress.PhaseEncode, 1)
	logger.Info(
		"encoding completed",
		logging.Int("outputs", len(outputs)),
		logging.Int("failures", len(failures)),
	)

	if e.notifier != nil {
		if err := e.notifier.NotifyEncodingCompleted(ctx, item.DiscTitle, len(outputs)); err != nil {
			logger.Warn("encode completion notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies encoding dependencies.
func (e *Encoder) HealthCheck(ctx context.Context) stage.Health {
	const name = "encoder"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.Paths.OutputDir) == "" {
		return stage.Unhealthy(name, "output directory not configured")
	}
	if e.client == nil {
		return stage.Unhealthy(name, "ffmpeg client unavailable")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return stage.Unhealthy(name, "ffmpeg binary not found")
	}
	return stage.Healthy(name)
}

// segment cuts the whole-disc rip into per-track WAV files.
func (e *Encoder) segment(ctx context.Context, item *queue.Item, plan Plan, tracker *progress.Tracker) error {
	if err := os.MkdirAll(plan.SegmentDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrEncode, "encoding", "split rip",
			"Could not create the segment directory", err)
	}
	for idx, job := range plan.Jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.client.Extract(ctx, item.RippedFile, job.Source, job.Track.Start, job.Track.End); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return services.Wrap(
				services.ErrEncode, "encoding", "split rip",
				fmt.Sprintf("Could not cut track %d from the rip", job.Track.Number), err)
		}
		overall := tracker.Update(progress.PhaseSplit, float64(idx+1)/float64(len(plan.Jobs)))
		e.applyProgress(ctx, item, "Encoding", fmt.Sprintf("Split track %d of %d", idx+1, len(plan.Jobs)), overall)
	}
	return nil
}

// encodeJobs runs the plan through a bounded worker pool and returns the
// per-track outcomes in track order.
func (e *Encoder) encodeJobs(ctx context.Context, item *queue.Item, plan Plan, tracker *progress.Tracker) ([]queue.OutputFile, []queue.FailedTrack) {
	workers := e.cfg.Rip.EncodeWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(plan.Jobs) {
		workers = len(plan.Jobs)
	}

	var (
		mu        sync.Mutex
		fractions = make([]float64, len(plan.Jobs))
		errs      = make([]error, len(plan.Jobs))
	)

	reportProgress := func() {
		mu.Lock()
		var sum float64
		for _, f := range fractions {
			sum += f
		}
		fraction := sum / float64(len(fractions))
		mu.Unlock()
		overall := tracker.Update(progress.PhaseEncode, fraction)
		e.applyProgress(ctx, item, "Encoding", "Encoding tracks", overall)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				job := plan.Jobs[idx]
				req := ffmpeg.EncodeRequest{
					Source:   job.Source,
					Dest:     job.Dest,
					Bitrate:  item.Bitrate,
					Duration: job.Track.Duration(),
				}
				err := e.client.Encode(ctx, req, func(update ffmpeg.ProgressUpdate) {
					mu.Lock()
					if f := update.Percent / 100; f > fractions[idx] {
						fractions[idx] = f
					}
					mu.Unlock()
					reportProgress()
				})
				mu.Lock()
				errs[idx] = err
				if err == nil {
					fractions[idx] = 1
				}
				mu.Unlock()
				reportProgress()
			}
		}()
	}

dispatch:
	for idx := range plan.Jobs {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	var (
		outputs  []queue.OutputFile
		failures []queue.FailedTrack
	)
	for idx, job := range plan.Jobs {
		if errs[idx] != nil {
			failures = append(failures, queue.FailedTrack{Track: job.Track.Number, Error: errs[idx].Error()})
			continue
		}
		if _, err := os.Stat(job.Dest); err != nil {
			failures = append(failures, queue.FailedTrack{Track: job.Track.Number, Error: fmt.Sprintf("missing output: %v", err)})
			continue
		}
		outputs = append(outputs, queue.OutputFile{Track: job.Track.Number, Path: job.Dest})
	}
	return outputs, failures
}

func (e *Encoder) applyProgress(ctx context.Context, item *queue.Item, stageName, message string, percent float64) {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	logger := logging.WithContext(ctx, e.logger)
	updated := *item
	updated.SetProgress(stageName, message, percent)
	if err := e.store.Update(ctx, &updated); err != nil {
		logger.Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = updated
}
