package identification

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"bookrip/internal/config"
	"bookrip/internal/disc"
	"bookrip/internal/discidcache"
	"bookrip/internal/logging"
	"bookrip/internal/metadata"
	"bookrip/internal/notifications"
	"bookrip/internal/queue"
	"bookrip/internal/services"
	"bookrip/internal/services/discid"
	"bookrip/internal/services/ffmpeg"
	"bookrip/internal/services/musicbrainz"
	"bookrip/internal/stage"
)

// LabelReader resolves the filesystem label of a loaded disc.
type LabelReader func(ctx context.Context, device string, timeout time.Duration) (string, error)

// Identifier reads the disc table of contents and resolves book metadata.
type Identifier struct {
	store       *queue.Store
	cfg         *config.Config
	logger      *slog.Logger
	prober      ffmpeg.Prober
	discReader  discid.Reader
	lookuper    musicbrainz.Lookuper
	labelReader LabelReader
	notifier    notifications.Service
	cache       *discidcache.Cache
	driveWait   func(ctx context.Context, device string, timeout time.Duration) (disc.DriveStatus, error)
}

// SetDriveWait overrides the drive readiness poll (used in tests).
func (i *Identifier) SetDriveWait(wait func(ctx context.Context, device string, timeout time.Duration) (disc.DriveStatus, error)) {
	if wait != nil {
		i.driveWait = wait
	}
}

// SetReleaseCache installs a disc ID cache consulted before remote lookups.
func (i *Identifier) SetReleaseCache(cache *discidcache.Cache) {
	i.cache = cache
}

// NewIdentifier constructs the identification handler using default
// dependencies.
func NewIdentifier(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Identifier {
	client, err := ffmpeg.New("ffmpeg", "ffprobe", cfg.Rip.RipTimeout, cfg.Rip.ProbeTimeout)
	if err != nil {
		logger.Warn("ffmpeg client unavailable", logging.Error(err))
	}
	var lookuper musicbrainz.Lookuper
	if cfg.MusicBrainz.AutoLookup {
		mb, err := musicbrainz.New(cfg.MusicBrainz.BaseURL, cfg.MusicBrainz.UserAgent, cfg.MusicBrainz.TimeoutSeconds)
		if err != nil {
			logger.Warn("musicbrainz client unavailable", logging.Error(err))
		} else {
			lookuper = mb
		}
	}
	identifier := NewIdentifierWithDependencies(
		cfg, store, logger,
		client,
		discid.New(cfg.Rip.ProbeTimeout),
		lookuper,
		disc.ReadLabel,
		notifications.NewService(cfg),
	)
	identifier.SetReleaseCache(discidcache.NewCache(filepath.Join(cfg.Paths.LogDir, "discid_cache.json"), logger))
	return identifier
}

// NewIdentifierWithDependencies allows injecting all collaborators (used in
// tests).
func NewIdentifierWithDependencies(
	cfg *config.Config,
	store *queue.Store,
	logger *slog.Logger,
	prober ffmpeg.Prober,
	discReader discid.Reader,
	lookuper musicbrainz.Lookuper,
	labelReader LabelReader,
	notifier notifications.Service,
) *Identifier {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "identifier"))
	}
	return &Identifier{
		store:       store,
		cfg:         cfg,
		logger:      stageLogger,
		prober:      prober,
		discReader:  discReader,
		lookuper:    lookuper,
		labelReader: labelReader,
		notifier:    notifier,
		driveWait:   disc.WaitForReady,
	}
}

func (i *Identifier) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, i.logger)
	item.ProgressStage = "Identifying"
	item.ProgressMessage = "Reading disc"
	item.ErrorMessage = ""
	logger.Info("starting identification", logging.String("device", item.Device))
	return nil
}

func (i *Identifier) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, i.logger)

	status, err := i.driveWait(ctx, item.Device, time.Duration(i.cfg.Workflow.DriveReadyTimeout)*time.Second)
	if err != nil {
		return services.Wrap(
			services.ErrDriveNotReady, "identification", "wait for drive",
			"Drive did not report a readable disc; check the tray", err)
	}
	logger.Info("drive ready", logging.String("status", status.String()))

	tracks, err := i.prober.Probe(ctx, item.Device)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool, "identification", "probe toc",
			"Could not read the disc table of contents", err)
	}
	logger.Info("table of contents read", logging.Int("tracks", len(tracks)))

	label := i.readLabel(ctx, item.Device)
	snapshot := &metadata.Disc{
		Device: item.Device,
		Label:  label,
		Tracks: tracks,
	}

	if i.discReader != nil {
		result, err := i.discReader.Read(ctx, item.Device)
		if err != nil {
			// Disc ID feeds metadata lookup only; its absence degrades
			// identification but never blocks ripping.
			logger.Warn("disc id unavailable", logging.Error(err))
		} else {
			snapshot.DiscID = result.DiscID
			snapshot.TOC = result.TOC()
			item.DiscID = result.DiscID
		}
	}

	book, tracks := i.resolveMetadata(ctx, logger, snapshot, tracks)
	snapshot.Tracks = tracks

	if err := item.SetDisc(snapshot); err != nil {
		return services.Wrap(services.ErrConfiguration, "identification", "store disc snapshot", "Could not persist disc snapshot", err)
	}
	if err := item.SetMetadata(&queue.JobMetadata{Book: book, Tracks: tracks}); err != nil {
		return services.Wrap(services.ErrConfiguration, "identification", "store metadata", "Could not persist job metadata", err)
	}
	if title := strings.TrimSpace(book.Album); title != "" {
		item.DiscTitle = title
	} else if label != "" {
		item.DiscTitle = label
	}

	item.ProgressStage = "Identified"
	item.ProgressMessage = "Disc identified"
	logger.Info(
		"identification completed",
		logging.String("disc_title", item.DiscTitle),
		logging.String("disc_id", item.DiscID),
		logging.Int("tracks", len(tracks)),
	)

	if i.notifier != nil {
		if err := i.notifier.NotifyDiscDetected(ctx, item.DiscTitle); err != nil {
			logger.Warn("disc detected notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies identification dependencies.
func (i *Identifier) HealthCheck(ctx context.Context) stage.Health {
	const name = "identifier"
	if i.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(i.cfg.Rip.Device) == "" {
		return stage.Unhealthy(name, "optical drive not configured")
	}
	if i.prober == nil {
		return stage.Unhealthy(name, "ffprobe client unavailable")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return stage.Unhealthy(name, "ffprobe binary not found")
	}
	return stage.Healthy(name)
}

func (i *Identifier) readLabel(ctx context.Context, device string) string {
	if i.labelReader == nil {
		return ""
	}
	raw, err := i.labelReader(ctx, device, time.Duration(i.cfg.Rip.ProbeTimeout)*time.Second)
	if err != nil {
		return ""
	}
	return metadata.NormalizeLabel(raw)
}

func (i *Identifier) resolveMetadata(ctx context.Context, logger *slog.Logger, snapshot *metadata.Disc, tracks []metadata.Track) (metadata.Book, []metadata.Track) {
	book := metadata.Book{
		Title:       snapshot.Label,
		Album:       snapshot.Label,
		Author:      i.cfg.Tags.Author,
		Narrator:    i.cfg.Tags.Narrator,
		Genre:       i.cfg.Tags.Genre,
		DiscNumber:  1,
		TotalDiscs:  1,
		TotalTracks: len(tracks),
	}
	if book.Album == "" {
		book.Title = "Audiobook"
		book.Album = "Audiobook"
	}

	release := i.lookupRelease(ctx, logger, snapshot)
	if release == nil {
		return book, tracks
	}

	if title := strings.TrimSpace(release.Title); title != "" {
		book.Title = title
		book.Album = title
	}
	if artist := strings.TrimSpace(release.Artist); artist != "" {
		book.Author = artist
	}
	if release.Year > 0 {
		book.Year = release.Year
	}
	if release.DiscCount > 0 {
		book.TotalDiscs = release.DiscCount
	}
	if len(release.TrackTitles) == len(tracks) {
		for idx := range tracks {
			if title := strings.TrimSpace(release.TrackTitles[idx]); title != "" {
				tracks[idx].Title = title
			}
		}
	}
	return book, tracks
}

func (i *Identifier) lookupRelease(ctx context.Context, logger *slog.Logger, snapshot *metadata.Disc) *musicbrainz.Release {
	if i.lookuper == nil {
		return nil
	}

	if snapshot.DiscID != "" && i.cache != nil {
		if release, ok := i.cache.Lookup(snapshot.DiscID); ok {
			logger.Info("metadata resolved from disc id cache", logging.String("title", release.Title))
			return release
		}
	}
	if snapshot.TOC != "" {
		release, err := i.lookuper.LookupTOC(ctx, snapshot.TOC)
		if err == nil {
			logger.Info("metadata resolved from disc toc", logging.String("title", release.Title))
			if snapshot.DiscID != "" && i.cache != nil {
				if cacheErr := i.cache.Store(snapshot.DiscID, release); cacheErr != nil {
					logger.Warn("disc id cache write failed", logging.Error(cacheErr))
				}
			}
			return release
		}
		logger.Warn("disc toc lookup missed", logging.Error(err))
	}

	if snapshot.Label != "" {
		release, err := i.lookuper.SearchRelease(ctx, snapshot.Label, "")
		if err == nil {
			logger.Info("metadata resolved from label search", logging.String("title", release.Title))
			return release
		}
		logger.Warn("label search missed", logging.Error(err))
	}
	return nil
}
