package daemon

import (
	"context"
	"fmt"
	"strings"

	"bookrip/internal/config"
	"bookrip/internal/disc"
	"bookrip/internal/logging"
	"bookrip/internal/queue"
)

// DiscDetectedResult reports the outcome of a disc detection request.
type DiscDetectedResult struct {
	Handled bool
	ItemID  int64
	Message string
}

// RipOverrides carries per-job settings that replace the configured defaults.
// Zero values leave the defaults in place.
type RipOverrides struct {
	Mode    string
	Bitrate int
}

// DetectDisc checks the drive for an audio CD and enqueues a rip job when one
// is present. It is shared by the netlink monitor and manual rip requests.
func (d *Daemon) DetectDisc(ctx context.Context, device string, overrides RipOverrides) (*DiscDetectedResult, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		device = d.cfg.Rip.Device
	}

	mode := d.cfg.Rip.Mode
	if m := strings.ToLower(strings.TrimSpace(overrides.Mode)); m != "" {
		if m != config.ModeCombined && m != config.ModeSplit {
			return nil, fmt.Errorf("unknown output mode %q", overrides.Mode)
		}
		mode = m
	}
	bitrate := d.cfg.Rip.Bitrate
	if overrides.Bitrate != 0 {
		if overrides.Bitrate < config.MinBitrate || overrides.Bitrate > config.MaxBitrate {
			return nil, fmt.Errorf("bitrate %d outside %d-%d kbps", overrides.Bitrate, config.MinBitrate, config.MaxBitrate)
		}
		bitrate = overrides.Bitrate
	}

	status, err := d.driveProbe(device)
	if err != nil {
		return nil, fmt.Errorf("check drive %s: %w", device, err)
	}
	if status != disc.DriveStatusDiscOK {
		return &DiscDetectedResult{Message: fmt.Sprintf("drive %s: %s", device, status)}, nil
	}

	active, err := d.activeJobForDevice(ctx, device)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return &DiscDetectedResult{
			ItemID:  active.ID,
			Message: fmt.Sprintf("job %d already queued for %s", active.ID, device),
		}, nil
	}

	item, err := d.store.NewDisc(ctx, device, "", mode, bitrate, d.cfg.Paths.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("enqueue disc: %w", err)
	}
	d.logger.Info("disc queued",
		logging.Int64("item_id", item.ID),
		logging.String("device", device),
	)
	return &DiscDetectedResult{Handled: true, ItemID: item.ID, Message: "disc queued"}, nil
}

func (d *Daemon) activeJobForDevice(ctx context.Context, device string) (*queue.Item, error) {
	items, err := d.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	for _, item := range items {
		if item.Device == device && !queue.IsTerminal(item.Status) {
			return item, nil
		}
	}
	return nil, nil
}
