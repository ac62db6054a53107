package daemon

import (
	"context"
	"strings"
	"sync"

	"log/slog"

	"github.com/pilebones/go-udev/netlink"

	"bookrip/internal/config"
	"bookrip/internal/logging"
)

// discMonitor listens for udev netlink events and queues a rip job when an
// audio CD is inserted into the configured drive.
type discMonitor struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler func(ctx context.Context, device string) (*DiscDetectedResult, error)
	device  string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newDiscMonitor(cfg *config.Config, logger *slog.Logger, handler func(ctx context.Context, device string) (*DiscDetectedResult, error)) *discMonitor {
	device := strings.TrimSpace(cfg.Rip.Device)
	if device == "" {
		return nil
	}
	return &discMonitor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "disc-monitor"),
		handler: handler,
		device:  device,
	}
}

// Start begins listening for udev netlink events. A connection failure is
// non-fatal: manual rip requests keep working without it.
func (m *discMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; automatic disc detection unavailable",
			logging.Error(err),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("disc monitor started", logging.String("device", m.device))
	return nil
}

// Stop shuts down the netlink monitor.
func (m *discMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.logger.Info("disc monitor stopped")
}

func (m *discMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, discInsertMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// discInsertMatcher matches block-device media change events from optical
// drives: SUBSYSTEM=block, ID_CDROM=1, ID_CDROM_MEDIA=1, ACTION=change|add.
func discInsertMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})
	return rules
}

func (m *discMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := deviceNameFromEvent(uevent)
	if devname == "" || devname != m.device {
		return
	}

	m.logger.Info("disc media detected",
		logging.String("device", devname),
		logging.String("action", string(uevent.Action)),
	)

	if m.handler == nil {
		return
	}
	result, err := m.handler(ctx, devname)
	if err != nil {
		m.logger.Warn("disc detection failed", logging.Error(err), logging.String("device", devname))
		return
	}
	if result != nil && result.Handled {
		m.logger.Info("disc queued from insert event",
			logging.String("device", devname),
			logging.Int64("item_id", result.ItemID),
		)
	}
}

func deviceNameFromEvent(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/dev/") {
			devname = "/dev/" + devname
		}
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
