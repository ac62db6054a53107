// Package daemonrun boots the bookrip daemon process: logger, queue store,
// workflow stages, lock-holding daemon, and IPC server. Both the standalone
// bookripd binary and the CLI's hidden daemon command call Run so the wiring
// stays in one place.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"bookrip/internal/config"
	"bookrip/internal/daemon"
	"bookrip/internal/encoding"
	"bookrip/internal/identification"
	"bookrip/internal/ipc"
	"bookrip/internal/logging"
	"bookrip/internal/queue"
	"bookrip/internal/ripping"
	"bookrip/internal/tagging"
	"bookrip/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// SocketPath overrides the control socket location derived from config.
	SocketPath string
}

// Run starts the daemon and blocks until ctx is cancelled or a termination
// signal arrives.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("configuration is required")
	}

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	manager := workflow.NewManager(cfg, store, logger)
	RegisterStages(manager, cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-signalCtx.Done()
	logger.Info("bookrip daemon shutting down")
	return nil
}

// RegisterStages wires the concrete pipeline stages into the workflow manager.
func RegisterStages(manager *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) {
	if manager == nil || cfg == nil {
		return
	}

	manager.ConfigureStages(workflow.StageSet{
		Identifier: identification.NewIdentifier(cfg, store, logger),
		Ripper:     ripping.NewRipper(cfg, store, logger),
		Encoder:    encoding.NewEncoder(cfg, store, logger),
		Tagger:     tagging.NewTagger(cfg, store, logger),
	})
}
