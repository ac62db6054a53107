package workflow

import (
	"context"
	"errors"
	"time"

	"bookrip/internal/logging"
)

// Start begins background queue processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("failed to reset stuck jobs", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("rolled back interrupted jobs", logging.Int64("count", reset))
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the manager is processing the queue.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := m.store.NextForStatuses(ctx, m.statusOrder...)
		if err != nil {
			m.setLastError(err)
			logger.Error("failed to fetch next queue item", logging.Error(err))
			m.waitOrShutdown(ctx, m.retryInterval)
			continue
		}
		if item == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.processItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return
			}
		}
	}
}

func (m *Manager) waitOrShutdown(ctx context.Context, wait time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
