package workflow

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"bookrip/internal/config"
	"bookrip/internal/notifications"
	"bookrip/internal/queue"
	"bookrip/internal/stage"
)

// StageSet bundles the concrete pipeline handlers the manager orchestrates.
type StageSet struct {
	Identifier stage.Handler
	Ripper     stage.Handler
	Encoder    stage.Handler
	Tagger     stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	logger        *slog.Logger
	notifier      notifications.Service
	pollInterval  time.Duration
	retryInterval time.Duration

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	statusOrder  []queue.Status

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastErr     error
	lastItem    *queue.Item
	itemCancels map[int64]context.CancelFunc
}

// NewManager constructs a workflow manager with default dependencies.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logger,
		notifier:      notifier,
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		itemCancels:   make(map[int64]context.CancelFunc),
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	stages := make([]pipelineStage, 0, 4)
	if set.Identifier != nil {
		stages = append(stages, pipelineStage{
			name:             "identifier",
			handler:          set.Identifier,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusIdentifying,
			doneStatus:       queue.StatusIdentified,
		})
	}
	if set.Ripper != nil {
		stages = append(stages, pipelineStage{
			name:             "ripper",
			handler:          set.Ripper,
			startStatus:      queue.StatusIdentified,
			processingStatus: queue.StatusRipping,
			doneStatus:       queue.StatusRipped,
		})
	}
	if set.Encoder != nil {
		stages = append(stages, pipelineStage{
			name:             "encoder",
			handler:          set.Encoder,
			startStatus:      queue.StatusRipped,
			processingStatus: queue.StatusEncoding,
			doneStatus:       queue.StatusEncoded,
		})
	}
	if set.Tagger != nil {
		stages = append(stages, pipelineStage{
			name:             "tagger",
			handler:          set.Tagger,
			startStatus:      queue.StatusEncoded,
			processingStatus: queue.StatusTagging,
			doneStatus:       queue.StatusCompleted,
		})
	}

	byStart := make(map[queue.Status]pipelineStage, len(stages))
	order := make([]queue.Status, 0, len(stages))
	for _, stg := range stages {
		byStart[stg.startStatus] = stg
		order = append(order, stg.startStatus)
	}

	m.mu.Lock()
	m.stages = stages
	m.stageByStart = byStart
	m.statusOrder = order
	m.mu.Unlock()
}

func (m *Manager) stageForStatus(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}

func (m *Manager) registerItemCancel(id int64, cancel context.CancelFunc) {
	m.mu.Lock()
	m.itemCancels[id] = cancel
	m.mu.Unlock()
}

func (m *Manager) clearItemCancel(id int64) {
	m.mu.Lock()
	delete(m.itemCancels, id)
	m.mu.Unlock()
}

// Cancel stops an in-flight job or marks a queued one cancelled. It reports
// whether a job was affected.
func (m *Manager) Cancel(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	cancel, active := m.itemCancels[id]
	m.mu.Unlock()
	if active {
		cancel()
		return true, nil
	}
	return m.store.MarkCancelled(ctx, id)
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item != nil {
		snapshot := *item
		m.lastItem = &snapshot
	} else {
		m.lastItem = nil
	}
	m.mu.Unlock()
}
