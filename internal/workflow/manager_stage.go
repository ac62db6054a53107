package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"bookrip/internal/logging"
	"bookrip/internal/queue"
	"bookrip/internal/services"
)

func (m *Manager) processItem(ctx context.Context, item *queue.Item) error {
	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	stg, ok := m.stageForStatus(item.Status)
	if !ok {
		logger.Warn("no stage configured for status", logging.String("status", string(item.Status)))
		m.waitOrShutdown(ctx, m.pollInterval)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(services.WithStage(services.WithItemID(ctx, item.ID), stg.name), requestID)
	stageLogger := logging.WithContext(stageCtx, logger)

	if err := m.transitionToProcessing(stageCtx, stg, item); err != nil {
		stageLogger.Error("failed to transition job to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("disc_title", strings.TrimSpace(item.DiscTitle)),
	)

	if err := stg.handler.Prepare(ctx, item); err != nil {
		m.handleStageFailure(ctx, stg.name, item, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execCtx, cancelExec := context.WithCancel(ctx)
	m.registerItemCancel(item.ID, cancelExec)
	execErr := stg.handler.Execute(execCtx, item)
	m.clearItemCancel(item.ID)
	cancelExec()

	if execErr != nil {
		switch {
		case errors.Is(execErr, context.Canceled) && ctx.Err() != nil:
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		case errors.Is(execErr, context.Canceled):
			item.SetCancelled()
			if err := m.store.Update(ctx, item); err != nil {
				stageLogger.Error("failed to persist cancellation", logging.Error(err))
			}
			m.setLastItem(item)
			stageLogger.Info("job cancelled by user", logging.Int64("item_id", item.ID))
			return nil
		case services.Degraded(execErr):
			stageLogger.Warn("stage degraded, continuing", logging.Error(execErr))
		default:
			m.handleStageFailure(ctx, stg.name, item, execErr)
			m.setLastError(execErr)
			return execErr
		}
	}

	if item.Status == stg.processingStatus || item.Status == "" {
		item.Status = stg.doneStatus
	}
	if item.Status == queue.StatusCompleted {
		if item.ProgressPercent < 100 {
			item.ProgressPercent = 100
		}
		item.ProgressStage = "Completed"
		if strings.TrimSpace(item.ProgressMessage) == "" {
			item.ProgressMessage = "Completed"
		}
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info(
		"stage completed",
		logging.String("next_status", string(item.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastItem(item)
	return nil
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, item *queue.Item) error {
	item.Status = stg.processingStatus
	if item.ProgressStage == "" {
		item.ProgressStage = stageLabel(stg.processingStatus)
	}
	item.ProgressMessage = fmt.Sprintf("%s started", stageLabel(stg.processingStatus))
	item.ErrorMessage = ""
	if err := m.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastItem(item)
	return nil
}

func stageLabel(status queue.Status) string {
	switch status {
	case queue.StatusIdentifying:
		return "Identifying"
	case queue.StatusRipping:
		return "Ripping"
	case queue.StatusEncoding:
		return "Encoding"
	case queue.StatusTagging:
		return "Tagging"
	case queue.StatusCompleted:
		return "Completed"
	default:
		return string(status)
	}
}
