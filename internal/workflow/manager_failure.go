package workflow

import (
	"context"
	"errors"
	"strings"

	"bookrip/internal/logging"
	"bookrip/internal/queue"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)

	message := failureMessage(stageName, stageErr)
	item.SetFailed(message)

	logger.Error("stage failed",
		logging.String("stage", stageName),
		logging.Int64("item_id", item.ID),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	m.setLastItem(item)

	if m.notifier != nil {
		label := stageName
		if title := strings.TrimSpace(item.DiscTitle); title != "" {
			label = stageName + ": " + title
		}
		if err := m.notifier.NotifyError(ctx, stageErr, label); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
}

func failureMessage(stageName string, stageErr error) string {
	if stageErr == nil {
		if stageName != "" {
			return stageName + " failed without error detail"
		}
		return "workflow failed without error detail"
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = stageName + " failed"
	}
	return message
}
