package queue

import (
	"context"
	"fmt"
	"time"
)

// ResetStuckProcessing resets jobs in processing states back to the start of
// their current stage. Called once at daemon startup: a job found mid-stage
// means the previous daemon died while working on it.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE rip_jobs
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             progress_stage = 'Reset from stuck processing',
             progress_message = NULL, updated_at = ?
         WHERE status IN (?, ?, ?, ?)`,
		StatusIdentifying, stageRollbacks[StatusIdentifying],
		StatusRipping, stageRollbacks[StatusRipping],
		StatusEncoding, stageRollbacks[StatusEncoding],
		StatusTagging, stageRollbacks[StatusTagging],
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusIdentifying,
		StatusRipping,
		StatusEncoding,
		StatusTagging,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// MarkCancelled transitions a job to cancelled. Jobs already in a terminal
// state are left untouched.
func (s *Store) MarkCancelled(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE rip_jobs
        SET status = ?, error_message = ?, progress_stage = 'Cancelled',
            progress_message = ?, updated_at = ?
        WHERE id = ? AND status NOT IN (?, ?, ?)`,
		StatusCancelled,
		UserCancelMessage,
		UserCancelMessage,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusCompleted,
		StatusFailed,
		StatusCancelled,
	)
	if err != nil {
		return false, fmt.Errorf("cancel item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RetryFailed moves failed jobs back to pending for reprocessing.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE rip_jobs
            SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
                progress_message = NULL, error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusPending,
			time.Now().UTC().Format(time.RFC3339Nano),
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed items: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE rip_jobs
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected items: %w", err)
	}
	return res.RowsAffected()
}

// HealthStatus summarizes queue state for status reporting.
type HealthStatus struct {
	Total     int
	ByStatus  map[Status]int
	Failed    int
	Cancelled int
}

// Health reports per-status counts across the queue.
func (s *Store) Health(ctx context.Context) (HealthStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM rip_jobs GROUP BY status`)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("queue health: %w", err)
	}
	defer rows.Close()

	health := HealthStatus{ByStatus: make(map[Status]int)}
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return HealthStatus{}, err
		}
		status := Status(statusStr)
		health.ByStatus[status] = count
		health.Total += count
		switch status {
		case StatusFailed:
			health.Failed = count
		case StatusCancelled:
			health.Cancelled = count
		}
	}
	return health, rows.Err()
}
