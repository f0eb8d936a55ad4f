package postgres

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"roomstay/internal/models"
)

const claimableWhere = `(status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= $1))
	OR (status = 'processing' AND next_retry_at <= $1)`

func (s *Store) CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error {
	now := time.Now().UTC()
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	err := s.db.GetContext(ctx, &task.ID, `
		INSERT INTO notification_queue (event_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		task.EventType, task.BookingID, task.Payload, task.Status, task.RetryCount, task.LastError, now, task.NextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to create notification task: %w", err)
	}
	task.CreatedAt = now
	return nil
}

// ClaimNotificationTasks leases up to limit due tasks. SKIP LOCKED lets
// several workers poll the same queue without waiting on each other.
func (s *Store) ClaimNotificationTasks(ctx context.Context, limit int, leaseUntil time.Time) ([]models.NotificationTask, error) {
	var tasks []models.NotificationTask
	err := s.db.SelectContext(ctx, &tasks, `
		UPDATE notification_queue SET status = $2, next_retry_at = $3
		WHERE id IN (
			SELECT id FROM notification_queue
			WHERE `+claimableWhere+`
			ORDER BY created_at ASC, id ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_type, booking_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at`,
		time.Now().UTC(), models.TaskProcessing, leaseUntil.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim notification tasks: %w", err)
	}
	slices.SortFunc(tasks, func(a, b models.NotificationTask) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

func (s *Store) ClaimNotificationTask(ctx context.Context, id int64, leaseUntil time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notification_queue SET status = $2, next_retry_at = $3
		WHERE id = $4 AND (`+claimableWhere+`)`,
		time.Now().UTC(), models.TaskProcessing, leaseUntil.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification task %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n == 1, nil
}

func (s *Store) UpdateNotificationTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}

	var err error
	switch status {
	case models.TaskRetry:
		_, err = s.db.ExecContext(ctx, `
			UPDATE notification_queue SET status = $1, last_error = $2, next_retry_at = $3, retry_count = retry_count + 1
			WHERE id = $4`, status, lastError, nextRetryAt, id)
	case models.TaskCompleted, models.TaskFailed:
		_, err = s.db.ExecContext(ctx, `
			UPDATE notification_queue SET status = $1, last_error = $2, next_retry_at = NULL, processed_at = $3
			WHERE id = $4`, status, lastError, time.Now().UTC(), id)
	default:
		return fmt.Errorf("unsupported notification task status %q", status)
	}
	if err != nil {
		return fmt.Errorf("failed to update notification task status: %w", err)
	}
	return nil
}
