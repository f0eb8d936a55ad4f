package database

import (
	"context"
	"fmt"
	"time"

	"roomstay/internal/models"
)

// claimableWhere matches tasks that are due and either waiting or held by an
// expired lease. Both placeholders take the current time.
const claimableWhere = `(status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?))
              OR (status = 'processing' AND next_retry_at <= ?)`

func (db *DB) CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error {
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `
		INSERT INTO notification_queue (event_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.EventType, task.BookingID, task.Payload, task.Status, task.RetryCount, task.LastError, now, task.NextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to create notification task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// ClaimNotificationTasks leases up to limit due tasks, oldest first. The
// select and the status change share one immediate transaction, so two
// pollers never receive the same task.
func (db *DB) ClaimNotificationTasks(ctx context.Context, limit int, leaseUntil time.Time) ([]models.NotificationTask, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	rows, err := tx.QueryContext(ctx, `
		SELECT id, event_type, booking_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
		FROM notification_queue
		WHERE `+claimableWhere+`
		ORDER BY created_at ASC, id ASC LIMIT ?`, now, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select notification tasks: %w", err)
	}
	var tasks []models.NotificationTask
	for rows.Next() {
		var t models.NotificationTask
		if err := rows.Scan(&t.ID, &t.EventType, &t.BookingID, &t.Payload, &t.Status, &t.RetryCount,
			&t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan notification task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lease := leaseUntil.UTC()
	for i := range tasks {
		if _, err := tx.ExecContext(ctx,
			`UPDATE notification_queue SET status = ?, next_retry_at = ? WHERE id = ?`,
			models.TaskProcessing, lease, tasks[i].ID); err != nil {
			return nil, fmt.Errorf("failed to claim notification task %d: %w", tasks[i].ID, err)
		}
		tasks[i].Status = models.TaskProcessing
		tasks[i].NextRetryAt = &lease
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return tasks, nil
}

// ClaimNotificationTask leases one task handed over outside the store. It
// reports false when the task is already leased, finished or not yet due.
func (db *DB) ClaimNotificationTask(ctx context.Context, id int64, leaseUntil time.Time) (bool, error) {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `
		UPDATE notification_queue SET status = ?, next_retry_at = ?
		WHERE id = ? AND (`+claimableWhere+`)`,
		models.TaskProcessing, leaseUntil.UTC(), id, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification task %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n == 1, nil
}

// UpdateNotificationTaskStatus records a delivery outcome and releases the lease.
func (db *DB) UpdateNotificationTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}

	var err error
	switch status {
	case models.TaskRetry:
		_, err = db.ExecContext(ctx, `
			UPDATE notification_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1
			WHERE id = ?`, status, lastError, nextRetryAt, id)
	case models.TaskCompleted, models.TaskFailed:
		_, err = db.ExecContext(ctx, `
			UPDATE notification_queue SET status = ?, last_error = ?, next_retry_at = NULL, processed_at = ?
			WHERE id = ?`, status, lastError, time.Now().UTC(), id)
	default:
		return fmt.Errorf("unsupported notification task status %q", status)
	}
	if err != nil {
		return fmt.Errorf("failed to update notification task status: %w", err)
	}
	return nil
}
