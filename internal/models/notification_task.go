package models

import "time"

// NotificationTask is a persisted outbox entry for a booking event.
type NotificationTask struct {
	ID          int64      `json:"id" db:"id"`
	EventType   string     `json:"event_type" db:"event_type"`
	BookingID   int64      `json:"booking_id" db:"booking_id"`
	Payload     string     `json:"payload" db:"payload"`
	Status      string     `json:"status" db:"status"`
	RetryCount  int        `json:"retry_count" db:"retry_count"`
	LastError   *string    `json:"last_error" db:"last_error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time `json:"processed_at" db:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at" db:"next_retry_at"`
}
