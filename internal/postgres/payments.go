package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/models"
)

func (s *Store) CompletePayment(ctx context.Context, payment *models.Payment, bookingVersion int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE bookings SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4 AND status = 'pending'`,
		models.StatusConfirmed, now, payment.BookingID, bookingVersion)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentModification
	}

	if payment.PaidAt == nil {
		payment.PaidAt = &now
	}
	err = tx.GetContext(ctx, &payment.ID, `
		INSERT INTO payments (booking_id, method, amount, status, transaction_id, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		payment.BookingID, payment.Method, payment.Amount, payment.Status, payment.TransactionID, payment.PaidAt, now)
	if err != nil {
		if mapped := mapError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}
	payment.CreatedAt = now
	return nil
}

func (s *Store) GetPaymentByBooking(ctx context.Context, bookingID int64) (*models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p, `
		SELECT id, booking_id, method, amount, status, transaction_id, paid_at, created_at
		FROM payments WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}
