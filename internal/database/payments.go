package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/models"
)

// CompletePayment records a successful charge and confirms the booking in one
// transaction. The booking must still be pending at bookingVersion.
func (db *DB) CompletePayment(ctx context.Context, payment *models.Payment, bookingVersion int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND status = 'pending'`,
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
	result, err = tx.ExecContext(ctx, `
		INSERT INTO payments (booking_id, method, amount, status, transaction_id, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.BookingID, payment.Method, payment.Amount, payment.Status, payment.TransactionID, payment.PaidAt, now)
	if isUniqueViolation(err) {
		return domain.ErrConcurrentModification
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}

	payment.ID = id
	payment.CreatedAt = now
	return nil
}

func (db *DB) GetPaymentByBooking(ctx context.Context, bookingID int64) (*models.Payment, error) {
	var p models.Payment
	var paidAt sql.NullTime
	err := db.QueryRowContext(ctx, `
		SELECT id, booking_id, method, amount, status, transaction_id, paid_at, created_at
		FROM payments WHERE booking_id = ?`, bookingID).Scan(
		&p.ID, &p.BookingID, &p.Method, &p.Amount, &p.Status, &p.TransactionID, &paidAt, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return &p, nil
}
