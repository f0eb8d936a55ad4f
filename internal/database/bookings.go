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

const bookingColumns = `b.id, b.room_id, r.property_id, b.user_id, b.check_in, b.check_out, b.guests,
	b.status, b.total_nights, b.total_amount, b.guest_name, b.guest_email, b.guest_phone,
	b.special_requests, b.created_at, b.updated_at, b.version`

const bookingFrom = ` FROM bookings b JOIN rooms r ON r.id = b.room_id`

// overlapQuery counts active bookings of a room intersecting [check_in, check_out).
const overlapQuery = `SELECT COUNT(*) FROM bookings
	WHERE room_id = ? AND status IN ('pending', 'confirmed')
	AND check_in < ? AND check_out > ? AND id != ?`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var checkIn, checkOut string
	err := row.Scan(
		&b.ID, &b.RoomID, &b.PropertyID, &b.UserID, &checkIn, &checkOut, &b.Guests,
		&b.Status, &b.TotalNights, &b.TotalAmount, &b.GuestName, &b.GuestEmail, &b.GuestPhone,
		&b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	if b.CheckIn, err = time.Parse(models.DateLayout, checkIn); err != nil {
		return nil, fmt.Errorf("failed to parse check_in %s: %w", checkIn, err)
	}
	if b.CheckOut, err = time.Parse(models.DateLayout, checkOut); err != nil {
		return nil, fmt.Errorf("failed to parse check_out %s: %w", checkOut, err)
	}
	return &b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func formatDate(t time.Time) string {
	return models.DateOnly(t).Format(models.DateLayout)
}

func (db *DB) HasOverlappingBooking(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeBookingID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, overlapQuery, roomID, formatDate(checkOut), formatDate(checkIn), excludeBookingID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return count > 0, nil
}

// GetActiveBookingsForRoom returns pending and confirmed bookings intersecting [from, to).
func (db *DB) GetActiveBookingsForRoom(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + `
              WHERE b.room_id = ? AND b.status IN ('pending', 'confirmed')
              AND b.check_in < ? AND b.check_out > ?
              ORDER BY b.check_in ASC`
	bookings, err := db.queryBookings(ctx, query, roomID, formatDate(to), formatDate(from))
	if err != nil {
		return nil, fmt.Errorf("failed to get room bookings: %w", err)
	}
	return bookings, nil
}

// CreateBookingWithLock re-checks the room for overlaps and inserts the booking
// in one immediate transaction. It returns domain.ErrRoomUnavailable on conflict.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var conflicts int
	err = tx.QueryRowContext(ctx, overlapQuery,
		booking.RoomID, formatDate(booking.CheckOut), formatDate(booking.CheckIn), 0).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if conflicts > 0 {
		return domain.ErrRoomUnavailable
	}

	queryInsert := `INSERT INTO bookings (
				room_id, user_id, check_in, check_out, guests, status, total_nights, total_amount,
				guest_name, guest_email, guest_phone, special_requests, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.RoomID,
		booking.UserID,
		formatDate(booking.CheckIn),
		formatDate(booking.CheckOut),
		booking.Guests,
		booking.Status,
		booking.TotalNights,
		booking.TotalAmount,
		booking.GuestName,
		booking.GuestEmail,
		booking.GuestPhone,
		booking.SpecialRequests,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.CheckIn = models.DateOnly(booking.CheckIn)
	booking.CheckOut = models.DateOnly(booking.CheckOut)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// UpdateBookingDatesWithVersion rewrites the stay of a pending booking after
// re-checking overlaps with every other active booking of the room.
func (db *DB) UpdateBookingDatesWithVersion(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var conflicts int
	err = tx.QueryRowContext(ctx, overlapQuery,
		booking.RoomID, formatDate(booking.CheckOut), formatDate(booking.CheckIn), booking.ID).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if conflicts > 0 {
		return domain.ErrRoomUnavailable
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET check_in = ?, check_out = ?, guests = ?, total_nights = ?, total_amount = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND status = 'pending'`,
		formatDate(booking.CheckIn), formatDate(booking.CheckOut), booking.Guests,
		booking.TotalNights, booking.TotalAmount, now, booking.ID, booking.Version)
	if err != nil {
		return fmt.Errorf("failed to update booking dates: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking change: %w", err)
	}

	booking.Version++
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.user_id = ? ORDER BY b.check_in DESC, b.id DESC`
	bookings, err := db.queryBookings(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

// GetVendorBookings lists bookings on properties owned by ownerID; an empty
// status returns every status.
func (db *DB) GetVendorBookings(ctx context.Context, ownerID string, status models.BookingStatus) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + `
              JOIN properties p ON p.id = r.property_id
              WHERE p.owner_id = ? AND (? = '' OR b.status = ?)
              ORDER BY b.check_in ASC, b.id ASC`
	bookings, err := db.queryBookings(ctx, query, ownerID, status, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) GetVendorStats(ctx context.Context, ownerID string, since time.Time) (*models.VendorStats, error) {
	query := `SELECT
                COALESCE(SUM(CASE WHEN b.status IN ('confirmed', 'completed') THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN b.status = 'pending' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN b.status IN ('confirmed', 'completed') THEN b.total_amount ELSE 0 END), 0)
              FROM bookings b
              JOIN rooms r ON r.id = b.room_id
              JOIN properties p ON p.id = r.property_id
              WHERE p.owner_id = ? AND b.created_at >= ?`

	stats := &models.VendorStats{OwnerID: ownerID, Since: since}
	err := db.QueryRowContext(ctx, query, ownerID, since.UTC()).Scan(
		&stats.ConfirmedBookings, &stats.PendingBookings, &stats.Revenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor stats: %w", err)
	}
	return stats, nil
}

// GetCompletableBookings returns confirmed bookings whose stay ended on or before today.
func (db *DB) GetCompletableBookings(ctx context.Context, today time.Time, limit int) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + `
              WHERE b.status = 'confirmed' AND b.check_out <= ?
              ORDER BY b.check_out ASC, b.id ASC LIMIT ?`
	bookings, err := db.queryBookings(ctx, query, formatDate(today), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get completable bookings: %w", err)
	}
	return bookings, nil
}
