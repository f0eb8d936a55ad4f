package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/models"

	"github.com/jmoiron/sqlx"
)

const bookingSelect = `SELECT b.id, b.room_id, r.property_id, b.user_id, b.check_in, b.check_out, b.guests,
	b.status, b.total_nights, b.total_amount, b.guest_name, b.guest_email, b.guest_phone,
	b.special_requests, b.created_at, b.updated_at, b.version
	FROM bookings b JOIN rooms r ON r.id = b.room_id`

func normalizeDates(bookings ...*models.Booking) {
	for _, b := range bookings {
		b.CheckIn = models.DateOnly(b.CheckIn)
		b.CheckOut = models.DateOnly(b.CheckOut)
	}
}

func (s *Store) selectBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	var bookings []*models.Booking
	if err := s.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, err
	}
	normalizeDates(bookings...)
	return bookings, nil
}

func (s *Store) HasOverlappingBooking(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeBookingID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE room_id = $1 AND status IN ('pending', 'confirmed')
			AND check_in < $2 AND check_out > $3 AND id <> $4
		)`, roomID, models.DateOnly(checkOut), models.DateOnly(checkIn), excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return exists, nil
}

func (s *Store) GetActiveBookingsForRoom(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Booking, error) {
	bookings, err := s.selectBookings(ctx, bookingSelect+`
		WHERE b.room_id = $1 AND b.status IN ('pending', 'confirmed')
		AND b.check_in < $2 AND b.check_out > $3
		ORDER BY b.check_in ASC`, roomID, models.DateOnly(to), models.DateOnly(from))
	if err != nil {
		return nil, fmt.Errorf("failed to get room bookings: %w", err)
	}
	return bookings, nil
}

// lockRoom takes a row lock on the room so that writers for the same room
// queue behind each other instead of racing into the exclusion constraint.
func lockRoom(ctx context.Context, tx *sqlx.Tx, roomID int64) error {
	var id int64
	err := tx.GetContext(ctx, &id, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRoomNotFound
	}
	return err
}

func (s *Store) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockRoom(ctx, tx, booking.RoomID); err != nil {
		return fmt.Errorf("failed to lock room: %w", err)
	}

	now := time.Now().UTC()
	err = tx.GetContext(ctx, &booking.ID, `
		INSERT INTO bookings (
			room_id, user_id, check_in, check_out, guests, status, total_nights, total_amount,
			guest_name, guest_email, guest_phone, special_requests, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, 1)
		RETURNING id`,
		booking.RoomID, booking.UserID, models.DateOnly(booking.CheckIn), models.DateOnly(booking.CheckOut),
		booking.Guests, booking.Status, booking.TotalNights, booking.TotalAmount,
		booking.GuestName, booking.GuestEmail, booking.GuestPhone, booking.SpecialRequests, now)
	if err != nil {
		if mapped := mapError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", mapError(err))
	}

	normalizeDates(booking)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	err := s.db.GetContext(ctx, &b, bookingSelect+` WHERE b.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	normalizeDates(&b)
	return &b, nil
}

func (s *Store) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`, status, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", mapError(err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (s *Store) UpdateBookingDatesWithVersion(ctx context.Context, booking *models.Booking) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockRoom(ctx, tx, booking.RoomID); err != nil {
		return fmt.Errorf("failed to lock room: %w", err)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET check_in = $1, check_out = $2, guests = $3, total_nights = $4, total_amount = $5,
		    version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8 AND status = 'pending'`,
		models.DateOnly(booking.CheckIn), models.DateOnly(booking.CheckOut), booking.Guests,
		booking.TotalNights, booking.TotalAmount, now, booking.ID, booking.Version)
	if err != nil {
		if mapped := mapError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to update booking dates: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking change: %w", mapError(err))
	}

	booking.Version++
	booking.UpdatedAt = now
	return nil
}

func (s *Store) GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error) {
	bookings, err := s.selectBookings(ctx, bookingSelect+`
		WHERE b.user_id = $1 ORDER BY b.check_in DESC, b.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

func (s *Store) GetVendorBookings(ctx context.Context, ownerID string, status models.BookingStatus) ([]*models.Booking, error) {
	bookings, err := s.selectBookings(ctx, bookingSelect+`
		JOIN properties p ON p.id = r.property_id
		WHERE p.owner_id = $1 AND ($2::text = '' OR b.status = $2::text)
		ORDER BY b.check_in ASC, b.id ASC`, ownerID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor bookings: %w", err)
	}
	return bookings, nil
}

func (s *Store) GetVendorStats(ctx context.Context, ownerID string, since time.Time) (*models.VendorStats, error) {
	stats := &models.VendorStats{OwnerID: ownerID, Since: since}
	row := s.db.QueryRowxContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE b.status IN ('confirmed', 'completed')),
			COUNT(*) FILTER (WHERE b.status = 'pending'),
			COALESCE(SUM(b.total_amount) FILTER (WHERE b.status IN ('confirmed', 'completed')), 0)::BIGINT
		FROM bookings b
		JOIN rooms r ON r.id = b.room_id
		JOIN properties p ON p.id = r.property_id
		WHERE p.owner_id = $1 AND b.created_at >= $2`, ownerID, since.UTC())
	if err := row.Scan(&stats.ConfirmedBookings, &stats.PendingBookings, &stats.Revenue); err != nil {
		return nil, fmt.Errorf("failed to get vendor stats: %w", err)
	}
	return stats, nil
}

func (s *Store) GetCompletableBookings(ctx context.Context, today time.Time, limit int) ([]*models.Booking, error) {
	bookings, err := s.selectBookings(ctx, bookingSelect+`
		WHERE b.status = 'confirmed' AND b.check_out <= $1
		ORDER BY b.check_out ASC, b.id ASC LIMIT $2`, models.DateOnly(today), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get completable bookings: %w", err)
	}
	return bookings, nil
}
