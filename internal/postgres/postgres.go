// Package postgres is the PostgreSQL booking store. Overlap safety for
// concurrent writers is enforced by an exclusion constraint on the room and
// stay range, so it holds across processes sharing the database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomstay/internal/config"
	"roomstay/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const (
	sqlStateUniqueViolation    = "23505"
	sqlStateExclusionViolation = "23P01"
)

type Store struct {
	db     *sqlx.DB
	logger *zerolog.Logger
}

func New(ctx context.Context, cfg config.PostgresConfig, logger *zerolog.Logger) (*Store, error) {
	return Open(ctx, cfg.DSN(), cfg.MaxConnections, logger)
}

// Open connects with a raw DSN and applies the schema.
func Open(ctx context.Context, dsn string, maxConns int, logger *zerolog.Logger) (*Store, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns / 2)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info().Msg("connected to postgres")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`CREATE TABLE IF NOT EXISTS properties (
            id BIGINT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            name TEXT NOT NULL,
            property_type TEXT NOT NULL DEFAULT 'hotel',
            city TEXT NOT NULL DEFAULT '',
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS rooms (
            id BIGINT PRIMARY KEY,
            property_id BIGINT NOT NULL REFERENCES properties(id),
            room_type TEXT NOT NULL,
            name TEXT NOT NULL,
            price_per_night BIGINT NOT NULL,
            capacity INTEGER NOT NULL CHECK (capacity > 0),
            is_available BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id BIGSERIAL PRIMARY KEY,
            room_id BIGINT NOT NULL REFERENCES rooms(id),
            user_id TEXT NOT NULL,
            check_in DATE NOT NULL,
            check_out DATE NOT NULL,
            guests INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            total_nights INTEGER NOT NULL,
            total_amount BIGINT NOT NULL,
            guest_name TEXT NOT NULL DEFAULT '',
            guest_email TEXT NOT NULL DEFAULT '',
            guest_phone TEXT NOT NULL DEFAULT '',
            special_requests TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            version BIGINT NOT NULL DEFAULT 1,
            CHECK (check_in < check_out),
            CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
                room_id WITH =,
                daterange(check_in, check_out, '[)') WITH &&
            ) WHERE (status IN ('pending', 'confirmed'))
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id BIGSERIAL PRIMARY KEY,
            booking_id BIGINT NOT NULL UNIQUE REFERENCES bookings(id),
            method TEXT NOT NULL,
            amount BIGINT NOT NULL,
            status TEXT NOT NULL,
            transaction_id TEXT NOT NULL,
            paid_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS notification_queue (
            id BIGSERIAL PRIMARY KEY,
            event_type TEXT NOT NULL,
            booking_id BIGINT NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at TIMESTAMPTZ NOT NULL,
            processed_at TIMESTAMPTZ,
            next_retry_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_property_type ON rooms(property_id, room_type)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status_checkout ON bookings(status, check_out)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_queue_status ON notification_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// mapError translates constraint violations into domain errors.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case sqlStateExclusionViolation:
		return domain.ErrRoomUnavailable
	case sqlStateUniqueViolation:
		return domain.ErrConcurrentModification
	}
	return err
}

var _ domain.Store = (*Store)(nil)
