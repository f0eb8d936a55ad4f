package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"roomstay/internal/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the SQLite booking store.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// dsnParams makes every transaction take the write lock at BEGIN so that the
// overlap check and the insert of CreateBookingWithLock cannot interleave with
// another writer. Waiting writers block up to busy_timeout instead of failing.
const dsnParams = "?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL"

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

// Path returns the database file path without connection parameters.
func (db *DB) Path() string {
	return db.path
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS properties (
            id INTEGER PRIMARY KEY,
            owner_id TEXT NOT NULL,
            name TEXT NOT NULL,
            property_type TEXT NOT NULL DEFAULT 'hotel',
            city TEXT NOT NULL DEFAULT '',
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS rooms (
            id INTEGER PRIMARY KEY,
            property_id INTEGER NOT NULL REFERENCES properties(id),
            room_type TEXT NOT NULL,
            name TEXT NOT NULL,
            price_per_night INTEGER NOT NULL,
            capacity INTEGER NOT NULL CHECK (capacity > 0),
            is_available BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		// check_in/check_out are TEXT YYYY-MM-DD so range predicates compare lexically
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            room_id INTEGER NOT NULL REFERENCES rooms(id),
            user_id TEXT NOT NULL,
            check_in TEXT NOT NULL,
            check_out TEXT NOT NULL,
            guests INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            total_nights INTEGER NOT NULL,
            total_amount INTEGER NOT NULL,
            guest_name TEXT NOT NULL DEFAULT '',
            guest_email TEXT NOT NULL DEFAULT '',
            guest_phone TEXT NOT NULL DEFAULT '',
            special_requests TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1,
            CHECK (check_in < check_out)
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL UNIQUE REFERENCES bookings(id),
            method TEXT NOT NULL,
            amount INTEGER NOT NULL,
            status TEXT NOT NULL,
            transaction_id TEXT NOT NULL,
            paid_at DATETIME,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS notification_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            event_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_rooms_property_type ON rooms(property_id, room_type)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_room_dates ON bookings(room_id, check_in, check_out)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_queue_status ON notification_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

var _ domain.Store = (*DB)(nil)
