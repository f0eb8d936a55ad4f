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

// SyncCatalog upserts the seed properties and rooms in one transaction.
// Rows absent from the seed are left untouched so bookings keep their references.
func (db *DB) SyncCatalog(ctx context.Context, catalog *models.Catalog) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for i := range catalog.Properties {
		p := &catalog.Properties[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO properties (id, owner_id, name, property_type, city, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				owner_id = excluded.owner_id,
				name = excluded.name,
				property_type = excluded.property_type,
				city = excluded.city,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			p.ID, p.OwnerID, p.Name, p.PropertyType, p.City, p.IsActive, now, now)
		if err != nil {
			return fmt.Errorf("failed to upsert property %d: %w", p.ID, err)
		}
	}

	for i := range catalog.Rooms {
		r := &catalog.Rooms[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (id, property_id, room_type, name, price_per_night, capacity, is_available, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				property_id = excluded.property_id,
				room_type = excluded.room_type,
				name = excluded.name,
				price_per_night = excluded.price_per_night,
				capacity = excluded.capacity,
				is_available = excluded.is_available,
				updated_at = excluded.updated_at`,
			r.ID, r.PropertyID, r.RoomType, r.Name, r.PricePerNight, r.Capacity, r.IsAvailable, now, now)
		if err != nil {
			return fmt.Errorf("failed to upsert room %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}

	db.logger.Info().
		Int("properties", len(catalog.Properties)).
		Int("rooms", len(catalog.Rooms)).
		Msg("catalog synced")
	return nil
}

func (db *DB) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	query := `SELECT id, owner_id, name, property_type, city, is_active, created_at, updated_at
              FROM properties WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.PropertyType, &p.City, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &p, nil
}

const roomColumns = `id, property_id, room_type, name, price_per_night, capacity, is_available, created_at, updated_at`

func scanRoom(row rowScanner) (*models.Room, error) {
	var r models.Room
	err := row.Scan(
		&r.ID, &r.PropertyID, &r.RoomType, &r.Name, &r.PricePerNight, &r.Capacity, &r.IsAvailable, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	room, err := scanRoom(db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// GetRoomsByPropertyAndType returns the owner-enabled rooms of a type in ascending id order.
func (db *DB) GetRoomsByPropertyAndType(ctx context.Context, propertyID int64, roomType models.RoomType) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms
              WHERE property_id = ? AND room_type = ? AND is_available = 1
              ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query, propertyID, roomType)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
