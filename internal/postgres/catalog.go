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

func (s *Store) SyncCatalog(ctx context.Context, catalog *models.Catalog) error {
	tx, err := s.db.BeginTxx(ctx, nil)
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
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (id) DO UPDATE SET
				owner_id = EXCLUDED.owner_id,
				name = EXCLUDED.name,
				property_type = EXCLUDED.property_type,
				city = EXCLUDED.city,
				is_active = EXCLUDED.is_active,
				updated_at = EXCLUDED.updated_at`,
			p.ID, p.OwnerID, p.Name, p.PropertyType, p.City, p.IsActive, now)
		if err != nil {
			return fmt.Errorf("failed to upsert property %d: %w", p.ID, err)
		}
	}

	for i := range catalog.Rooms {
		r := &catalog.Rooms[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (id, property_id, room_type, name, price_per_night, capacity, is_available, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (id) DO UPDATE SET
				property_id = EXCLUDED.property_id,
				room_type = EXCLUDED.room_type,
				name = EXCLUDED.name,
				price_per_night = EXCLUDED.price_per_night,
				capacity = EXCLUDED.capacity,
				is_available = EXCLUDED.is_available,
				updated_at = EXCLUDED.updated_at`,
			r.ID, r.PropertyID, r.RoomType, r.Name, r.PricePerNight, r.Capacity, r.IsAvailable, now)
		if err != nil {
			return fmt.Errorf("failed to upsert room %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}

	s.logger.Info().
		Int("properties", len(catalog.Properties)).
		Int("rooms", len(catalog.Rooms)).
		Msg("catalog synced")
	return nil
}

func (s *Store) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	err := s.db.GetContext(ctx, &p, `
		SELECT id, owner_id, name, property_type, city, is_active, created_at, updated_at
		FROM properties WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &p, nil
}

const roomColumns = `id, property_id, room_type, name, price_per_night, capacity, is_available, created_at, updated_at`

func (s *Store) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var r models.Room
	err := s.db.GetContext(ctx, &r, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &r, nil
}

func (s *Store) GetRoomsByPropertyAndType(ctx context.Context, propertyID int64, roomType models.RoomType) ([]*models.Room, error) {
	var rooms []*models.Room
	err := s.db.SelectContext(ctx, &rooms, `
		SELECT `+roomColumns+` FROM rooms
		WHERE property_id = $1 AND room_type = $2 AND is_available
		ORDER BY id ASC`, propertyID, roomType)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	return rooms, nil
}
