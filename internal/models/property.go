package models

import "time"

// Property is a lodging owned by a vendor. The catalog is read-only here.
type Property struct {
	ID           int64        `yaml:"id" json:"id" db:"id"`
	OwnerID      string       `yaml:"owner_id" json:"owner_id" db:"owner_id"`
	Name         string       `yaml:"name" json:"name" db:"name"`
	PropertyType PropertyType `yaml:"property_type" json:"property_type" db:"property_type"`
	City         string       `yaml:"city" json:"city" db:"city"`
	IsActive     bool         `yaml:"is_active" json:"is_active" db:"is_active"`
	CreatedAt    time.Time    `yaml:"-" json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `yaml:"-" json:"updated_at" db:"updated_at"`
}

type Room struct {
	ID            int64     `yaml:"id" json:"id" db:"id"`
	PropertyID    int64     `yaml:"property_id" json:"property_id" db:"property_id"`
	RoomType      RoomType  `yaml:"room_type" json:"room_type" db:"room_type"`
	Name          string    `yaml:"name" json:"name" db:"name"`
	PricePerNight Money     `yaml:"price_per_night" json:"price_per_night" db:"price_per_night"`
	Capacity      int       `yaml:"capacity" json:"capacity" db:"capacity"`
	IsAvailable   bool      `yaml:"is_available" json:"is_available" db:"is_available"`
	CreatedAt     time.Time `yaml:"-" json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `yaml:"-" json:"updated_at" db:"updated_at"`
}

// Catalog is the seed file layout.
type Catalog struct {
	Properties []Property `yaml:"properties"`
	Rooms      []Room     `yaml:"rooms"`
}
