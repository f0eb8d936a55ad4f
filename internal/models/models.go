package models

import "time"

// DayOccupancy is one day of a room calendar.
type DayOccupancy struct {
	Date      time.Time `json:"date"`
	RoomID    int64     `json:"room_id"`
	Booked    bool      `json:"booked"`
	BookingID int64     `json:"booking_id,omitempty"`
}

// VendorStats summarises confirmed business over a trailing window.
type VendorStats struct {
	OwnerID           string    `json:"owner_id"`
	Since             time.Time `json:"since"`
	ConfirmedBookings int       `json:"confirmed_bookings"`
	PendingBookings   int       `json:"pending_bookings"`
	Revenue           Money     `json:"revenue"`
}

// BookingRequest carries the caller supplied fields of a new stay.
type BookingRequest struct {
	RoomID          int64
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	SpecialRequests string
}

// BookingChange carries a date or party-size edit of a pending booking.
type BookingChange struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}
