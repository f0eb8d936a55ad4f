package models

import (
	"fmt"
	"time"
)

type Booking struct {
	ID              int64         `json:"id" db:"id"`
	RoomID          int64         `json:"room_id" db:"room_id"`
	PropertyID      int64         `json:"property_id" db:"property_id"`
	UserID          string        `json:"user_id" db:"user_id"`
	CheckIn         time.Time     `json:"check_in" db:"check_in"`
	CheckOut        time.Time     `json:"check_out" db:"check_out"`
	Guests          int           `json:"guests" db:"guests"`
	Status          BookingStatus `json:"status" db:"status"`
	TotalNights     int           `json:"total_nights" db:"total_nights"`
	TotalAmount     Money         `json:"total_amount" db:"total_amount"`
	GuestName       string        `json:"guest_name" db:"guest_name"`
	GuestEmail      string        `json:"guest_email" db:"guest_email"`
	GuestPhone      string        `json:"guest_phone" db:"guest_phone"`
	SpecialRequests string        `json:"special_requests,omitempty" db:"special_requests"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
	Version         int64         `json:"version" db:"version"`
}

// Stay is a half-open date interval [CheckIn, CheckOut).
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Nights is the number of nights in the stay, zero for an empty or inverted range.
func (s Stay) Nights() int {
	in, out := DateOnly(s.CheckIn), DateOnly(s.CheckOut)
	if !in.Before(out) {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}

// Overlaps reports whether two half-open stays share at least one night.
// Back-to-back stays (one checks out the day the other checks in) do not overlap.
func (s Stay) Overlaps(o Stay) bool {
	return DateOnly(s.CheckIn).Before(DateOnly(o.CheckOut)) && DateOnly(o.CheckIn).Before(DateOnly(s.CheckOut))
}

func (b *Booking) Stay() Stay {
	return Stay{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// BlocksAvailability reports whether the booking holds its room for its dates.
func (b *Booking) BlocksAvailability() bool {
	return b.Status.IsActive()
}

// ApplyPricing derives the nights and total from the nightly rate.
func (b *Booking) ApplyPricing(pricePerNight Money) {
	b.TotalNights = b.Stay().Nights()
	b.TotalAmount = pricePerNight.Mul(b.TotalNights)
}

var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// IsActive reports whether bookings in this status constrain availability.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ActiveStatuses are the statuses that occupy a room.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", raw)
	}
	return t, nil
}
