package domain

import "errors"

var (
	ErrInvalidRange           = errors.New("check-in must be before check-out")
	ErrPastDate               = errors.New("check-in date is in the past")
	ErrDateTooFar             = errors.New("check-in date is too far in the future")
	ErrInvalidGuests          = errors.New("at least one guest is required")
	ErrCapacityExceeded       = errors.New("number of guests exceeds room capacity")
	ErrRoomUnavailable        = errors.New("room is not available for the selected dates")
	ErrInvalidTransition      = errors.New("booking status does not allow this operation")
	ErrUnauthorized           = errors.New("actor is not allowed to perform this operation")
	ErrAmountMismatch         = errors.New("payment amount does not match booking total")
	ErrPaymentDeclined        = errors.New("payment declined")
	ErrInvalidPaymentMethod   = errors.New("unsupported payment method")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrRoomNotFound           = errors.New("room not found")
	ErrPropertyNotFound       = errors.New("property not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
	ErrLockNotAcquired        = errors.New("room is locked by another request")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidRange, "invalid_range"},
	{ErrPastDate, "past_date"},
	{ErrDateTooFar, "date_too_far"},
	{ErrInvalidGuests, "invalid_guests"},
	{ErrCapacityExceeded, "capacity_exceeded"},
	{ErrRoomUnavailable, "room_unavailable"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrUnauthorized, "unauthorized"},
	{ErrAmountMismatch, "amount_mismatch"},
	{ErrPaymentDeclined, "payment_declined"},
	{ErrInvalidPaymentMethod, "invalid_payment_method"},
	{ErrBookingNotFound, "booking_not_found"},
	{ErrRoomNotFound, "room_not_found"},
	{ErrPropertyNotFound, "property_not_found"},
	{ErrPaymentNotFound, "payment_not_found"},
	{ErrConcurrentModification, "concurrent_modification"},
	{ErrLockNotAcquired, "room_locked"},
}

// ErrorCode returns a stable machine-readable code for a domain error,
// or "internal" when err does not wrap one.
func ErrorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "internal"
}
