package domain

import (
	"context"
	"time"

	"roomstay/internal/models"
)

// Repository is the booking store. Implementations must make
// CreateBookingWithLock and UpdateBookingDatesWithVersion atomic with respect
// to the overlap check for the same room.
type Repository interface {
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetRoomsByPropertyAndType(ctx context.Context, propertyID int64, roomType models.RoomType) ([]*models.Room, error)
	HasOverlappingBooking(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeBookingID int64) (bool, error)
	GetActiveBookingsForRoom(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Booking, error)

	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error
	UpdateBookingDatesWithVersion(ctx context.Context, booking *models.Booking) error
	GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error)
	GetVendorBookings(ctx context.Context, ownerID string, status models.BookingStatus) ([]*models.Booking, error)
	GetVendorStats(ctx context.Context, ownerID string, since time.Time) (*models.VendorStats, error)
	GetCompletableBookings(ctx context.Context, today time.Time, limit int) ([]*models.Booking, error)

	CompletePayment(ctx context.Context, payment *models.Payment, bookingVersion int64) error
	GetPaymentByBooking(ctx context.Context, bookingID int64) (*models.Payment, error)
}

// CatalogWriter seeds the read-only catalog at startup.
type CatalogWriter interface {
	SyncCatalog(ctx context.Context, catalog *models.Catalog) error
}

// TaskStore persists the notification outbox. Claiming moves a task to
// processing with a lease so only one worker delivers it; a lease that runs
// out makes the task claimable again.
type TaskStore interface {
	CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error
	ClaimNotificationTasks(ctx context.Context, limit int, leaseUntil time.Time) ([]models.NotificationTask, error)
	ClaimNotificationTask(ctx context.Context, id int64, leaseUntil time.Time) (bool, error)
	UpdateNotificationTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Store is everything a backing database provides.
type Store interface {
	Repository
	CatalogWriter
	TaskStore
	Close() error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// PaymentGateway charges a booking. A declined charge returns an error
// wrapping ErrPaymentDeclined; the transaction id is empty in that case.
// Refund voids a charge that could not be recorded.
type PaymentGateway interface {
	Charge(ctx context.Context, bookingID int64, method models.PaymentMethod, amount models.Money) (transactionID string, err error)
	Refund(ctx context.Context, transactionID string) error
}

// RoomLocker serialises check-and-insert for a single room.
type RoomLocker interface {
	Lock(ctx context.Context, roomID int64) (unlock func(), err error)
}

type TicketRepository interface {
	GetTicket(ctx context.Context, id string) (*models.VerificationTicket, error)
	SaveTicket(ctx context.Context, ticket *models.VerificationTicket) error
	DeleteTicket(ctx context.Context, id string) error
	// IncrementAttempts atomically records one verification attempt and
	// returns the new count, or 0 when the ticket does not exist.
	IncrementAttempts(ctx context.Context, id string) (int, error)
}

type AvailabilityService interface {
	IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error)
	FindAvailableRoom(ctx context.Context, propertyID int64, roomType models.RoomType, checkIn, checkOut time.Time) (*models.Room, error)
	GetRoomCalendar(ctx context.Context, roomID int64, start time.Time, days int) ([]*models.DayOccupancy, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Actor, req models.BookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID int64) (*models.Booking, error)
	ModifyBooking(ctx context.Context, bookingID int64, actor models.Actor, change models.BookingChange) (*models.Booking, error)
	ProcessPayment(ctx context.Context, bookingID int64, method models.PaymentMethod, amount models.Money) (*models.Payment, error)
	GetBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error)
	GetUserBookings(ctx context.Context, actor models.Actor) ([]*models.Booking, error)
	GetVendorBookings(ctx context.Context, actor models.Actor, status models.BookingStatus) ([]*models.Booking, error)
	GetVendorStats(ctx context.Context, actor models.Actor) (*models.VendorStats, error)
}

type VerificationService interface {
	Issue(ctx context.Context, email string) (*models.VerificationTicket, string, error)
	Verify(ctx context.Context, ticketID, code string) (*models.VerificationTicket, error)
}
