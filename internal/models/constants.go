package models

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

type RoomType string

const (
	RoomSingle RoomType = "single"
	RoomDouble RoomType = "double"
	RoomTwin   RoomType = "twin"
	RoomSuite  RoomType = "suite"
	RoomFamily RoomType = "family"
	RoomDeluxe RoomType = "deluxe"
)

type PropertyType string

const (
	PropertyHotel      PropertyType = "hotel"
	PropertyLodge      PropertyType = "lodge"
	PropertyMotel      PropertyType = "motel"
	PropertyGuesthouse PropertyType = "guesthouse"
)

type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentPayPal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Outbox task states. A processing task is leased to one worker until its
// next_retry_at passes.
const (
	TaskPending    = "pending"
	TaskRetry      = "retry"
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

const (
	// DateLayout is the wire and storage format for calendar dates.
	DateLayout = "2006-01-02"

	// MaxCalendarDays caps a single calendar request.
	MaxCalendarDays = 90

	// DefaultCalendarDays is used when the caller does not ask for a length.
	DefaultCalendarDays = 30

	// VendorStatsWindowDays is the trailing window of the vendor dashboard.
	VendorStatsWindowDays = 30

	// WorkerQueueSize is the in-memory buffer of the notification worker.
	WorkerQueueSize = 128

	// DefaultMaxBookingDays bounds how far ahead a stay may start.
	DefaultMaxBookingDays = 365
)

var validPaymentMethods = map[PaymentMethod]bool{
	PaymentCreditCard:   true,
	PaymentDebitCard:    true,
	PaymentPayPal:       true,
	PaymentBankTransfer: true,
}

func (m PaymentMethod) IsValid() bool {
	return validPaymentMethods[m]
}

var validRoomTypes = map[RoomType]bool{
	RoomSingle: true,
	RoomDouble: true,
	RoomTwin:   true,
	RoomSuite:  true,
	RoomFamily: true,
	RoomDeluxe: true,
}

func (t RoomType) IsValid() bool {
	return validRoomTypes[t]
}
