package events

import (
	"encoding/json"
	"sync"
	"time"

	"roomstay/internal/models"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingModified  = "booking_modified"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventPaymentCompleted = "payment_completed"
)

// BookingEventTypes lists every lifecycle event a notifier may receive.
var BookingEventTypes = []string{
	EventBookingCreated,
	EventBookingModified,
	EventBookingConfirmed,
	EventBookingCancelled,
	EventBookingCompleted,
	EventPaymentCompleted,
}

// BookingEventPayload is the booking snapshot carried by lifecycle events.
type BookingEventPayload struct {
	BookingID     int64                `json:"booking_id"`
	RoomID        int64                `json:"room_id"`
	PropertyID    int64                `json:"property_id"`
	UserID        string               `json:"user_id"`
	GuestName     string               `json:"guest_name,omitempty"`
	GuestEmail    string               `json:"guest_email,omitempty"`
	Status        models.BookingStatus `json:"status"`
	CheckIn       time.Time            `json:"check_in"`
	CheckOut      time.Time            `json:"check_out"`
	Guests        int                  `json:"guests"`
	TotalAmount   models.Money         `json:"total_amount"`
	TransactionID string               `json:"transaction_id,omitempty"`
	ChangedBy     string               `json:"changed_by,omitempty"`
}

// NewBookingPayload snapshots a booking for publishing.
func NewBookingPayload(b *models.Booking, changedBy string) BookingEventPayload {
	return BookingEventPayload{
		BookingID:   b.ID,
		RoomID:      b.RoomID,
		PropertyID:  b.PropertyID,
		UserID:      b.UserID,
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		Status:      b.Status,
		CheckIn:     b.CheckIn,
		CheckOut:    b.CheckOut,
		Guests:      b.Guests,
		TotalAmount: b.TotalAmount,
		ChangedBy:   changedBy,
	}
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events. Handler errors are logged
// and never reach the publisher.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. logger may be nil.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers one handler for several event types.
func (b *EventBus) SubscribeAll(eventTypes []string, handler EventHandler) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil {
			b.logger.Error().Err(err).Str("event_type", event.Type).Msg("event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
