package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"roomstay/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(nil)

	var received *Event
	var callCount int

	bus.Subscribe("test_event", func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	require.NoError(t, bus.PublishJSON("test_event", map[string]string{"foo": "bar"}))

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, "test_event", received.Type)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, "bar", decoded["foo"])
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus(nil)
	seen := map[string]int{}
	bus.SubscribeAll(BookingEventTypes, func(e *Event) error { seen[e.Type]++; return nil })

	for _, typ := range BookingEventTypes {
		require.NoError(t, bus.PublishJSON(typ, nil))
	}
	for _, typ := range BookingEventTypes {
		assert.Equal(t, 1, seen[typ], typ)
	}
}

func TestEventBusHandlerErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(&logger)

	called := false
	bus.Subscribe("event", func(_ *Event) error { return errors.New("boom") })
	bus.Subscribe("event", func(_ *Event) error { called = true; return nil })

	assert.NoError(t, bus.PublishJSON("event", nil))
	assert.True(t, called, "a failing handler must not stop the others")
	assert.Contains(t, buf.String(), "boom")
}

func TestEventBusNilReceiver(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON("anything", nil))
}

func TestNewBookingPayload(t *testing.T) {
	b := &models.Booking{
		ID:          7,
		RoomID:      3,
		PropertyID:  1,
		UserID:      "guest-1",
		Status:      models.StatusPending,
		CheckIn:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Guests:      2,
		TotalAmount: models.MustParseMoney("200.00"),
	}

	event, err := NewJSONEvent(EventBookingCreated, NewBookingPayload(b, "guest-1"))
	require.NoError(t, err)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, int64(7), decoded.BookingID)
	assert.Equal(t, models.MustParseMoney("200.00"), decoded.TotalAmount)
	assert.Equal(t, "guest-1", decoded.ChangedBy)
	assert.True(t, b.CheckIn.Equal(decoded.CheckIn))
}
