package metrics

import (
	"net/http"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/api/v1/bookings", http.StatusCreated, 15*time.Millisecond)
		IncPayment("paypal", "ok")
		IncNotification("booking_created", "ok")
		AddAutoCompleted(0)
	})
}

func TestIncBookingOperation(t *testing.T) {
	var m dto.Metric
	counter := bookingOperations.WithLabelValues("create", "room_unavailable")
	require.NoError(t, counter.Write(&m))
	before := m.GetCounter().GetValue()

	IncBookingOperation("create", "room_unavailable")

	require.NoError(t, counter.Write(&m))
	assert.Equal(t, before+1, m.GetCounter().GetValue())
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusOK))
	assert.Equal(t, "3xx", statusClass(http.StatusFound))
	assert.Equal(t, "4xx", statusClass(http.StatusConflict))
	assert.Equal(t, "5xx", statusClass(http.StatusBadGateway))
}
