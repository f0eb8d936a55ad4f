package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(&pq.Error{Code: sqlStateExclusionViolation}), domain.ErrRoomUnavailable)
	assert.ErrorIs(t, mapError(fmt.Errorf("insert: %w", &pq.Error{Code: sqlStateExclusionViolation})), domain.ErrRoomUnavailable)
	assert.ErrorIs(t, mapError(&pq.Error{Code: sqlStateUniqueViolation}), domain.ErrConcurrentModification)

	other := &pq.Error{Code: "42P01"}
	assert.Equal(t, error(other), mapError(other))

	plain := fmt.Errorf("boom")
	assert.Equal(t, plain, mapError(plain))
}

// setupTestStore connects to ROOMSTAY_TEST_POSTGRES_DSN and starts from empty tables.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("ROOMSTAY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ROOMSTAY_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, dsn, 20, nil)
	if err != nil {
		t.Skipf("db not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.db.ExecContext(ctx, `TRUNCATE notification_queue, payments, bookings, rooms, properties RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	require.NoError(t, s.SyncCatalog(ctx, &models.Catalog{
		Properties: []models.Property{{ID: 1, OwnerID: "vendor-1", Name: "Lakeside", PropertyType: models.PropertyHotel, IsActive: true}},
		Rooms: []models.Room{
			{ID: 10, PropertyID: 1, RoomType: models.RoomDouble, Name: "101", PricePerNight: models.MustParseMoney("100.00"), Capacity: 2, IsAvailable: true},
		},
	}))
	return s
}

func pgBooking(userID string, in, out int) *models.Booking {
	today := models.DateOnly(time.Now().UTC())
	b := &models.Booking{
		RoomID:   10,
		UserID:   userID,
		CheckIn:  today.AddDate(0, 0, in),
		CheckOut: today.AddDate(0, 0, out),
		Guests:   1,
		Status:   models.StatusPending,
	}
	b.ApplyPricing(models.MustParseMoney("100.00"))
	return b
}

func TestStore_BookingLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	b := pgBooking("user-1", 5, 8)
	require.NoError(t, s.CreateBookingWithLock(ctx, b))

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PropertyID)
	assert.True(t, got.CheckIn.Equal(b.CheckIn))

	err = s.CreateBookingWithLock(ctx, pgBooking("user-2", 6, 7))
	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)

	require.NoError(t, s.CreateBookingWithLock(ctx, pgBooking("user-2", 8, 9)))

	payment := &models.Payment{BookingID: b.ID, Method: models.PaymentPayPal, Amount: b.TotalAmount, Status: models.PaymentStatusCompleted, TransactionID: "txn"}
	require.NoError(t, s.CompletePayment(ctx, payment, b.Version))

	got, err = s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	stats, err := s.GetVendorStats(ctx, "vendor-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ConfirmedBookings)
	assert.Equal(t, 1, stats.PendingBookings)
	assert.Equal(t, "300.00", stats.Revenue.String())

	require.NoError(t, s.UpdateBookingStatusWithVersion(ctx, got.ID, got.Version, models.StatusCancelled))
	require.NoError(t, s.CreateBookingWithLock(ctx, pgBooking("user-3", 6, 7)))
}

func TestStore_ConcurrentBooking(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			results <- s.CreateBookingWithLock(ctx, pgBooking(fmt.Sprintf("user-%d", id), 20, 23))
		}(i)
	}
	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
	}
	assert.Equal(t, 1, successCount)
}

func TestStore_NotificationClaims(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	lease := time.Now().Add(time.Minute)

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, s.CreateNotificationTask(ctx, &models.NotificationTask{EventType: "booking_created", BookingID: i, Payload: "{}"}))
	}

	const pollers = 4
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]int)
	for i := 0; i < pollers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks, err := s.ClaimNotificationTasks(ctx, 4, lease)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			for _, task := range tasks {
				assert.Equal(t, models.TaskProcessing, task.Status)
				seen[task.ID]++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 4)
	for id, n := range seen {
		assert.Equal(t, 1, n, "task %d claimed %d times", id, n)
	}

	ok, err := s.ClaimNotificationTask(ctx, 1, lease)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpdateNotificationTaskStatus(ctx, 1, models.TaskCompleted, "", nil))
	ok, err = s.ClaimNotificationTask(ctx, 1, lease)
	require.NoError(t, err)
	assert.False(t, ok)
}
