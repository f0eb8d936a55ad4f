package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/events"
	"roomstay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	today    = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	customer = models.Actor{UserID: "user-1", Role: models.RoleCustomer}
	stranger = models.Actor{UserID: "user-2", Role: models.RoleCustomer}
	vendor   = models.Actor{UserID: "vendor-1", Role: models.RoleVendor}
	rival    = models.Actor{UserID: "vendor-2", Role: models.RoleVendor}
	admin    = models.Actor{UserID: "root", Role: models.RoleAdmin}
)

func day(offset int) time.Time {
	return today.AddDate(0, 0, offset)
}

func testProperty() *models.Property {
	return &models.Property{ID: 1, OwnerID: "vendor-1", Name: "Lakeside", IsActive: true}
}

func testRoom() *models.Room {
	return &models.Room{ID: 10, PropertyID: 1, RoomType: models.RoomDouble, PricePerNight: models.MustParseMoney("100.00"), Capacity: 2, IsAvailable: true}
}

func pendingBooking() *models.Booking {
	return &models.Booking{
		ID: 7, RoomID: 10, PropertyID: 1, UserID: "user-1",
		CheckIn: day(3), CheckOut: day(5), Guests: 2,
		Status: models.StatusPending, TotalNights: 2, TotalAmount: models.MustParseMoney("200.00"),
		Version: 1,
	}
}

type fixture struct {
	repo    *mockRepo
	bus     *mockEventBus
	gateway *mockGateway
	svc     *BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: new(mockRepo), bus: new(mockEventBus), gateway: new(mockGateway)}
	f.svc = NewBookingService(f.repo, nil, nil, f.gateway, f.bus, 30, nil)
	f.svc.now = func() time.Time { return today.Add(9 * time.Hour) }
	t.Cleanup(func() {
		f.repo.AssertExpectations(t)
		f.bus.AssertExpectations(t)
		f.gateway.AssertExpectations(t)
	})
	return f
}

func (f *fixture) expectBookableRoom() {
	f.repo.On("GetRoom", mock.Anything, int64(10)).Return(testRoom(), nil)
	f.repo.On("GetProperty", mock.Anything, int64(1)).Return(testProperty(), nil)
}

func request(in, out time.Time, guests int) models.BookingRequest {
	return models.BookingRequest{RoomID: 10, CheckIn: in, CheckOut: out, Guests: guests, GuestName: "Ada"}
}

func TestCreateBooking_Validation(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Actor
		req     models.BookingRequest
		wantErr error
	}{
		{"anonymous", models.Actor{}, request(day(1), day(2), 1), domain.ErrUnauthorized},
		{"inverted range", customer, request(day(5), day(3), 1), domain.ErrInvalidRange},
		{"empty range", customer, request(day(3), day(3), 1), domain.ErrInvalidRange},
		{"past check-in", customer, request(day(-1), day(2), 1), domain.ErrPastDate},
		{"too far ahead", customer, request(day(31), day(33), 1), domain.ErrDateTooFar},
		{"no guests", customer, request(day(1), day(2), 0), domain.ErrInvalidGuests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateBooking(context.Background(), tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateBooking_TodayIsAllowed(t *testing.T) {
	f := newFixture(t)
	f.expectBookableRoom()
	f.repo.On("HasOverlappingBooking", mock.Anything, int64(10), day(0), day(1), int64(0)).Return(false, nil)
	f.repo.On("CreateBookingWithLock", mock.Anything, mock.Anything).Return(nil)
	f.bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil).Once()

	_, err := f.svc.CreateBooking(context.Background(), customer, request(day(0), day(1), 1))
	assert.NoError(t, err)
}

func TestCreateBooking_CapacityExceeded(t *testing.T) {
	f := newFixture(t)
	f.expectBookableRoom()

	_, err := f.svc.CreateBooking(context.Background(), customer, request(day(1), day(2), 3))
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestCreateBooking_RoomWithdrawn(t *testing.T) {
	f := newFixture(t)
	room := testRoom()
	room.IsAvailable = false
	f.repo.On("GetRoom", mock.Anything, int64(10)).Return(room, nil)

	_, err := f.svc.CreateBooking(context.Background(), customer, request(day(1), day(2), 1))
	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
}

func TestCreateBooking_RoomNotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetRoom", mock.Anything, int64(10)).Return(nil, domain.ErrRoomNotFound)

	_, err := f.svc.CreateBooking(context.Background(), customer, request(day(1), day(2), 1))
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestCreateBooking_Overlap(t *testing.T) {
	f := newFixture(t)
	f.expectBookableRoom()
	f.repo.On("HasOverlappingBooking", mock.Anything, int64(10), day(1), day(4), int64(0)).Return(true, nil)

	_, err := f.svc.CreateBooking(context.Background(), customer, request(day(1), day(4), 2))
	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
	f.repo.AssertNotCalled(t, "CreateBookingWithLock", mock.Anything, mock.Anything)
}

func TestCreateBooking_LostRaceInStore(t *testing.T) {
	f := newFixture(t)
	f.expectBookableRoom()
	f.repo.On("HasOverlappingBooking", mock.Anything, int64(10), day(1), day(4), int64(0)).Return(false, nil)
	f.repo.On("CreateBookingWithLock", mock.Anything, mock.Anything).Return(domain.ErrRoomUnavailable)

	_, err := f.svc.CreateBooking(context.Background(), customer, request(day(1), day(4), 2))
	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
}

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t)
	f.expectBookableRoom()
	f.repo.On("HasOverlappingBooking", mock.Anything, int64(10), day(1), day(4), int64(0)).Return(false, nil)
	f.repo.On("CreateBookingWithLock", mock.Anything, mock.MatchedBy(func(b *models.Booking) bool {
		return b.Status == models.StatusPending && b.UserID == "user-1" && b.PropertyID == 1
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Booking).ID = 42
	}).Return(nil)
	f.bus.On("PublishJSON", events.EventBookingCreated, mock.MatchedBy(func(p events.BookingEventPayload) bool {
		return p.BookingID == 42 && p.ChangedBy == "user-1"
	})).Return(nil).Once()

	booking, err := f.svc.CreateBooking(context.Background(), customer, request(day(1), day(4), 2))
	require.NoError(t, err)
	assert.Equal(t, int64(42), booking.ID)
	assert.Equal(t, 3, booking.TotalNights)
	assert.Equal(t, models.MustParseMoney("300.00"), booking.TotalAmount)
	assert.Equal(t, "Ada", booking.GuestName)
}

func TestCreateBooking_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.expectBookableRoom()
	f.repo.On("HasOverlappingBooking", mock.Anything, int64(10), day(1), day(2), int64(0)).Return(false, nil)
	f.repo.On("CreateBookingWithLock", mock.Anything, mock.Anything).Return(nil)
	f.bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(fmt.Errorf("bus closed")).Once()

	_, err := f.svc.CreateBooking(context.Background(), customer, request(day(1), day(2), 1))
	assert.NoError(t, err)
}

func TestCancelBooking(t *testing.T) {
	t.Run("only the booking user", func(t *testing.T) {
		for _, actor := range []models.Actor{stranger, vendor, admin} {
			f := newFixture(t)
			f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
			_, err := f.svc.CancelBooking(context.Background(), 7, actor)
			assert.ErrorIs(t, err, domain.ErrUnauthorized, actor.UserID)
		}
	})

	t.Run("terminal booking", func(t *testing.T) {
		for _, status := range []models.BookingStatus{models.StatusCancelled, models.StatusCompleted} {
			f := newFixture(t)
			b := pendingBooking()
			b.Status = status
			f.repo.On("GetBooking", mock.Anything, int64(7)).Return(b, nil)
			_, err := f.svc.CancelBooking(context.Background(), 7, customer)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		}
	})

	t.Run("confirmed booking", func(t *testing.T) {
		f := newFixture(t)
		b := pendingBooking()
		b.Status = models.StatusConfirmed
		b.Version = 3
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(b, nil)
		f.repo.On("UpdateBookingStatusWithVersion", mock.Anything, int64(7), int64(3), models.StatusCancelled).Return(nil)
		f.bus.On("PublishJSON", events.EventBookingCancelled, mock.Anything).Return(nil).Once()

		got, err := f.svc.CancelBooking(context.Background(), 7, customer)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		assert.Equal(t, int64(4), got.Version)
	})

	t.Run("concurrent modification", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.repo.On("UpdateBookingStatusWithVersion", mock.Anything, int64(7), int64(1), models.StatusCancelled).
			Return(domain.ErrConcurrentModification)

		_, err := f.svc.CancelBooking(context.Background(), 7, customer)
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	})

	t.Run("missing booking", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(99)).Return(nil, domain.ErrBookingNotFound)
		_, err := f.svc.CancelBooking(context.Background(), 99, customer)
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestConfirmBooking(t *testing.T) {
	t.Run("not the owning vendor", func(t *testing.T) {
		for _, actor := range []models.Actor{customer, rival, admin} {
			f := newFixture(t)
			f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
			f.repo.On("GetProperty", mock.Anything, int64(1)).Return(testProperty(), nil)
			_, err := f.svc.ConfirmBooking(context.Background(), 7, actor)
			assert.ErrorIs(t, err, domain.ErrUnauthorized, actor.UserID)
		}
	})

	t.Run("already confirmed", func(t *testing.T) {
		f := newFixture(t)
		b := pendingBooking()
		b.Status = models.StatusConfirmed
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(b, nil)
		f.repo.On("GetProperty", mock.Anything, int64(1)).Return(testProperty(), nil)
		_, err := f.svc.ConfirmBooking(context.Background(), 7, vendor)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("owner confirms", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.repo.On("GetProperty", mock.Anything, int64(1)).Return(testProperty(), nil)
		f.repo.On("UpdateBookingStatusWithVersion", mock.Anything, int64(7), int64(1), models.StatusConfirmed).Return(nil)
		f.bus.On("PublishJSON", events.EventBookingConfirmed, mock.Anything).Return(nil).Once()

		got, err := f.svc.ConfirmBooking(context.Background(), 7, vendor)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, got.Status)
	})
}

func TestProcessPayment(t *testing.T) {
	amount := models.MustParseMoney("200.00")

	t.Run("not pending", func(t *testing.T) {
		f := newFixture(t)
		b := pendingBooking()
		b.Status = models.StatusConfirmed
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(b, nil)
		_, err := f.svc.ProcessPayment(context.Background(), 7, models.PaymentCreditCard, amount)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		_, err := f.svc.ProcessPayment(context.Background(), 7, models.PaymentCreditCard, models.MustParseMoney("199.99"))
		assert.ErrorIs(t, err, domain.ErrAmountMismatch)
	})

	t.Run("unknown method", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		_, err := f.svc.ProcessPayment(context.Background(), 7, models.PaymentMethod("cash"), amount)
		assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)
	})

	t.Run("declined leaves booking pending", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.gateway.On("Charge", mock.Anything, int64(7), models.PaymentPayPal, amount).
			Return("", fmt.Errorf("%w: card refused", domain.ErrPaymentDeclined))

		_, err := f.svc.ProcessPayment(context.Background(), 7, models.PaymentPayPal, amount)
		assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
		f.repo.AssertNotCalled(t, "CompletePayment", mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "UpdateBookingStatusWithVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success confirms booking", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.gateway.On("Charge", mock.Anything, int64(7), models.PaymentCreditCard, amount).Return("tx-1", nil)
		f.repo.On("CompletePayment", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
			return p.BookingID == 7 && p.TransactionID == "tx-1" && p.Status == models.PaymentStatusCompleted && p.PaidAt != nil
		}), int64(1)).Return(nil)
		f.bus.On("PublishJSON", events.EventPaymentCompleted, mock.MatchedBy(func(p events.BookingEventPayload) bool {
			return p.TransactionID == "tx-1" && p.Status == models.StatusConfirmed
		})).Return(nil).Once()
		f.bus.On("PublishJSON", events.EventBookingConfirmed, mock.Anything).Return(nil).Once()

		payment, err := f.svc.ProcessPayment(context.Background(), 7, models.PaymentCreditCard, amount)
		require.NoError(t, err)
		assert.Equal(t, amount, payment.Amount)
		assert.Equal(t, models.PaymentCreditCard, payment.Method)
	})

	t.Run("unrecorded charge is refunded", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.gateway.On("Charge", mock.Anything, int64(7), models.PaymentCreditCard, amount).Return("tx-2", nil)
		f.repo.On("CompletePayment", mock.Anything, mock.Anything, int64(1)).Return(domain.ErrConcurrentModification)
		f.gateway.On("Refund", mock.Anything, "tx-2").Return(nil).Once()

		_, err := f.svc.ProcessPayment(context.Background(), 7, models.PaymentCreditCard, amount)
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
		f.bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})

	t.Run("failed refund still reports the store error", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.gateway.On("Charge", mock.Anything, int64(7), models.PaymentCreditCard, amount).Return("tx-3", nil)
		f.repo.On("CompletePayment", mock.Anything, mock.Anything, int64(1)).Return(domain.ErrConcurrentModification)
		f.gateway.On("Refund", mock.Anything, "tx-3").Return(fmt.Errorf("processor offline")).Once()

		_, err := f.svc.ProcessPayment(context.Background(), 7, models.PaymentCreditCard, amount)
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	})

	t.Run("gateway outage is not a decline", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.gateway.On("Charge", mock.Anything, int64(7), models.PaymentCreditCard, amount).Return("", fmt.Errorf("timeout"))

		_, err := f.svc.ProcessPayment(context.Background(), 7, models.PaymentCreditCard, amount)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrPaymentDeclined)
	})
}

func TestCompleteBooking(t *testing.T) {
	t.Run("stay not over", func(t *testing.T) {
		f := newFixture(t)
		b := pendingBooking()
		b.Status = models.StatusConfirmed
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(b, nil)
		_, err := f.svc.CompleteBooking(context.Background(), 7)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		f := newFixture(t)
		b := pendingBooking()
		b.CheckIn, b.CheckOut = day(-3), day(-1)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(b, nil)
		_, err := f.svc.CompleteBooking(context.Background(), 7)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("check-out day", func(t *testing.T) {
		f := newFixture(t)
		b := pendingBooking()
		b.Status = models.StatusConfirmed
		b.CheckIn, b.CheckOut = day(-2), day(0)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(b, nil)
		f.repo.On("UpdateBookingStatusWithVersion", mock.Anything, int64(7), int64(1), models.StatusCompleted).Return(nil)
		f.bus.On("PublishJSON", events.EventBookingCompleted, mock.Anything).Return(nil).Once()

		got, err := f.svc.CompleteBooking(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
	})
}

func TestModifyBooking(t *testing.T) {
	change := models.BookingChange{CheckIn: day(4), CheckOut: day(8), Guests: 1}

	t.Run("someone else", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		_, err := f.svc.ModifyBooking(context.Background(), 7, stranger, change)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("confirmed booking", func(t *testing.T) {
		f := newFixture(t)
		b := pendingBooking()
		b.Status = models.StatusConfirmed
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(b, nil)
		_, err := f.svc.ModifyBooking(context.Background(), 7, customer, change)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("same validation as create", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		_, err := f.svc.ModifyBooking(context.Background(), 7, customer, models.BookingChange{CheckIn: day(-2), CheckOut: day(1), Guests: 1})
		assert.ErrorIs(t, err, domain.ErrPastDate)
	})

	t.Run("conflict with another booking", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.expectBookableRoom()
		f.repo.On("HasOverlappingBooking", mock.Anything, int64(10), day(4), day(8), int64(7)).Return(true, nil)

		_, err := f.svc.ModifyBooking(context.Background(), 7, customer, change)
		assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
	})

	t.Run("reprices the stay", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.expectBookableRoom()
		f.repo.On("HasOverlappingBooking", mock.Anything, int64(10), day(4), day(8), int64(7)).Return(false, nil)
		f.repo.On("UpdateBookingDatesWithVersion", mock.Anything, mock.MatchedBy(func(b *models.Booking) bool {
			return b.ID == 7 && b.Version == 1
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).Version++
		}).Return(nil)
		f.bus.On("PublishJSON", events.EventBookingModified, mock.Anything).Return(nil).Once()

		got, err := f.svc.ModifyBooking(context.Background(), 7, customer, change)
		require.NoError(t, err)
		assert.Equal(t, 4, got.TotalNights)
		assert.Equal(t, models.MustParseMoney("400.00"), got.TotalAmount)
		assert.Equal(t, 1, got.Guests)
		assert.Equal(t, int64(2), got.Version)
	})
}

func TestGetBooking_Visibility(t *testing.T) {
	tests := []struct {
		actor models.Actor
		ok    bool
	}{
		{customer, true},
		{vendor, true},
		{admin, true},
		{stranger, false},
		{rival, false},
		{models.Actor{}, false},
	}
	for _, tt := range tests {
		f := newFixture(t)
		f.repo.On("GetBooking", mock.Anything, int64(7)).Return(pendingBooking(), nil)
		f.repo.On("GetProperty", mock.Anything, int64(1)).Return(testProperty(), nil)

		_, err := f.svc.GetBooking(context.Background(), 7, tt.actor)
		if tt.ok {
			assert.NoError(t, err, tt.actor.UserID)
		} else {
			assert.ErrorIs(t, err, domain.ErrUnauthorized, tt.actor.UserID)
		}
	}
}

func TestVendorQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetVendorBookings(ctx, customer, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.svc.GetVendorStats(ctx, customer)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.repo.On("GetVendorBookings", mock.Anything, "vendor-1", models.StatusPending).Return([]*models.Booking{pendingBooking()}, nil)
	list, err := f.svc.GetVendorBookings(ctx, vendor, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	f.repo.On("GetVendorStats", mock.Anything, "vendor-1", day(-models.VendorStatsWindowDays)).
		Return(&models.VendorStats{OwnerID: "vendor-1", ConfirmedBookings: 2}, nil)
	stats, err := f.svc.GetVendorStats(ctx, vendor)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ConfirmedBookings)
}

func TestGetUserBookings(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetUserBookings(context.Background(), models.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.repo.On("GetUserBookings", mock.Anything, "user-1").Return([]*models.Booking{pendingBooking()}, nil)
	list, err := f.svc.GetUserBookings(context.Background(), customer)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
