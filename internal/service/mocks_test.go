package service

import (
	"context"
	"time"

	"roomstay/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *mockRepo) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}
func (m *mockRepo) GetRoomsByPropertyAndType(ctx context.Context, pid int64, rt models.RoomType) ([]*models.Room, error) {
	args := m.Called(ctx, pid, rt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Room), args.Error(1)
}
func (m *mockRepo) HasOverlappingBooking(ctx context.Context, rid int64, in, out time.Time, exclude int64) (bool, error) {
	args := m.Called(ctx, rid, in, out, exclude)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) GetActiveBookingsForRoom(ctx context.Context, rid int64, from, to time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, rid, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// hand out a copy so the service cannot mutate the fixture
	b := *args.Get(0).(*models.Booking)
	return &b, args.Error(1)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id, v int64, s models.BookingStatus) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) UpdateBookingDatesWithVersion(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetUserBookings(ctx context.Context, uid string) ([]*models.Booking, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetVendorBookings(ctx context.Context, oid string, s models.BookingStatus) ([]*models.Booking, error) {
	args := m.Called(ctx, oid, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetVendorStats(ctx context.Context, oid string, since time.Time) (*models.VendorStats, error) {
	args := m.Called(ctx, oid, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VendorStats), args.Error(1)
}
func (m *mockRepo) GetCompletableBookings(ctx context.Context, today time.Time, limit int) ([]*models.Booking, error) {
	args := m.Called(ctx, today, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) CompletePayment(ctx context.Context, p *models.Payment, v int64) error {
	return m.Called(ctx, p, v).Error(0)
}
func (m *mockRepo) GetPaymentByBooking(ctx context.Context, id int64) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Charge(ctx context.Context, id int64, method models.PaymentMethod, amount models.Money) (string, error) {
	args := m.Called(ctx, id, method, amount)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, txID string) error {
	return m.Called(ctx, txID).Error(0)
}
