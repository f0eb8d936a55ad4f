package service

import (
	"context"
	"testing"

	"roomstay/internal/domain"
	"roomstay/internal/events"
	"roomstay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCompletionSweeper_RunOnce(t *testing.T) {
	f := newFixture(t)
	sweeper := NewCompletionSweeper(f.svc, 0, nil)

	done := pendingBooking()
	done.Status = models.StatusConfirmed
	done.CheckIn, done.CheckOut = day(-3), day(-1)

	raced := pendingBooking()
	raced.ID = 8
	raced.Status = models.StatusConfirmed
	raced.CheckIn, raced.CheckOut = day(-2), day(0)

	f.repo.On("GetCompletableBookings", mock.Anything, today, sweepBatchSize).Return([]*models.Booking{done, raced}, nil).Once()
	f.repo.On("GetBooking", mock.Anything, int64(7)).Return(done, nil)
	f.repo.On("GetBooking", mock.Anything, int64(8)).Return(raced, nil)
	f.repo.On("UpdateBookingStatusWithVersion", mock.Anything, int64(7), int64(1), models.StatusCompleted).Return(nil)
	f.repo.On("UpdateBookingStatusWithVersion", mock.Anything, int64(8), int64(1), models.StatusCompleted).Return(domain.ErrConcurrentModification)
	f.bus.On("PublishJSON", events.EventBookingCompleted, mock.Anything).Return(nil).Once()

	n, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCompletionSweeper_DisabledReturns(t *testing.T) {
	f := newFixture(t)
	sweeper := NewCompletionSweeper(f.svc, 0, nil)

	done := make(chan struct{})
	go func() {
		sweeper.Start(context.Background())
		close(done)
	}()
	<-done
}
