package service

import (
	"context"
	"errors"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/metrics"

	"github.com/rs/zerolog"
)

const sweepBatchSize = 100

// CompletionSweeper periodically completes confirmed bookings whose stay has ended.
type CompletionSweeper struct {
	bookings *BookingService
	interval time.Duration
	logger   *zerolog.Logger
}

func NewCompletionSweeper(bookings *BookingService, interval time.Duration, logger *zerolog.Logger) *CompletionSweeper {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CompletionSweeper{bookings: bookings, interval: interval, logger: logger}
}

// Start blocks until ctx is done. A non-positive interval disables the sweeper.
func (s *CompletionSweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info().Msg("completion sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("completion sweeper started")
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("completion sweep failed")
		}
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("completion sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce completes every due booking and returns how many it advanced.
func (s *CompletionSweeper) RunOnce(ctx context.Context) (int, error) {
	completed := 0
	for {
		due, err := s.bookings.repo.GetCompletableBookings(ctx, s.bookings.today(), sweepBatchSize)
		if err != nil {
			metrics.AddAutoCompleted(completed)
			return completed, err
		}

		progressed := 0
		for _, b := range due {
			if _, err := s.bookings.CompleteBooking(ctx, b.ID); err != nil {
				// lost a race with a cancel or another sweeper
				if errors.Is(err, domain.ErrConcurrentModification) || errors.Is(err, domain.ErrInvalidTransition) {
					continue
				}
				metrics.AddAutoCompleted(completed)
				return completed, err
			}
			completed++
			progressed++
		}

		if len(due) < sweepBatchSize || progressed == 0 {
			break
		}
	}

	if completed > 0 {
		s.logger.Info().Int("completed", completed).Msg("bookings auto-completed")
	}
	metrics.AddAutoCompleted(completed)
	return completed, nil
}
