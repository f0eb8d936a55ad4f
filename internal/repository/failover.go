package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/models"

	"github.com/rs/zerolog"
)

// FailoverTicketRepository serves from primary and switches to fallback after
// a primary error, probing the primary again once a minute.
type FailoverTicketRepository struct {
	primary   domain.TicketRepository
	fallback  domain.TicketRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	retryTime time.Duration
}

func NewFailoverTicketRepository(primary, fallback domain.TicketRepository, logger *zerolog.Logger) *FailoverTicketRepository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverTicketRepository{
		primary:   primary,
		fallback:  fallback,
		logger:    logger,
		retryTime: time.Minute,
	}
}

func (r *FailoverTicketRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary ticket repository failed, falling back to memory")
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
	r.isDown.Store(true)
}

// usePrimary reports whether the primary should be tried for this call.
func (r *FailoverTicketRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > r.retryTime {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverTicketRepository) GetTicket(ctx context.Context, id string) (*models.VerificationTicket, error) {
	if r.usePrimary() {
		ticket, err := r.primary.GetTicket(ctx, id)
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("primary ticket repository recovered")
			}
			if ticket != nil {
				return ticket, nil
			}
			// tickets issued during an outage live only in the fallback
			return r.fallback.GetTicket(ctx, id)
		}
		r.markDown(err)
	}

	return r.fallback.GetTicket(ctx, id)
}

func (r *FailoverTicketRepository) SaveTicket(ctx context.Context, ticket *models.VerificationTicket) error {
	if r.usePrimary() {
		err := r.primary.SaveTicket(ctx, ticket)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SaveTicket(ctx, ticket)
}

func (r *FailoverTicketRepository) DeleteTicket(ctx context.Context, id string) error {
	// a ticket may live in either store
	fallbackErr := r.fallback.DeleteTicket(ctx, id)
	if r.usePrimary() {
		err := r.primary.DeleteTicket(ctx, id)
		if err == nil {
			r.isDown.Store(false)
			return fallbackErr
		}
		r.markDown(err)
	}
	return fallbackErr
}

// IncrementAttempts counts against whichever store holds the ticket.
func (r *FailoverTicketRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	if r.usePrimary() {
		n, err := r.primary.IncrementAttempts(ctx, id)
		if err == nil {
			r.isDown.Store(false)
			if n > 0 {
				return n, nil
			}
			return r.fallback.IncrementAttempts(ctx, id)
		}
		r.markDown(err)
	}

	return r.fallback.IncrementAttempts(ctx, id)
}

var (
	_ domain.TicketRepository = (*RedisTicketRepository)(nil)
	_ domain.TicketRepository = (*MemoryTicketRepository)(nil)
	_ domain.TicketRepository = (*FailoverTicketRepository)(nil)
)
