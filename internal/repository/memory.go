package repository

import (
	"context"
	"sync"
	"time"

	"roomstay/internal/models"
)

// expiredRetention keeps a ticket around after it expires so a late
// verification can be told the code expired rather than that it never existed.
const expiredRetention = 15 * time.Minute

// MemoryTicketRepository is the process-local ticket store used when Redis
// is unavailable. Expiry is decided by the caller; Sweep only reclaims
// tickets past the retention window.
type MemoryTicketRepository struct {
	mu      sync.Mutex
	tickets map[string]models.VerificationTicket
	now     func() time.Time
}

func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]models.VerificationTicket),
		now:     time.Now,
	}
}

func (r *MemoryTicketRepository) GetTicket(_ context.Context, id string) (*models.VerificationTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, nil
	}
	return &ticket, nil
}

func (r *MemoryTicketRepository) SaveTicket(_ context.Context, ticket *models.VerificationTicket) error {
	r.mu.Lock()
	r.tickets[ticket.ID] = *ticket
	r.mu.Unlock()
	return nil
}

func (r *MemoryTicketRepository) DeleteTicket(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.tickets, id)
	r.mu.Unlock()
	return nil
}

func (r *MemoryTicketRepository) IncrementAttempts(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return 0, nil
	}
	ticket.Attempts++
	r.tickets[id] = ticket
	return ticket.Attempts, nil
}

// Sweep drops tickets expired for longer than the retention window and
// returns how many were removed.
func (r *MemoryTicketRepository) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, ticket := range r.tickets {
		if ticket.Expired(now.Add(-expiredRetention)) {
			delete(r.tickets, id)
			removed++
		}
	}
	return removed
}
