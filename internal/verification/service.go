// Package verification issues and checks short-lived email verification codes.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const CodeLength = 6

var (
	ErrTicketNotFound  = errors.New("verification ticket not found")
	ErrTicketExpired   = errors.New("verification ticket expired")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrInvalidEmail    = errors.New("invalid email address")
)

type Service struct {
	repo        domain.TicketRepository
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	logger      *zerolog.Logger
}

func NewService(repo domain.TicketRepository, ttl time.Duration, maxAttempts int, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{repo: repo, ttl: ttl, maxAttempts: maxAttempts, now: time.Now, logger: logger}
}

// Issue creates a ticket for email and returns it with the plain code. Only
// the bcrypt hash of the code is stored.
func (s *Service) Issue(ctx context.Context, email string) (*models.VerificationTicket, string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, "", ErrInvalidEmail
	}

	code, err := generateNumericCode(CodeLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash code: %w", err)
	}

	now := s.now().UTC()
	ticket := &models.VerificationTicket{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(addr.Address),
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.SaveTicket(ctx, ticket); err != nil {
		return nil, "", fmt.Errorf("save ticket: %w", err)
	}

	s.logger.Info().Str("ticket_id", ticket.ID).Time("expires_at", ticket.ExpiresAt).Msg("verification ticket issued")
	return ticket, code, nil
}

// Verify checks code against the ticket. Each call takes an attempt before
// the comparison, so concurrent guesses cannot exceed the limit. A correct
// code consumes the ticket.
func (s *Service) Verify(ctx context.Context, ticketID, code string) (*models.VerificationTicket, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("load ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Expired(s.now()) {
		_ = s.repo.DeleteTicket(ctx, ticketID)
		return nil, ErrTicketExpired
	}
	if ticket.Attempts >= s.maxAttempts {
		return nil, ErrTooManyAttempts
	}

	attempt, err := s.repo.IncrementAttempts(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("count attempt: %w", err)
	}
	if attempt == 0 {
		// consumed or deleted since the read
		return nil, ErrTicketNotFound
	}
	if attempt > s.maxAttempts {
		return nil, ErrTooManyAttempts
	}
	ticket.Attempts = attempt

	if bcrypt.CompareHashAndPassword([]byte(ticket.CodeHash), []byte(code)) != nil {
		s.logger.Debug().Str("ticket_id", ticket.ID).Int("attempt", attempt).Msg("wrong verification code")
		if attempt >= s.maxAttempts {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	if err := s.repo.DeleteTicket(ctx, ticketID); err != nil {
		return nil, fmt.Errorf("consume ticket: %w", err)
	}
	s.logger.Info().Str("ticket_id", ticket.ID).Msg("verification ticket consumed")
	return ticket, nil
}

// generateNumericCode draws each digit uniformly from crypto/rand.
func generateNumericCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

var _ domain.VerificationService = (*Service)(nil)
