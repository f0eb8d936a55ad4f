// Package payment holds the payment gateways a booking can be charged through.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"roomstay/internal/config"
	"roomstay/internal/domain"
	"roomstay/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const ProviderSimulated = "simulated"

var ErrUnknownTransaction = errors.New("unknown transaction")

// SimulatedGateway approves every charge except for configured methods or
// amounts above a ceiling. It stands in for a card processor in development.
type SimulatedGateway struct {
	declined  map[models.PaymentMethod]bool
	maxAmount models.Money
	logger    *zerolog.Logger

	mu       sync.Mutex
	captured map[string]bool // transaction id -> still captured
}

func NewSimulatedGateway(declineMethods []models.PaymentMethod, maxAmount models.Money, logger *zerolog.Logger) *SimulatedGateway {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	declined := make(map[models.PaymentMethod]bool, len(declineMethods))
	for _, m := range declineMethods {
		declined[m] = true
	}
	return &SimulatedGateway{
		declined:  declined,
		maxAmount: maxAmount,
		logger:    logger,
		captured:  make(map[string]bool),
	}
}

// NewGateway builds the gateway named by cfg.Provider.
func NewGateway(cfg config.PaymentConfig, logger *zerolog.Logger) (domain.PaymentGateway, error) {
	switch cfg.Provider {
	case "", ProviderSimulated:
		methods := make([]models.PaymentMethod, 0, len(cfg.DeclineMethods))
		for _, m := range cfg.DeclineMethods {
			methods = append(methods, models.PaymentMethod(m))
		}
		var maxAmount models.Money
		if cfg.MaxAmount != "" {
			parsed, err := models.ParseMoney(cfg.MaxAmount)
			if err != nil {
				return nil, fmt.Errorf("payment max amount: %w", err)
			}
			maxAmount = parsed
		}
		return NewSimulatedGateway(methods, maxAmount, logger), nil
	default:
		return nil, fmt.Errorf("payment provider '%s' not found", cfg.Provider)
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, bookingID int64, method models.PaymentMethod, amount models.Money) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if g.declined[method] {
		g.logger.Info().Int64("booking_id", bookingID).Str("method", string(method)).Msg("charge declined by method")
		return "", fmt.Errorf("%w: method %s not accepted", domain.ErrPaymentDeclined, method)
	}
	if g.maxAmount > 0 && amount > g.maxAmount {
		g.logger.Info().Int64("booking_id", bookingID).Str("amount", amount.String()).Msg("charge declined by limit")
		return "", fmt.Errorf("%w: amount %s exceeds limit %s", domain.ErrPaymentDeclined, amount, g.maxAmount)
	}

	txID := "sim_" + uuid.NewString()
	g.mu.Lock()
	g.captured[txID] = true
	g.mu.Unlock()
	g.logger.Debug().Int64("booking_id", bookingID).Str("transaction_id", txID).Msg("charge approved")
	return txID, nil
}

// Refund voids a captured charge. Refunding twice is a no-op.
func (g *SimulatedGateway) Refund(ctx context.Context, transactionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.captured[transactionID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransaction, transactionID)
	}
	if g.captured[transactionID] {
		g.captured[transactionID] = false
		g.logger.Info().Str("transaction_id", transactionID).Msg("charge refunded")
	}
	return nil
}

// Captured counts charges that have not been refunded.
func (g *SimulatedGateway) Captured() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, live := range g.captured {
		if live {
			n++
		}
	}
	return n
}

var _ domain.PaymentGateway = (*SimulatedGateway)(nil)
