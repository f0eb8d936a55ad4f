// Package notify delivers booking lifecycle events to people.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roomstay/internal/events"
	"roomstay/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// LogNotifier writes every event to the log. It is the default channel.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, eventType string, p events.BookingEventPayload) error {
	n.logger.Info().
		Str("event", eventType).
		Int64("booking_id", p.BookingID).
		Int64("room_id", p.RoomID).
		Str("user_id", p.UserID).
		Str("status", string(p.Status)).
		Msg("booking notification")
	return nil
}

// SendVerificationCode stands in for the mail sender in development. The
// code is logged at debug level only.
func (n *LogNotifier) SendVerificationCode(_ context.Context, email, code string) error {
	n.logger.Info().Str("email", email).Msg("verification code issued")
	n.logger.Debug().Str("email", email).Str("code", code).Msg("verification code")
	return nil
}

// TelegramSender is the subset of the bot API used for notifications.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts events to an operations chat.
type TelegramNotifier struct {
	bot    TelegramSender
	chatID int64
}

func NewTelegramNotifier(bot TelegramSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// NewTelegramBot connects to the Bot API with the given token.
func NewTelegramBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, eventType string, p events.BookingEventPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatMessage(eventType, p))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

var eventTitles = map[string]string{
	events.EventBookingCreated:   "New booking",
	events.EventBookingModified:  "Booking changed",
	events.EventBookingConfirmed: "Booking confirmed",
	events.EventBookingCancelled: "Booking cancelled",
	events.EventBookingCompleted: "Stay completed",
	events.EventPaymentCompleted: "Payment received",
}

// FormatMessage renders a plain-text summary of an event.
func FormatMessage(eventType string, p events.BookingEventPayload) string {
	title, ok := eventTitles[eventType]
	if !ok {
		title = eventType
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s #%d\n", title, p.BookingID)
	fmt.Fprintf(&sb, "Room %d, property %d\n", p.RoomID, p.PropertyID)
	fmt.Fprintf(&sb, "%s to %s, %d guest(s)\n",
		p.CheckIn.Format(models.DateLayout), p.CheckOut.Format(models.DateLayout), p.Guests)
	if p.GuestName != "" {
		fmt.Fprintf(&sb, "Guest: %s\n", p.GuestName)
	}
	fmt.Fprintf(&sb, "Total: %s\n", p.TotalAmount)
	if p.TransactionID != "" {
		fmt.Fprintf(&sb, "Transaction: %s\n", p.TransactionID)
	}
	fmt.Fprintf(&sb, "Status: %s", p.Status)
	return sb.String()
}

// Notifier is implemented by every delivery channel.
type Notifier interface {
	Notify(ctx context.Context, eventType string, p events.BookingEventPayload) error
}

// MultiNotifier fans an event out to several channels and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, eventType string, p events.BookingEventPayload) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, eventType, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
