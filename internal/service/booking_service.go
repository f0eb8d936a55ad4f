package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/events"
	"roomstay/internal/lock"
	"roomstay/internal/metrics"
	"roomstay/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo           domain.Repository
	availability   domain.AvailabilityService
	locker         domain.RoomLocker
	gateway        domain.PaymentGateway
	eventBus       domain.EventPublisher
	maxBookingDays int
	now            func() time.Time
	logger         *zerolog.Logger
}

func NewBookingService(
	repo domain.Repository,
	availability domain.AvailabilityService,
	locker domain.RoomLocker,
	gateway domain.PaymentGateway,
	eventBus domain.EventPublisher,
	maxBookingDays int,
	logger *zerolog.Logger,
) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if availability == nil {
		availability = NewAvailabilityService(repo, logger)
	}
	if locker == nil {
		locker = lock.NewLocalLocker(0)
	}
	return &BookingService{
		repo:           repo,
		availability:   availability,
		locker:         locker,
		gateway:        gateway,
		eventBus:       eventBus,
		maxBookingDays: maxBookingDays,
		now:            time.Now,
		logger:         logger,
	}
}

func (s *BookingService) today() time.Time {
	return models.DateOnly(s.now())
}

// validateStay checks the date rules shared by create and modify.
func (s *BookingService) validateStay(checkIn, checkOut time.Time) error {
	if err := validateRange(checkIn, checkOut); err != nil {
		return err
	}
	today := s.today()
	in := models.DateOnly(checkIn)
	if in.Before(today) {
		return domain.ErrPastDate
	}
	if in.After(today.AddDate(0, 0, s.maxBookingDays)) {
		return domain.ErrDateTooFar
	}
	return nil
}

func validateGuests(guests int, room *models.Room) error {
	if guests < 1 {
		return domain.ErrInvalidGuests
	}
	if guests > room.Capacity {
		return domain.ErrCapacityExceeded
	}
	return nil
}

// bookableRoom loads a room and rejects it when the owner has taken it or its
// property off sale.
func (s *BookingService) bookableRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAvailable {
		return nil, domain.ErrRoomUnavailable
	}
	property, err := s.repo.GetProperty(ctx, room.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsActive {
		return nil, domain.ErrRoomUnavailable
	}
	return room, nil
}

// lockBooking takes the lock of the booking's room and reloads the booking
// under it, so status checks and the writes that follow see no interleaved
// lifecycle change.
func (s *BookingService) lockBooking(ctx context.Context, bookingID int64) (*models.Booking, func(), error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	unlock, err := s.locker.Lock(ctx, booking.RoomID)
	if err != nil {
		return nil, nil, err
	}
	booking, err = s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return booking, unlock, nil
}

func (s *BookingService) CreateBooking(ctx context.Context, actor models.Actor, req models.BookingRequest) (booking *models.Booking, err error) {
	defer func() { s.record("create", err) }()

	if !canBook(actor) {
		return nil, domain.ErrUnauthorized
	}
	if err := s.validateStay(req.CheckIn, req.CheckOut); err != nil {
		return nil, err
	}
	if req.Guests < 1 {
		return nil, domain.ErrInvalidGuests
	}

	room, err := s.bookableRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if err := validateGuests(req.Guests, room); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	available, err := s.availability.IsAvailable(ctx, room.ID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domain.ErrRoomUnavailable
	}

	booking = &models.Booking{
		RoomID:          room.ID,
		PropertyID:      room.PropertyID,
		UserID:          actor.UserID,
		CheckIn:         models.DateOnly(req.CheckIn),
		CheckOut:        models.DateOnly(req.CheckOut),
		Guests:          req.Guests,
		Status:          models.StatusPending,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		SpecialRequests: req.SpecialRequests,
	}
	booking.ApplyPricing(room.PricePerNight)

	// the store re-checks overlaps inside its own transaction
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("room_id", booking.RoomID).
		Str("user_id", booking.UserID).
		Str("check_in", booking.CheckIn.Format(models.DateLayout)).
		Str("check_out", booking.CheckOut.Format(models.DateLayout)).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, actor.UserID, "")
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (booking *models.Booking, err error) {
	defer func() { s.record("cancel", err) }()

	booking, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if !canCancel(actor, booking) {
		return nil, domain.ErrUnauthorized
	}
	if err := s.transition(ctx, booking, models.StatusCancelled); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCancelled, booking, actor.UserID, "")
	return booking, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID int64, actor models.Actor) (booking *models.Booking, err error) {
	defer func() { s.record("confirm", err) }()

	booking, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	property, err := s.repo.GetProperty(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}
	if !canConfirm(actor, property) {
		return nil, domain.ErrUnauthorized
	}
	if err := s.transition(ctx, booking, models.StatusConfirmed); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingConfirmed, booking, actor.UserID, "")
	return booking, nil
}

// CompleteBooking closes a confirmed stay whose check-out day has arrived.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID int64) (booking *models.Booking, err error) {
	defer func() { s.record("complete", err) }()

	booking, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if booking.Status != models.StatusConfirmed || s.today().Before(models.DateOnly(booking.CheckOut)) {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.transition(ctx, booking, models.StatusCompleted); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCompleted, booking, "system", "")
	return booking, nil
}

// ModifyBooking changes the dates or party size of a pending booking and
// reprices it.
func (s *BookingService) ModifyBooking(ctx context.Context, bookingID int64, actor models.Actor, change models.BookingChange) (booking *models.Booking, err error) {
	defer func() { s.record("modify", err) }()

	current, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, current) {
		return nil, domain.ErrUnauthorized
	}
	if current.Status != models.StatusPending {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.validateStay(change.CheckIn, change.CheckOut); err != nil {
		return nil, err
	}

	room, err := s.bookableRoom(ctx, current.RoomID)
	if err != nil {
		return nil, err
	}
	if err := validateGuests(change.Guests, room); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	overlap, err := s.repo.HasOverlappingBooking(ctx, room.ID, change.CheckIn, change.CheckOut, current.ID)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, domain.ErrRoomUnavailable
	}

	updated := *current
	updated.CheckIn = models.DateOnly(change.CheckIn)
	updated.CheckOut = models.DateOnly(change.CheckOut)
	updated.Guests = change.Guests
	updated.ApplyPricing(room.PricePerNight)

	if err := s.repo.UpdateBookingDatesWithVersion(ctx, &updated); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingModified, &updated, actor.UserID, "")
	return &updated, nil
}

// ProcessPayment charges a pending booking and confirms it. A declined charge
// leaves the booking pending. The room lock is held from the status check
// until the payment is recorded; a charge that still cannot be recorded is
// refunded.
func (s *BookingService) ProcessPayment(ctx context.Context, bookingID int64, method models.PaymentMethod, amount models.Money) (payment *models.Payment, err error) {
	defer func() {
		s.record("payment", err)
		metrics.IncPayment(string(method), resultCode(err))
	}()

	booking, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if booking.Status != models.StatusPending {
		return nil, domain.ErrInvalidTransition
	}
	if amount != booking.TotalAmount {
		return nil, domain.ErrAmountMismatch
	}
	if !method.IsValid() {
		return nil, domain.ErrInvalidPaymentMethod
	}
	if s.gateway == nil {
		return nil, errors.New("payment gateway is not configured")
	}

	txID, err := s.gateway.Charge(ctx, booking.ID, method, amount)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Str("method", string(method)).Msg("payment failed")
		if errors.Is(err, domain.ErrPaymentDeclined) {
			return nil, err
		}
		return nil, fmt.Errorf("charge booking %d: %w", booking.ID, err)
	}

	paidAt := s.now().UTC()
	payment = &models.Payment{
		BookingID:     booking.ID,
		Method:        method,
		Amount:        amount,
		Status:        models.PaymentStatusCompleted,
		TransactionID: txID,
		PaidAt:        &paidAt,
	}
	if err := s.repo.CompletePayment(ctx, payment, booking.Version); err != nil {
		s.refund(ctx, booking.ID, txID, err)
		return nil, err
	}

	booking.Status = models.StatusConfirmed
	booking.Version++
	s.logger.Info().Int64("booking_id", booking.ID).Str("transaction_id", txID).Msg("payment completed")
	s.publishEvent(events.EventPaymentCompleted, booking, booking.UserID, txID)
	s.publishEvent(events.EventBookingConfirmed, booking, booking.UserID, txID)
	return payment, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	property, err := s.repo.GetProperty(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}
	if !canViewBooking(actor, booking, property) {
		return nil, domain.ErrUnauthorized
	}
	return booking, nil
}

func (s *BookingService) GetUserBookings(ctx context.Context, actor models.Actor) ([]*models.Booking, error) {
	if !canBook(actor) {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.GetUserBookings(ctx, actor.UserID)
}

// GetVendorBookings lists bookings on the vendor's properties; an empty
// status lists all of them.
func (s *BookingService) GetVendorBookings(ctx context.Context, actor models.Actor, status models.BookingStatus) ([]*models.Booking, error) {
	if !canViewVendorData(actor) {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.GetVendorBookings(ctx, actor.UserID, status)
}

func (s *BookingService) GetVendorStats(ctx context.Context, actor models.Actor) (*models.VendorStats, error) {
	if !canViewVendorData(actor) {
		return nil, domain.ErrUnauthorized
	}
	since := s.today().AddDate(0, 0, -models.VendorStatsWindowDays)
	return s.repo.GetVendorStats(ctx, actor.UserID, since)
}

// refund voids a charge whose payment row could not be written. A failed
// refund leaves the transaction id in the log for manual reconciliation.
func (s *BookingService) refund(ctx context.Context, bookingID int64, txID string, cause error) {
	log := s.logger.With().Int64("booking_id", bookingID).Str("transaction_id", txID).Logger()
	if err := s.gateway.Refund(context.WithoutCancel(ctx), txID); err != nil {
		log.Error().Err(err).AnErr("cause", cause).Msg("payment not recorded and refund failed")
		return
	}
	log.Warn().Err(cause).Msg("payment not recorded, charge refunded")
}

// transition applies a lifecycle move as a versioned update and mirrors it
// onto booking.
func (s *BookingService) transition(ctx context.Context, booking *models.Booking, next models.BookingStatus) error {
	if !booking.Status.CanTransitionTo(next) {
		return domain.ErrInvalidTransition
	}
	if err := s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, next); err != nil {
		return err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("from", string(booking.Status)).
		Str("to", string(next)).
		Msg("booking status changed")
	booking.Status = next
	booking.Version++
	booking.UpdatedAt = s.now().UTC()
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy, transactionID string) {
	if s.eventBus == nil {
		return
	}

	payload := events.NewBookingPayload(booking, changedBy)
	payload.TransactionID = transactionID
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) record(operation string, err error) {
	metrics.IncBookingOperation(operation, resultCode(err))
}

func resultCode(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.ErrorCode(err)
}

var _ domain.BookingService = (*BookingService)(nil)
