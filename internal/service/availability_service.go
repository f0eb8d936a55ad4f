package service

import (
	"context"
	"fmt"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/models"

	"github.com/rs/zerolog"
)

type AvailabilityService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, logger *zerolog.Logger) *AvailabilityService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AvailabilityService{repo: repo, logger: logger}
}

func validateRange(checkIn, checkOut time.Time) error {
	if !models.DateOnly(checkIn).Before(models.DateOnly(checkOut)) {
		return domain.ErrInvalidRange
	}
	return nil
}

// IsAvailable reports whether no pending or confirmed booking of the room
// overlaps [checkIn, checkOut).
func (s *AvailabilityService) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return false, err
	}
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		return false, err
	}
	overlap, err := s.repo.HasOverlappingBooking(ctx, roomID, checkIn, checkOut, 0)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

// FindAvailableRoom returns the lowest-id bookable room of the type, or nil
// when every candidate is taken or the property is off sale.
func (s *AvailabilityService) FindAvailableRoom(ctx context.Context, propertyID int64, roomType models.RoomType, checkIn, checkOut time.Time) (*models.Room, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	property, err := s.repo.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsActive {
		return nil, nil
	}

	rooms, err := s.repo.GetRoomsByPropertyAndType(ctx, propertyID, roomType)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		overlap, err := s.repo.HasOverlappingBooking(ctx, room.ID, checkIn, checkOut, 0)
		if err != nil {
			return nil, err
		}
		if !overlap {
			return room, nil
		}
	}

	s.logger.Debug().
		Int64("property_id", propertyID).
		Str("room_type", string(roomType)).
		Int("candidates", len(rooms)).
		Msg("no room available")
	return nil, nil
}

// GetRoomCalendar returns one entry per day starting at start. Zero days means
// the default length.
func (s *AvailabilityService) GetRoomCalendar(ctx context.Context, roomID int64, start time.Time, days int) ([]*models.DayOccupancy, error) {
	if days == 0 {
		days = models.DefaultCalendarDays
	}
	if days < 1 || days > models.MaxCalendarDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", domain.ErrInvalidRange, models.MaxCalendarDays)
	}
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	start = models.DateOnly(start)
	end := start.AddDate(0, 0, days)
	bookings, err := s.repo.GetActiveBookingsForRoom(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}

	calendar := make([]*models.DayOccupancy, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		entry := &models.DayOccupancy{Date: day, RoomID: roomID}
		night := models.Stay{CheckIn: day, CheckOut: day.AddDate(0, 0, 1)}
		for _, b := range bookings {
			if b.Stay().Overlaps(night) {
				entry.Booked = true
				entry.BookingID = b.ID
				break
			}
		}
		calendar = append(calendar, entry)
	}
	return calendar, nil
}

var _ domain.AvailabilityService = (*AvailabilityService)(nil)
