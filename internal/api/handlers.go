package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"roomstay/internal/models"

	"github.com/go-chi/chi/v5"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &validationError{fields: map[string]string{name: "must be a positive integer"}}
	}
	return id, nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleRoomAvailability(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomID")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	q := stayQuery{CheckIn: r.URL.Query().Get("check_in"), CheckOut: r.URL.Query().Get("check_out")}
	if err := validateStruct(&q); err != nil {
		writeValidationError(w, err)
		return
	}
	checkIn, checkOut, err := parseStay(q.CheckIn, q.CheckOut)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	available, err := s.deps.Availability.IsAvailable(r.Context(), roomID, checkIn, checkOut)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		RoomID:    roomID,
		CheckIn:   q.CheckIn,
		CheckOut:  q.CheckOut,
		Available: available,
	})
}

func (s *HTTPServer) handleRoomCalendar(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomID")
	if err != nil {
		writeValidationError(w, err)
		return
	}

	start := models.DateOnly(s.now())
	if raw := r.URL.Query().Get("start"); raw != "" {
		if start, err = models.ParseDate(raw); err != nil {
			writeValidationError(w, err)
			return
		}
	}
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			writeValidationError(w, &validationError{fields: map[string]string{"days": "must be an integer"}})
			return
		}
	}

	calendar, err := s.deps.Availability.GetRoomCalendar(r.Context(), roomID, start, days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := calendarResponse{RoomID: roomID, Days: make([]calendarDay, 0, len(calendar))}
	for _, d := range calendar {
		resp.Days = append(resp.Days, calendarDay{Date: d.Date.Format(models.DateLayout), Booked: d.Booked, BookingID: d.BookingID})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handlePropertyAvailability(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	query := r.URL.Query()
	q := propertyAvailabilityQuery{
		RoomType:  query.Get("room_type"),
		stayQuery: stayQuery{CheckIn: query.Get("check_in"), CheckOut: query.Get("check_out")},
	}
	if err := validateStruct(&q); err != nil {
		writeValidationError(w, err)
		return
	}
	checkIn, checkOut, err := parseStay(q.CheckIn, q.CheckOut)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	room, err := s.deps.Availability.FindAvailableRoom(r.Context(), propertyID, models.RoomType(q.RoomType), checkIn, checkOut)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if room == nil {
		writeJSON(w, http.StatusOK, roomOfferResponse{Available: false})
		return
	}

	nights := models.Stay{CheckIn: checkIn, CheckOut: checkOut}.Nights()
	writeJSON(w, http.StatusOK, roomOfferResponse{
		Available:     true,
		RoomID:        room.ID,
		RoomName:      room.Name,
		PricePerNight: room.PricePerNight,
		TotalNights:   nights,
		TotalAmount:   room.PricePerNight.Mul(nights),
	})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	booking, err := s.deps.Bookings.CreateBooking(r.Context(), actorFrom(r.Context()), models.BookingRequest{
		RoomID:          req.RoomID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		GuestName:       strings.TrimSpace(req.GuestName),
		GuestEmail:      strings.TrimSpace(req.GuestEmail),
		GuestPhone:      strings.TrimSpace(req.GuestPhone),
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.deps.Bookings.GetUserBookings(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingID")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	booking, err := s.deps.Bookings.GetBooking(r.Context(), id, actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleModifyBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingID")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	var req modifyBookingRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	booking, err := s.deps.Bookings.ModifyBooking(r.Context(), id, actorFrom(r.Context()), models.BookingChange{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   req.Guests,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingID")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	booking, err := s.deps.Bookings.CancelBooking(r.Context(), id, actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingID")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	booking, err := s.deps.Bookings.ConfirmBooking(r.Context(), id, actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handlePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingID")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	var req paymentRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	amount, err := models.ParseMoney(req.Amount)
	if err != nil {
		writeValidationError(w, &validationError{fields: map[string]string{"amount": err.Error()}})
		return
	}

	// paying requires the caller to see the booking
	if _, err := s.deps.Bookings.GetBooking(r.Context(), id, actorFrom(r.Context())); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	payment, err := s.deps.Bookings.ProcessPayment(r.Context(), id, models.PaymentMethod(req.Method), amount)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *HTTPServer) vendorBookings(w http.ResponseWriter, r *http.Request) ([]*models.Booking, bool) {
	q := vendorBookingsQuery{Status: r.URL.Query().Get("status")}
	if err := validateStruct(&q); err != nil {
		writeValidationError(w, err)
		return nil, false
	}
	bookings, err := s.deps.Bookings.GetVendorBookings(r.Context(), actorFrom(r.Context()), models.BookingStatus(q.Status))
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, true
}

func (s *HTTPServer) handleVendorBookings(w http.ResponseWriter, r *http.Request) {
	bookings, ok := s.vendorBookings(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleVendorExport streams the vendor bookings as xlsx. With archive=true
// the workbook is stored in the export directory instead.
func (s *HTTPServer) handleVendorExport(w http.ResponseWriter, r *http.Request) {
	bookings, ok := s.vendorBookings(w, r)
	if !ok {
		return
	}
	actor := actorFrom(r.Context())

	if archive, _ := strconv.ParseBool(r.URL.Query().Get("archive")); archive {
		path, err := s.deps.Exporter.SaveBookings(actor.UserID, bookings, s.now())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"file": path})
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Exporter.WriteBookings(&buf, actor.UserID, bookings); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings_%s.xlsx"`, s.now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleVendorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Bookings.GetVendorStats(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleIssueTicket(w http.ResponseWriter, r *http.Request) {
	var req issueTicketRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	ticket, code, err := s.deps.Verification.Issue(r.Context(), req.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if s.deps.CodeSender != nil {
		if err := s.deps.CodeSender.SendVerificationCode(r.Context(), ticket.Email, code); err != nil {
			s.writeServiceError(w, r, fmt.Errorf("send verification code: %w", err))
			return
		}
	}
	writeJSON(w, http.StatusCreated, ticketResponse{TicketID: ticket.ID, ExpiresAt: ticket.ExpiresAt})
}

func (s *HTTPServer) handleVerifyTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := strings.TrimSpace(chi.URLParam(r, "ticketID"))
	var req verifyTicketRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	ticket, err := s.deps.Verification.Verify(r.Context(), ticketID, req.Code)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verifiedResponse{TicketID: ticket.ID, Email: ticket.Email, Verified: true})
}
