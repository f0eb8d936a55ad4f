package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"roomstay/internal/domain"
	"roomstay/internal/verification"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Code: code})
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidRange, http.StatusBadRequest},
	{domain.ErrPastDate, http.StatusBadRequest},
	{domain.ErrDateTooFar, http.StatusBadRequest},
	{domain.ErrInvalidGuests, http.StatusBadRequest},
	{domain.ErrCapacityExceeded, http.StatusBadRequest},
	{domain.ErrInvalidPaymentMethod, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrBookingNotFound, http.StatusNotFound},
	{domain.ErrRoomNotFound, http.StatusNotFound},
	{domain.ErrPropertyNotFound, http.StatusNotFound},
	{domain.ErrPaymentNotFound, http.StatusNotFound},
	{domain.ErrRoomUnavailable, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrConcurrentModification, http.StatusConflict},
	{domain.ErrLockNotAcquired, http.StatusConflict},
	{domain.ErrAmountMismatch, http.StatusUnprocessableEntity},
	{domain.ErrPaymentDeclined, http.StatusPaymentRequired},
}

var verificationErrors = []struct {
	err    error
	status int
	code   string
}{
	{verification.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{verification.ErrInvalidCode, http.StatusBadRequest, "invalid_code"},
	{verification.ErrTicketNotFound, http.StatusNotFound, "ticket_not_found"},
	{verification.ErrTicketExpired, http.StatusGone, "ticket_expired"},
	{verification.ErrTooManyAttempts, http.StatusTooManyRequests, "too_many_attempts"},
}

// errorStatus maps a service error to its HTTP status and stable code.
func errorStatus(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, domain.ErrorCode(err)
		}
	}
	for _, e := range verificationErrors {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", r.Header.Get(requestIDHeader)).Str("path", r.URL.Path).Msg("request failed")
		message = "internal server error"
	}
	writeError(w, status, code, message)
}
