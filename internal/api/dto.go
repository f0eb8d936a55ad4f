package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"roomstay/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return models.PaymentMethod(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("room_type", func(fl validator.FieldLevel) bool {
		return models.RoomType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("booking_status", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || models.BookingStatus(s).IsValid()
	})
	return v
}

type createBookingRequest struct {
	RoomID          int64  `json:"room_id" validate:"required,gt=0"`
	CheckIn         string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests          int    `json:"guests" validate:"gte=0,lte=50"`
	GuestName       string `json:"guest_name" validate:"max=200"`
	GuestEmail      string `json:"guest_email" validate:"omitempty,email,max=254"`
	GuestPhone      string `json:"guest_phone" validate:"max=32"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
}

type modifyBookingRequest struct {
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests   int    `json:"guests" validate:"gte=0,lte=50"`
}

type paymentRequest struct {
	Method string `json:"method" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

type issueTicketRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type verifyTicketRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type stayQuery struct {
	CheckIn  string `query:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `query:"check_out" validate:"required,datetime=2006-01-02"`
}

type propertyAvailabilityQuery struct {
	RoomType string `query:"room_type" validate:"required,room_type"`
	stayQuery
}

type vendorBookingsQuery struct {
	Status string `query:"status" validate:"booking_status"`
}

type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	parts := make([]string, 0, len(e.fields))
	for k, v := range e.fields {
		parts = append(parts, k+": "+v)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "datetime":
			fields[fe.Field()] = "must be a date in YYYY-MM-DD format"
		case "email":
			fields[fe.Field()] = "must be a valid email"
		case "room_type":
			fields[fe.Field()] = "unknown room type"
		case "booking_status":
			fields[fe.Field()] = "unknown booking status"
		default:
			fields[fe.Field()] = fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
	}
	return &validationError{fields: fields}
}

// decodeAndValidate reads a JSON body into dst and validates it.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return &validationError{fields: map[string]string{"body": "invalid JSON body"}}
	}
	return validateStruct(dst)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Code: "validation_failed", Fields: verr.fields})
		return
	}
	writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
}

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := models.ParseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := models.ParseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}

type availabilityResponse struct {
	RoomID    int64  `json:"room_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}

type roomOfferResponse struct {
	Available     bool         `json:"available"`
	RoomID        int64        `json:"room_id,omitempty"`
	RoomName      string       `json:"room_name,omitempty"`
	PricePerNight models.Money `json:"price_per_night,omitempty"`
	TotalNights   int          `json:"total_nights,omitempty"`
	TotalAmount   models.Money `json:"total_amount,omitempty"`
}

type calendarDay struct {
	Date      string `json:"date"`
	Booked    bool   `json:"booked"`
	BookingID int64  `json:"booking_id,omitempty"`
}

type calendarResponse struct {
	RoomID int64         `json:"room_id"`
	Days   []calendarDay `json:"days"`
}

type ticketResponse struct {
	TicketID  string    `json:"ticket_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type verifiedResponse struct {
	TicketID string `json:"ticket_id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}
