// Package api serves the booking HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"roomstay/internal/config"
	"roomstay/internal/domain"
	"roomstay/internal/export"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// CodeSender delivers verification codes to an email address.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

type Deps struct {
	Bookings     domain.BookingService
	Availability domain.AvailabilityService
	Verification domain.VerificationService
	CodeSender   CodeSender
	Exporter     *export.Exporter
	Health       func(ctx context.Context) error
}

type HTTPServer struct {
	cfg    config.APIConfig
	deps   Deps
	auth   *APIKeyAuth
	tokens *TokenVerifier
	server *http.Server
	logger *zerolog.Logger
	now    func() time.Time
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if deps.Exporter == nil {
		deps.Exporter = export.NewExporter("", logger)
	}

	s := &HTTPServer{
		cfg:    cfg,
		deps:   deps,
		auth:   NewAPIKeyAuth(cfg),
		tokens: NewTokenVerifier(cfg.JWT),
		logger: logger,
		now:    time.Now,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, recoverer(s.logger), accessLog(s.logger))
	if len(s.cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader, apiKeyHeaderDefault, apiExtraHeaderDefault},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(permReadAvailability))
			r.Get("/rooms/{roomID}/availability", s.handleRoomAvailability)
			r.Get("/rooms/{roomID}/calendar", s.handleRoomCalendar)
			r.Get("/properties/{propertyID}/availability", s.handlePropertyAvailability)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(permReadBookings), s.tokens.RequireActor)
			r.Get("/bookings", s.handleListBookings)
			r.Get("/bookings/{bookingID}", s.handleGetBooking)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(permWriteBookings), s.tokens.RequireActor)
			r.Post("/bookings", s.handleCreateBooking)
			r.Patch("/bookings/{bookingID}", s.handleModifyBooking)
			r.Post("/bookings/{bookingID}/cancel", s.handleCancelBooking)
			r.Post("/bookings/{bookingID}/confirm", s.handleConfirmBooking)
			r.Post("/bookings/{bookingID}/payment", s.handlePayment)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(permVendor), s.tokens.RequireActor)
			r.Get("/vendor/bookings", s.handleVendorBookings)
			r.Get("/vendor/bookings/export", s.handleVendorExport)
			r.Get("/vendor/stats", s.handleVendorStats)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(permVerification))
			r.Post("/verification/tickets", s.handleIssueTicket)
			r.Post("/verification/tickets/{ticketID}/verify", s.handleVerifyTicket)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
