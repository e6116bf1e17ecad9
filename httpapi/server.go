package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/cancelreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/completereservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/confirmreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/createreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/marknoshow"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/refundreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/requestrefund"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/reschedulereservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/readapi"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

const defaultRequestTimeout = 10 * time.Second

// Handler is satisfied by shell.CommandHandler.
type Handler[C shell.Command] interface {
	Handle(ctx context.Context, command C) (shell.HandlerResult, error)
}

// Commands bundles one handler per command.
type Commands struct {
	Create     Handler[createreservation.Command]
	Confirm    Handler[confirmreservation.Command]
	Cancel     Handler[cancelreservation.Command]
	Reschedule Handler[reschedulereservation.Command]
	Complete   Handler[completereservation.Command]
	NoShow     Handler[marknoshow.Command]
	Request    Handler[requestrefund.Command]
	Refund     Handler[refundreservation.Command]
}

// Freshness brings the read model up to the latest write. The projector implements it.
type Freshness interface {
	CatchUp(ctx context.Context) error
}

// Server serves the HTTP API.
type Server struct {
	commands        Commands
	reads           readapi.Service
	freshness       Freshness
	logger          *slog.Logger
	metrics         eventstore.MetricsCollector
	now             func() time.Time
	newID           func() string
	defaultDuration time.Duration
	requestTimeout  time.Duration
	rateLimit       RateLimit
}

// Option configures a Server.
type Option func(*Server)

// WithFreshness makes command responses carry the reservation number of freshly created reservations.
func WithFreshness(freshness Freshness) Option {
	return func(s *Server) { s.freshness = freshness }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(s *Server) { s.metrics = collector }
}

// WithClock sets the source of command timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithIDGenerator sets how reservation ids are generated when a create request carries none.
func WithIDGenerator(newID func() string) Option {
	return func(s *Server) { s.newID = newID }
}

// WithDefaultSlotDuration sets the window length used when a request gives neither end nor duration.
func WithDefaultSlotDuration(duration time.Duration) Option {
	return func(s *Server) { s.defaultDuration = duration }
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.requestTimeout = timeout }
}

func WithRateLimit(limit RateLimit) Option {
	return func(s *Server) { s.rateLimit = limit }
}

// NewServer creates a Server.
func NewServer(commands Commands, reads readapi.Service, options ...Option) *Server {
	s := &Server{
		commands:        commands,
		reads:           reads,
		logger:          slog.New(slog.DiscardHandler),
		now:             time.Now,
		newID:           func() string { return uuid.New().String() },
		defaultDuration: core.DefaultSlotDuration,
		requestTimeout:  defaultRequestTimeout,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger, s.metrics))
	r.Use(middleware.Recoverer)

	if s.rateLimit.RequestsPerSecond > 0 {
		r.Use(newClientLimiters(s.rateLimit).middleware(s.logger, s.metrics))
	}

	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(commandContext)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", s.createReservation)
		r.Get("/", s.listReservations)
		r.Get("/upcoming", s.upcomingReservations)
		r.Get("/by-number/{number}", s.getReservationByNumber)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getReservation)
			r.Get("/transitions", s.allowedTransitions)
			r.Post("/confirm", s.confirmReservation)
			r.Post("/cancel", s.cancelReservation)
			r.Post("/reschedule", s.rescheduleReservation)
			r.Post("/complete", s.completeReservation)
			r.Post("/no-show", s.markNoShow)
			r.Post("/refund-request", s.requestRefund)
			r.Post("/refund", s.refundReservation)
		})
	})

	r.Get("/doctors/{doctorId}/schedule", s.doctorSchedule)
	r.Get("/hospitals/{hospitalId}/stats", s.hospitalStats)
	r.Get("/availability", s.availability)

	return r
}
