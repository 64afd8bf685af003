package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/padel-booking/internal/bookings"
	httpmiddleware "github.com/wolfman30/padel-booking/internal/http/middleware"
	"github.com/wolfman30/padel-booking/internal/http/respond"
	"github.com/wolfman30/padel-booking/internal/reviews"
	"github.com/wolfman30/padel-booking/internal/schedule"
	"github.com/wolfman30/padel-booking/internal/stats"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ScheduleHandler    *schedule.Handler
	BookingsHandler    *bookings.Handler
	StatsHandler       *stats.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitPerSecond int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond))

		api.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			respond.JSON(w, http.StatusOK, map[string]string{"message": "Padel Center API"})
		})
		if cfg.ScheduleHandler != nil {
			api.Get("/schedule", cfg.ScheduleHandler.GetSchedule)
		}
		if cfg.BookingsHandler != nil {
			api.Route("/bookings", func(b chi.Router) {
				b.Get("/", cfg.BookingsHandler.ListBookings)
				b.Post("/", cfg.BookingsHandler.CreateBooking)
				b.Get("/{bookingID}", cfg.BookingsHandler.GetBooking)
			})
		}
		if cfg.StatsHandler != nil {
			api.Get("/stats", cfg.StatsHandler.GetStats)
			api.Get("/stats/formats", cfg.StatsHandler.GetFormatBreakdown)
		}
		api.Get("/reviews", reviews.ListReviews)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Detail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Detail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}
