package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/padel-booking/internal/bookings"
	"github.com/wolfman30/padel-booking/internal/observability/metrics"
	"github.com/wolfman30/padel-booking/internal/schedule"
	"github.com/wolfman30/padel-booking/internal/stats"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

func newTestRouter(t *testing.T, rateLimit int) http.Handler {
	t.Helper()

	logger := logging.Default()
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)

	repo := bookings.NewInMemoryRepository()
	gen := schedule.Generator{
		Days:     2,
		Times:    []string{"10:00", "11:00"},
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC) },
	}
	scheduleSvc := schedule.NewService(gen, repo, nil, m, logger)
	bookingSvc := bookings.NewService(repo, logger, bookings.WithSlotChecker(scheduleSvc), bookings.WithMetrics(m))

	return New(&Config{
		Logger:             logger,
		ScheduleHandler:    schedule.NewHandler(scheduleSvc, logger),
		BookingsHandler:    bookings.NewHandler(bookingSvc, logger),
		StatsHandler:       stats.NewHandler(stats.Figures{Players: 1247, GamesPerMonth: 234, Rating: 4.9}, stats.NewListCounter(bookingSvc), logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
		RateLimitPerSecond: rateLimit,
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterAPIRoot(t *testing.T) {
	router := newTestRouter(t, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/", nil))

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["message"] != "Padel Center API" {
		t.Fatalf("unexpected root response %v", resp)
	}
}

func TestRouterBookingMarksSlotUnavailable(t *testing.T) {
	router := newTestRouter(t, 0)

	body := `{"name":"Ann","phone":"123","date":"2025-06-10","time":"10:00","format_type":"open_game"}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))
	var days []schedule.Day
	if err := json.NewDecoder(rr.Body).Decode(&days); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	if len(days) != 2 || days[0].Date != "2025-06-10" {
		t.Fatalf("unexpected schedule %+v", days)
	}
	if days[0].Slots[0].Available || !days[0].Slots[1].Available {
		t.Fatalf("expected only 10:00 to be taken, got %+v", days[0].Slots)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString(body))
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))
	var list []bookings.Booking
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode bookings: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one booking, got %d", len(list))
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/bookings/"+list[0].ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for booking lookup, got %d", rr.Code)
	}
}

func TestRouterStatsAndReviews(t *testing.T) {
	router := newTestRouter(t, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var summary map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if summary["players"] != float64(1247) || summary["games_per_month"] != float64(234) || summary["rating"] != 4.9 {
		t.Fatalf("unexpected stats %v", summary)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats/formats", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for format breakdown, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reviews", nil))
	var reviews []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&reviews); err != nil {
		t.Fatalf("decode reviews: %v", err)
	}
	if len(reviews) != 4 {
		t.Fatalf("expected 4 reviews, got %d", len(reviews))
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, 0)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/schedule", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `padel_schedule_snapshots_total{cache="uncached"} 1`) {
		t.Fatalf("expected schedule counter in metrics output")
	}
}

func TestRouterNotFoundAndMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/schedule", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRouterRateLimitsAPI(t *testing.T) {
	router := newTestRouter(t, 1)

	var last int
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %d", last)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health should not be rate limited, got %d", rr.Code)
	}
}
