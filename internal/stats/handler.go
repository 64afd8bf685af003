package stats

import (
	"net/http"

	"github.com/wolfman30/padel-booking/internal/http/respond"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

// Handler serves the stats endpoints.
type Handler struct {
	figures Figures
	counter Counter
	logger  *logging.Logger
}

// NewHandler creates a stats handler. counter may be nil, in which case only
// the configured figures are served.
func NewHandler(figures Figures, counter Counter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{figures: figures, counter: counter, logger: logger}
}

// GetStats handles GET /api/stats. A failing counter degrades to the static
// figures; the section is decorative.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	summary := Summary{
		Players:       h.figures.Players,
		GamesPerMonth: h.figures.GamesPerMonth,
		Rating:        h.figures.Rating,
	}
	if h.counter != nil {
		n, err := h.counter.Count(r.Context())
		if err != nil {
			h.logger.Warn("failed to count bookings", "error", err)
		} else {
			summary.Bookings = &n
		}
	}
	respond.JSON(w, http.StatusOK, summary)
}

// GetFormatBreakdown handles GET /api/stats/formats.
func (h *Handler) GetFormatBreakdown(w http.ResponseWriter, r *http.Request) {
	if h.counter == nil {
		respond.Detail(w, http.StatusNotFound, "booking counts unavailable")
		return
	}
	rows, err := Breakdown(r.Context(), h.counter)
	if err != nil {
		h.logger.Error("failed to count bookings by format", "error", err)
		respond.Detail(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	respond.JSON(w, http.StatusOK, rows)
}
