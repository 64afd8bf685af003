package schedule

import (
	"net/http"

	"github.com/wolfman30/padel-booking/internal/http/respond"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

// Handler serves the availability snapshot.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new schedule handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// GetSchedule handles GET /api/schedule requests
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to build schedule", "error", err)
		respond.Detail(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	if days == nil {
		days = []Day{}
	}
	respond.JSON(w, http.StatusOK, days)
}
