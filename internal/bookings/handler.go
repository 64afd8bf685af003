package bookings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/padel-booking/internal/http/respond"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

const maxBodyBytes = 64 << 10

const (
	detailInvalidBody = "invalid request body"
	detailSlotTaken   = "This slot is already taken"
	detailNotOffered  = "This slot is not on the schedule"
	detailNotFound    = "booking not found"
)

// Handler handles HTTP requests for bookings
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new bookings handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// CreateBooking handles POST /api/bookings requests
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("failed to decode booking request", "error", err)
		respond.Detail(w, http.StatusBadRequest, detailInvalidBody)
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Detail(w, http.StatusUnprocessableEntity, verr.Message)
		case errors.Is(err, ErrInvalidRequest):
			respond.Detail(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrSlotTaken):
			respond.Detail(w, http.StatusConflict, detailSlotTaken)
		case errors.Is(err, ErrSlotNotOffered):
			respond.Detail(w, http.StatusUnprocessableEntity, detailNotOffered)
		default:
			h.logger.Error("failed to create booking", "error", err)
			respond.Detail(w, http.StatusInternalServerError, "failed to create booking")
		}
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}

// ListBookings handles GET /api/bookings requests
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err)
		respond.Detail(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	if list == nil {
		list = []*Booking{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// GetBooking handles GET /api/bookings/{bookingID} requests
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.Get(r.Context(), chi.URLParam(r, "bookingID"))
	if errors.Is(err, ErrNotFound) {
		respond.Detail(w, http.StatusNotFound, detailNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load booking", "error", err)
		respond.Detail(w, http.StatusInternalServerError, "failed to load booking")
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}
