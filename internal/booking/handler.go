package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cliniccore/clinic-ops-platform/internal/observability/metrics"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// HandlerConfig wires the public booking endpoint.
type HandlerConfig struct {
	Service *Service
	Metrics *metrics.QueueMetrics
	Logger  *logging.Logger
}

// Handler exposes booking intake to the public site.
type Handler struct {
	service *Service
	metrics *metrics.QueueMetrics
	logger  *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{service: cfg.Service, metrics: cfg.Metrics, logger: cfg.Logger}
}

// Submit admits a booking request.
// Route: POST /api/bookings
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	confirmation, err := h.service.Submit(r.Context(), req)
	if err != nil {
		h.rejectOrFail(w, err)
		return
	}

	h.metrics.ObserveBooking("accepted")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(confirmation)
}

func (h *Handler) rejectOrFail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingName),
		errors.Is(err, ErrMissingPhone),
		errors.Is(err, ErrMissingComplaint),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrClosedWeekday):
		h.metrics.ObserveBooking("rejected")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrClinicClosed):
		h.metrics.ObserveBooking("rejected")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.metrics.ObserveBooking("error")
		h.logger.Error("booking submission failed", "error", err)
		http.Error(w, "failed to submit booking", http.StatusInternalServerError)
	}
}
