package queue

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cliniccore/clinic-ops-platform/internal/appointments"
	"github.com/cliniccore/clinic-ops-platform/internal/observability/metrics"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// HandlerConfig wires the queue HTTP surface.
type HandlerConfig struct {
	Engine  *Engine
	Metrics *metrics.QueueMetrics
	Logger  *logging.Logger
}

// Handler exposes the secretary and doctor queue commands over HTTP.
type Handler struct {
	engine  *Engine
	metrics *metrics.QueueMetrics
	logger  *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{engine: cfg.Engine, metrics: cfg.Metrics, logger: cfg.Logger}
}

// Routes mounts the queue command endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/worklist", h.Worklist)
	r.Get("/current", h.Current)
	r.Get("/history/{phone}", h.History)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/swap-next", h.SwapNext)
	r.Post("/{id}/renumber", h.Renumber)
	r.Post("/{id}/finish", h.Finish)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/file", h.AttachFile)
}

// Worklist returns today's appointments with per-row action flags.
// Route: GET /api/queue/worklist
func (h *Handler) Worklist(w http.ResponseWriter, r *http.Request) {
	rows, err := h.engine.Worklist(r.Context())
	if err != nil {
		h.logger.Error("queue worklist failed", "error", err)
		http.Error(w, "failed to load worklist", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []WorklistRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": h.engine.Today(), "appointments": rows})
}

// Current returns the doctor's active patient, or null when the queue is empty.
// Route: GET /api/queue/current
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	appt, err := h.engine.CurrentPatient(r.Context())
	if err != nil {
		h.logger.Error("queue current failed", "error", err)
		http.Error(w, "failed to load current patient", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"current": appt})
}

// History returns a patient's full visit history, newest first.
// Route: GET /api/queue/history/{phone}
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(chi.URLParam(r, "phone"))
	if phone == "" {
		http.Error(w, "missing phone", http.StatusBadRequest)
		return
	}
	records, err := h.engine.History(r.Context(), phone)
	if err != nil {
		h.logger.Error("queue history failed", "error", err, "phone", phone)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*appointments.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": records})
}

// Confirm assigns a queue number and moves the record to confirmed.
// Route: POST /api/queue/{id}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	num, err := h.engine.Confirm(r.Context(), id)
	if err != nil {
		h.commandError(w, "confirm", id, err)
		return
	}
	h.metrics.ObserveCommand("confirm", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "queue_number": num})
}

// SwapNext exchanges queue positions with the immediate successor.
// Route: POST /api/queue/{id}/swap-next
func (h *Handler) SwapNext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.engine.SwapWithNext(r.Context(), id)
	if err != nil {
		h.commandError(w, "swap", id, err)
		return
	}
	h.metrics.ObserveCommand("swap_next", "ok")
	writeJSON(w, http.StatusOK, result)
}

type renumberRequest struct {
	QueueNumber int `json:"queue_number"`
}

// Renumber applies an operator-chosen queue number.
// Route: POST /api/queue/{id}/renumber
func (h *Handler) Renumber(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req renumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueNumber <= 0 {
		http.Error(w, "queue_number must be positive", http.StatusBadRequest)
		return
	}

	if err := h.engine.Renumber(r.Context(), id, req.QueueNumber); err != nil {
		h.commandError(w, "renumber", id, err)
		return
	}
	h.metrics.ObserveCommand("renumber", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "queue_number": req.QueueNumber})
}

type finishRequest struct {
	Notes    string `json:"notes"`
	FileLink string `json:"file_link"`
}

// Finish completes the active session with the doctor's notes.
// Route: POST /api/queue/{id}/finish
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req finishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.engine.Finish(r.Context(), id, req.Notes, req.FileLink); err != nil {
		h.commandError(w, "finish", id, err)
		return
	}
	h.metrics.ObserveCommand("finish", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": appointments.StatusDone})
}

// Cancel withdraws a non-completed appointment.
// Route: POST /api/queue/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.Cancel(r.Context(), id); err != nil {
		h.commandError(w, "cancel", id, err)
		return
	}
	h.metrics.ObserveCommand("cancel", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": appointments.StatusCancelled})
}

type attachFileRequest struct {
	URL string `json:"url"`
}

// AttachFile stores an external document link on the record.
// Route: POST /api/queue/{id}/file
func (h *Handler) AttachFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req attachFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.AttachFile(r.Context(), id, req.URL); err != nil {
		h.commandError(w, "attach_file", id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "file_link": req.URL})
}

func (h *Handler) commandError(w http.ResponseWriter, command, id string, err error) {
	h.metrics.ObserveCommand(command, "error")
	switch {
	case errors.Is(err, appointments.ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrNotConfirmable), errors.Is(err, ErrNotInSession), errors.Is(err, ErrAlreadyDone):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("queue command failed", "command", command, "id", id, "error", err)
		http.Error(w, "queue command failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
