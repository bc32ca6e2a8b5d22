package clinic

import (
	"encoding/json"
	"net/http"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// Invalidator signals live views after a settings change.
type Invalidator interface {
	Invalidate(collection string)
}

// HandlerConfig wires the settings HTTP surface.
type HandlerConfig struct {
	Store  *Store
	Feed   Invalidator
	Logger *logging.Logger
}

// Handler exposes the settings singleton to the secretary dashboard.
type Handler struct {
	store  *Store
	feed   Invalidator
	logger *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{store: cfg.Store, feed: cfg.Feed, logger: cfg.Logger}
}

// Get returns the current settings, defaults included.
// Route: GET /api/settings
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("load clinic settings failed", "error", err)
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settings)
}

// Put replaces the settings singleton.
// Route: PUT /api/settings
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var settings Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := settings.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.Set(r.Context(), &settings); err != nil {
		h.logger.Error("save clinic settings failed", "error", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	if h.feed != nil {
		h.feed.Invalidate("settings")
	}

	h.logger.Info("clinic settings updated", "holiday_mode", settings.HolidayMode)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(&settings)
}
