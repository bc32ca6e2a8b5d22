// Package display serves the public waiting-room board.
package display

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cliniccore/clinic-ops-platform/internal/queue"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// PairProvider computes the current/next numbers for the board.
type PairProvider interface {
	DisplayPair(ctx context.Context) (queue.DisplayPair, error)
}

// Handler serves the board's polling fallback; live updates go over the
// websocket hub on the "display" topic.
type Handler struct {
	pairs  PairProvider
	logger *logging.Logger
}

func NewHandler(pairs PairProvider, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{pairs: pairs, logger: logger}
}

// Get returns the current/next pair. An empty queue yields placeholders,
// never an error.
// Route: GET /api/display
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	pair, err := h.pairs.DisplayPair(r.Context())
	if err != nil {
		h.logger.Error("display pair failed", "error", err)
		http.Error(w, "failed to load display", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pair)
}
