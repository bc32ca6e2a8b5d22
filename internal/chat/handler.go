package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// Invalidator signals live views after a new message.
type Invalidator interface {
	Invalidate(collection string)
}

// HandlerConfig wires the staff chat HTTP surface.
type HandlerConfig struct {
	Repo   Repository
	Feed   Invalidator
	Logger *logging.Logger
}

// Handler exposes the internal chat board to staff dashboards.
type Handler struct {
	repo   Repository
	feed   Invalidator
	logger *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{repo: cfg.Repo, feed: cfg.Feed, logger: cfg.Logger}
}

// List returns the recent messages in display order.
// Route: GET /api/chat
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.repo.ListRecent(r.Context())
	if err != nil {
		h.logger.Error("list chat messages failed", "error", err)
		http.Error(w, "failed to load messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": messages})
}

type sendRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Send appends a message to the board.
// Route: POST /api/chat
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Sender) == "" || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "sender and text are required", http.StatusBadRequest)
		return
	}

	msg, err := h.repo.Append(r.Context(), &Message{Sender: req.Sender, Text: req.Text})
	if err != nil {
		h.logger.Error("append chat message failed", "error", err)
		http.Error(w, "failed to send message", http.StatusInternalServerError)
		return
	}
	if h.feed != nil {
		h.feed.Invalidate("chat")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(msg)
}
