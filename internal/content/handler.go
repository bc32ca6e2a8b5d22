package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

const defaultListLimit = 50

// Drafter produces AI-assisted draft text for the content manager.
type Drafter interface {
	DraftContent(ctx context.Context, contentType, prompt string) string
}

// HandlerConfig wires the content-manager HTTP surface.
type HandlerConfig struct {
	Store   Store
	Drafter Drafter
	Logger  *logging.Logger
}

// Handler exposes article and FAQ management plus AI drafting.
type Handler struct {
	store   Store
	drafter Drafter
	logger  *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{store: cfg.Store, drafter: cfg.Drafter, logger: cfg.Logger}
}

// ListArticles returns published articles, newest first.
// Route: GET /api/content/articles?limit=N
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.store.ListArticles(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.Error("list articles failed", "error", err)
		http.Error(w, "failed to list articles", http.StatusInternalServerError)
		return
	}
	if articles == nil {
		articles = []*Article{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

type createArticleRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	ImageURL string `json:"image_url"`
	Author   string `json:"author"`
}

// CreateArticle publishes a new article. The list snippet is derived from
// the body when the author does not supply one.
// Route: POST /api/content/articles
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		http.Error(w, "title and body are required", http.StatusBadRequest)
		return
	}

	article, err := h.store.CreateArticle(r.Context(), &Article{
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.ImageURL,
		Author:   req.Author,
		Snippet:  Snippet(req.Body),
	})
	if err != nil {
		h.logger.Error("create article failed", "error", err)
		http.Error(w, "failed to create article", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

// DeleteArticle removes an article.
// Route: DELETE /api/content/articles/{id}
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.store.DeleteArticle)
}

// ListFAQs returns published FAQs, newest first.
// Route: GET /api/content/faqs?limit=N
func (h *Handler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.store.ListFAQs(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.Error("list faqs failed", "error", err)
		http.Error(w, "failed to list faqs", http.StatusInternalServerError)
		return
	}
	if faqs == nil {
		faqs = []*FAQ{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"faqs": faqs})
}

type createFAQRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CreateFAQ publishes a new FAQ entry.
// Route: POST /api/content/faqs
func (h *Handler) CreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req createFAQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		http.Error(w, "question and answer are required", http.StatusBadRequest)
		return
	}

	faq, err := h.store.CreateFAQ(r.Context(), &FAQ{Question: req.Question, Answer: req.Answer})
	if err != nil {
		h.logger.Error("create faq failed", "error", err)
		http.Error(w, "failed to create faq", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, faq)
}

// DeleteFAQ removes a FAQ entry.
// Route: DELETE /api/content/faqs/{id}
func (h *Handler) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.store.DeleteFAQ)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Type   string `json:"type"`
}

// Generate drafts content with the AI assistant. The response is plain
// text; provider failures surface as fallback text, not an error status.
// Route: POST /api/ai/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	text := h.drafter.DraftContent(r.Context(), req.Type, req.Prompt)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) error) {
	id := chi.URLParam(r, "id")
	if err := fn(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete content failed", "id", id, "error", err)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
