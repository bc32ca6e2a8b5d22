package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

type fakeDrafter struct {
	lastType   string
	lastPrompt string
	text       string
}

func (f *fakeDrafter) DraftContent(ctx context.Context, contentType, prompt string) string {
	f.lastType = contentType
	f.lastPrompt = prompt
	return f.text
}

func newContentFixture(t *testing.T) (*chi.Mux, *MemoryStore, *fakeDrafter) {
	t.Helper()
	store := NewMemoryStore()
	drafter := &fakeDrafter{text: "drafted"}
	handler := NewHandler(HandlerConfig{Store: store, Drafter: drafter, Logger: logging.Default()})

	// Same registration split as the API router: reads are public,
	// writes sit behind staff auth.
	r := chi.NewRouter()
	r.Get("/api/content/articles", handler.ListArticles)
	r.Post("/api/content/articles", handler.CreateArticle)
	r.Delete("/api/content/articles/{id}", handler.DeleteArticle)
	r.Get("/api/content/faqs", handler.ListFAQs)
	r.Post("/api/content/faqs", handler.CreateFAQ)
	r.Delete("/api/content/faqs/{id}", handler.DeleteFAQ)
	r.Post("/api/ai/generate", handler.Generate)
	return r, store, drafter
}

func TestCreateAndListArticles(t *testing.T) {
	router, _, _ := newContentFixture(t)

	body := `{"title":"نصائح للضغط","body":"<p>قلل الملح</p>"}`
	req := httptest.NewRequest(http.MethodPost, "/api/content/articles", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/content/articles", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var out struct {
		Articles []*Article `json:"articles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Articles) != 1 || out.Articles[0].Title != "نصائح للضغط" {
		t.Errorf("articles = %+v", out.Articles)
	}
}

func TestCreateArticleDerivesSnippet(t *testing.T) {
	router, store, _ := newContentFixture(t)

	body := `{"title":"t","body":"<h2>Heading</h2><p>First   paragraph</p>","author":"Dr. Omar","image_url":"https://img.example/x.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/api/content/articles", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	articles, _ := store.ListArticles(context.Background(), 0)
	if len(articles) != 1 {
		t.Fatalf("articles = %d", len(articles))
	}
	if articles[0].Snippet != "Heading First paragraph" {
		t.Errorf("snippet = %q", articles[0].Snippet)
	}
	if articles[0].Author != "Dr. Omar" || articles[0].ImageURL == "" {
		t.Errorf("article = %+v", articles[0])
	}
}

func TestSnippetTruncatesLongBodies(t *testing.T) {
	long := strings.Repeat("word ", 60)
	snippet := Snippet("<p>" + long + "</p>")
	if !strings.HasSuffix(snippet, "...") {
		t.Errorf("snippet = %q", snippet)
	}
	if got := len([]rune(snippet)); got > 153 {
		t.Errorf("snippet length = %d", got)
	}
}

func TestCreateArticleRequiresFields(t *testing.T) {
	router, _, _ := newContentFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/content/articles", strings.NewReader(`{"title":"","body":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestDeleteArticle(t *testing.T) {
	router, store, _ := newContentFixture(t)
	article, err := store.CreateArticle(context.Background(), &Article{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/content/articles/"+article.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}

	remaining, _ := store.ListArticles(context.Background(), 0)
	if len(remaining) != 0 {
		t.Errorf("articles after delete = %d", len(remaining))
	}
}

func TestDeleteMissingArticleIs404(t *testing.T) {
	router, _, _ := newContentFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/content/articles/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestListFAQsNewestFirstWithLimit(t *testing.T) {
	router, store, _ := newContentFixture(t)
	for _, q := range []string{"q1", "q2", "q3"} {
		if _, err := store.CreateFAQ(context.Background(), &FAQ{Question: q, Answer: "a"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/content/faqs?limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out struct {
		FAQs []*FAQ `json:"faqs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.FAQs) != 2 {
		t.Errorf("faqs = %d", len(out.FAQs))
	}
}

func TestGenerateReturnsPlainText(t *testing.T) {
	router, _, drafter := newContentFixture(t)

	body := `{"prompt":"مرض السكري","type":"article"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("content type = %s", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "drafted" {
		t.Errorf("body = %s", rec.Body.String())
	}
	if drafter.lastType != "article" || drafter.lastPrompt != "مرض السكري" {
		t.Errorf("drafter got type=%q prompt=%q", drafter.lastType, drafter.lastPrompt)
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	router, _, _ := newContentFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate", strings.NewReader(`{"type":"article"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}
