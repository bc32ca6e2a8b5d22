package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps content in memory for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	articles []*Article
	faqs     []*FAQ
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) CreateArticle(ctx context.Context, article *Article) (*Article, error) {
	stored := *article
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now().UTC().Format(timestampLayout)

	s.mu.Lock()
	s.articles = append(s.articles, &stored)
	s.mu.Unlock()

	out := stored
	return &out, nil
}

func (s *MemoryStore) ListArticles(ctx context.Context, limit int) ([]*Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Article, 0, len(s.articles))
	for _, a := range s.articles {
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteArticle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.articles {
		if a.ID == id {
			s.articles = append(s.articles[:i], s.articles[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateFAQ(ctx context.Context, faq *FAQ) (*FAQ, error) {
	stored := *faq
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now().UTC().Format(timestampLayout)

	s.mu.Lock()
	s.faqs = append(s.faqs, &stored)
	s.mu.Unlock()

	out := stored
	return &out, nil
}

func (s *MemoryStore) ListFAQs(ctx context.Context, limit int) ([]*FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*FAQ, 0, len(s.faqs))
	for _, f := range s.faqs {
		copied := *f
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteFAQ(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.faqs {
		if f.ID == id {
			s.faqs = append(s.faqs[:i], s.faqs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
