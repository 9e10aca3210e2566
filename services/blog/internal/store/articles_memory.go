package store

import (
	"context"
	"sort"
	"time"
)

func (s *InMemoryStore) CreateArticle(_ context.Context, a Article) (Article, error) {
	defer s.lock()()

	s.data.nextArticleID++
	a.ID = s.data.nextArticleID
	a.CreatedAt = nowUTC(a.CreatedAt)
	a.UpdatedAt = nil
	a.Version = 1
	s.data.articles[a.ID] = a
	return a, nil
}

func (s *InMemoryStore) GetArticle(_ context.Context, id int64) (Article, error) {
	defer s.rlock()()

	a, ok := s.data.articles[id]
	if !ok {
		return Article{}, ErrNotFound
	}
	return a, nil
}

func (s *InMemoryStore) ListArticles(_ context.Context, limit int) ([]Article, error) {
	defer s.rlock()()

	out := make([]Article, 0, len(s.data.articles))
	for _, a := range s.data.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) UpdateArticle(_ context.Context, a Article) (Article, error) {
	defer s.lock()()

	cur, ok := s.data.articles[a.ID]
	if !ok {
		return Article{}, ErrNotFound
	}
	if cur.Version != a.Version {
		return Article{}, ErrConflict
	}
	now := time.Now().UTC()
	if a.UpdatedAt != nil {
		now = a.UpdatedAt.UTC()
	}
	cur.Title, cur.Summary, cur.Content = a.Title, a.Summary, a.Content
	cur.UpdatedAt = &now
	cur.Version++
	s.data.articles[a.ID] = cur
	return cur, nil
}

func (s *InMemoryStore) DeleteArticle(_ context.Context, id int64) error {
	defer s.lock()()

	if _, ok := s.data.articles[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.articles, id)
	doomed := make(map[int64]bool)
	for cid, c := range s.data.comments {
		if c.ArticleID == id {
			doomed[cid] = true
		}
	}
	s.dropComments(doomed)
	return nil
}
