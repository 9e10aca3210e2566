package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memData struct {
	articles map[int64]Article
	comments map[int64]Comment
	reports  map[int64]Report
	users    map[string]User

	nextArticleID int64
	nextCommentID int64
	nextReportID  int64
}

func newMemData() *memData {
	return &memData{
		articles: make(map[int64]Article),
		comments: make(map[int64]Comment),
		reports:  make(map[int64]Report),
		users:    make(map[string]User),
	}
}

// clone copies the maps. Pointer fields inside rows are never mutated in
// place, so sharing them between snapshots is safe.
func (d *memData) clone() *memData {
	out := &memData{
		articles:      make(map[int64]Article, len(d.articles)),
		comments:      make(map[int64]Comment, len(d.comments)),
		reports:       make(map[int64]Report, len(d.reports)),
		users:         make(map[string]User, len(d.users)),
		nextArticleID: d.nextArticleID,
		nextCommentID: d.nextCommentID,
		nextReportID:  d.nextReportID,
	}
	for k, v := range d.articles {
		out.articles[k] = v
	}
	for k, v := range d.comments {
		out.comments[k] = v
	}
	for k, v := range d.reports {
		out.reports[k] = v
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	return out
}

// InMemoryStore is a development and test implementation of Store.
// Transactions run against a private snapshot that replaces the live data
// only when fn succeeds.
type InMemoryStore struct {
	mu   *sync.RWMutex
	data *memData
	inTx bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{mu: &sync.RWMutex{}, data: newMemData()}
}

var _ Store = (*InMemoryStore)(nil)

// lock takes the write lock unless the caller already holds it through WithTx.
func (s *InMemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *InMemoryStore) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *InMemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.data.clone()
	tx := &InMemoryStore{mu: s.mu, data: snapshot, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	*s.data = *snapshot
	return nil
}

func nowUTC(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func sortCommentsAsc(cs []Comment) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}
