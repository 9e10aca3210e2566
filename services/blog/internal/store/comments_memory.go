package store

import (
	"context"
	"time"
)

func (s *InMemoryStore) CreateComment(_ context.Context, c Comment) (Comment, error) {
	defer s.lock()()

	if _, ok := s.data.articles[c.ArticleID]; !ok {
		return Comment{}, ErrNotFound
	}
	if c.ParentID != nil {
		parent, ok := s.data.comments[*c.ParentID]
		if !ok {
			return Comment{}, ErrNotFound
		}
		if parent.ArticleID != c.ArticleID {
			return Comment{}, ErrParentMismatch
		}
	}

	s.data.nextCommentID++
	c.ID = s.data.nextCommentID
	c.CreatedAt = nowUTC(c.CreatedAt)
	c.UpdatedAt = nil
	BlockState{}.apply(&c)
	c.Author, c.BlockedByUser = nil, nil
	s.data.comments[c.ID] = c
	return c, nil
}

func (s *InMemoryStore) GetComment(_ context.Context, id int64) (Comment, error) {
	defer s.rlock()()

	c, ok := s.data.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) ListArticleComments(_ context.Context, articleID int64) ([]Comment, error) {
	defer s.rlock()()

	out := []Comment{}
	for _, c := range s.data.comments {
		if c.ArticleID == articleID {
			out = append(out, c)
		}
	}
	sortCommentsAsc(out)
	return out, nil
}

func (s *InMemoryStore) ListChildren(_ context.Context, parentID int64) ([]Comment, error) {
	defer s.rlock()()
	out := s.children(parentID)
	sortCommentsAsc(out)
	return out, nil
}

func (s *InMemoryStore) ListDescendants(_ context.Context, rootID int64) ([]Comment, error) {
	defer s.rlock()()

	out := []Comment{}
	for _, c := range s.descendants(rootID) {
		out = append(out, s.data.comments[c])
	}
	sortCommentsAsc(out)
	return out, nil
}

func (s *InMemoryStore) children(parentID int64) []Comment {
	out := []Comment{}
	for _, c := range s.data.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out
}

// descendants walks breadth-first from rootID. The visited set keeps a
// corrupted parent chain from looping forever.
func (s *InMemoryStore) descendants(rootID int64) []int64 {
	visited := map[int64]bool{rootID: true}
	queue := []int64{rootID}
	var out []int64
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range s.children(id) {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			out = append(out, c.ID)
			queue = append(queue, c.ID)
		}
	}
	return out
}

func (s *InMemoryStore) UpdateCommentContent(_ context.Context, id int64, content string, at time.Time) (Comment, error) {
	defer s.lock()()

	c, ok := s.data.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	at = nowUTC(at)
	c.Content = content
	c.UpdatedAt = &at
	s.data.comments[id] = c
	return c, nil
}

func (s *InMemoryStore) SetCommentBlock(_ context.Context, id int64, b BlockState) (Comment, error) {
	defer s.lock()()

	c, ok := s.data.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	b.At = nowUTC(b.At)
	b.apply(&c)
	s.data.comments[id] = c
	return c, nil
}

func (s *InMemoryStore) DeleteComment(_ context.Context, id int64) error {
	defer s.lock()()

	if _, ok := s.data.comments[id]; !ok {
		return ErrNotFound
	}
	s.deleteCommentTree(id)
	return nil
}

// deleteCommentTree mirrors ON DELETE CASCADE: descendants and every report
// against the removed comments go with it.
func (s *InMemoryStore) deleteCommentTree(id int64) {
	doomed := map[int64]bool{id: true}
	for _, d := range s.descendants(id) {
		doomed[d] = true
	}
	s.dropComments(doomed)
}

func (s *InMemoryStore) dropComments(doomed map[int64]bool) {
	for cid := range doomed {
		delete(s.data.comments, cid)
	}
	for rid, r := range s.data.reports {
		if doomed[r.CommentID] {
			delete(s.data.reports, rid)
		}
	}
}
