package moderation

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/blog-platform/services/blog/internal/store"
)

func (s *Service) hydrateOne(ctx context.Context, r store.Report) (store.Report, error) {
	rs := []store.Report{r}
	if err := s.hydrate(ctx, rs); err != nil {
		return store.Report{}, err
	}
	return rs[0], nil
}

// hydrate resolves each report's comment, reporter and reviewer.
func (s *Service) hydrate(ctx context.Context, rs []store.Report) error {
	if len(rs) == 0 {
		return nil
	}
	comments := make(map[int64]store.Comment)
	userSet := make(map[string]bool)
	for _, r := range rs {
		if _, ok := comments[r.CommentID]; !ok {
			c, err := s.store.GetComment(ctx, r.CommentID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return s.internal("get_comment", err, zap.Int64("comment_id", r.CommentID))
			}
			comments[r.CommentID] = c
			if c.ID != 0 {
				userSet[c.AuthorID] = true
			}
		}
		userSet[r.ReporterID] = true
		if r.ReviewerID != nil {
			userSet[*r.ReviewerID] = true
		}
	}
	ids := make([]string, 0, len(userSet))
	for id := range userSet {
		ids = append(ids, id)
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return s.internal("get_users", err)
	}

	for i := range rs {
		if c := comments[rs[i].CommentID]; c.ID != 0 {
			if u, ok := users[c.AuthorID]; ok {
				c.Author = &u
			}
			rs[i].Comment = &c
		}
		if u, ok := users[rs[i].ReporterID]; ok {
			rs[i].Reporter = &u
		}
		if rs[i].ReviewerID != nil {
			if u, ok := users[*rs[i].ReviewerID]; ok {
				rs[i].Reviewer = &u
			}
		}
	}
	return nil
}

func (s *Service) hydrateComment(ctx context.Context, c store.Comment) (store.Comment, error) {
	ids := []string{c.AuthorID}
	if c.BlockedBy != nil {
		ids = append(ids, *c.BlockedBy)
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return store.Comment{}, s.internal("get_users", err, zap.Int64("comment_id", c.ID))
	}
	if u, ok := users[c.AuthorID]; ok {
		c.Author = &u
	}
	if c.BlockedBy != nil {
		if u, ok := users[*c.BlockedBy]; ok {
			c.BlockedByUser = &u
		}
	}
	return c, nil
}
