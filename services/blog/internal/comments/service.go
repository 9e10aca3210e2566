// Package comments reads comment threads and owns the comment lifecycle:
// create, edit and delete. Moderation lives in package moderation.
package comments

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/apperr"
	"github.com/example/blog-platform/internal/platform/validate"
	"github.com/example/blog-platform/services/blog/internal/permission"
	"github.com/example/blog-platform/services/blog/internal/store"
)

// MaxContentLength is the comment size limit in characters.
const MaxContentLength = 5000

// Store is the persistence the service needs.
type Store interface {
	store.CommentStore
	store.ArticleStore
	store.UserStore
}

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: st, log: log.Named("comments"), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type CreateInput struct {
	ArticleID int64  `json:"article_id" validate:"gt=0"`
	ParentID  *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Content   string `json:"content" validate:"required,notblank,max=5000"`
}

type editInput struct {
	Content string `json:"content" validate:"required,notblank,max=5000"`
}

var (
	errCommentNotFound = apperr.NotFound("COMMENT_NOT_FOUND", "Comment not found")
	errArticleNotFound = apperr.NotFound("ARTICLE_NOT_FOUND", "Article not found")
	errParentNotFound  = apperr.NotFound("PARENT_NOT_FOUND", "Parent comment not found")
)

// ArticleComments returns the article's top-level threads, newest first, with
// replies oldest first. Without includeBlocked, blocked comments and
// everything under them are left out.
func (s *Service) ArticleComments(ctx context.Context, articleID int64, includeBlocked bool) ([]Node, error) {
	flat, err := s.store.ListArticleComments(ctx, articleID)
	if err != nil {
		return nil, s.internal("list_article_comments", err, zap.Int64("article_id", articleID))
	}
	if err := s.attachUsers(ctx, flat); err != nil {
		return nil, err
	}
	return newForest(flat, includeBlocked).threads(), nil
}

// Replies returns the nested replies under commentID. An unknown comment
// yields an empty list, and so does a blocked one unless includeBlocked.
func (s *Service) Replies(ctx context.Context, commentID int64, includeBlocked bool) ([]Node, error) {
	if !includeBlocked {
		root, err := s.store.GetComment(ctx, commentID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return []Node{}, nil
		case err != nil:
			return nil, s.internal("get_comment", err, zap.Int64("comment_id", commentID))
		case root.IsBlocked:
			return []Node{}, nil
		}
	}
	flat, err := s.store.ListDescendants(ctx, commentID)
	if err != nil {
		return nil, s.internal("list_descendants", err, zap.Int64("comment_id", commentID))
	}
	if err := s.attachUsers(ctx, flat); err != nil {
		return nil, err
	}
	return newForest(flat, includeBlocked).below(commentID), nil
}

// Get returns one comment with its author and immediate replies.
func (s *Service) Get(ctx context.Context, id int64) (Node, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return Node{}, s.mapNotFound("get_comment", err, errCommentNotFound, zap.Int64("comment_id", id))
	}
	children, err := s.store.ListChildren(ctx, id)
	if err != nil {
		return Node{}, s.internal("list_children", err, zap.Int64("comment_id", id))
	}
	all := append([]store.Comment{c}, children...)
	if err := s.attachUsers(ctx, all); err != nil {
		return Node{}, err
	}
	n := Node{Comment: all[0], Replies: make([]Node, 0, len(children))}
	for _, child := range all[1:] {
		n.Replies = append(n.Replies, Node{Comment: child, Replies: []Node{}})
	}
	return n, nil
}

func (s *Service) Create(ctx context.Context, actor permission.Actor, in CreateInput) (store.Comment, error) {
	if err := permission.CheckCreateComment(actor); err != nil {
		return store.Comment{}, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validate.Struct(in); err != nil {
		return store.Comment{}, err
	}
	if _, err := s.store.GetArticle(ctx, in.ArticleID); err != nil {
		return store.Comment{}, s.mapNotFound("get_article", err, errArticleNotFound, zap.Int64("article_id", in.ArticleID))
	}
	if in.ParentID != nil {
		parent, err := s.store.GetComment(ctx, *in.ParentID)
		if err != nil {
			return store.Comment{}, s.mapNotFound("get_parent", err, errParentNotFound, zap.Int64("parent_id", *in.ParentID))
		}
		if parent.ArticleID != in.ArticleID {
			return store.Comment{}, parentMismatch()
		}
	}

	c, err := s.store.CreateComment(ctx, store.Comment{
		ArticleID: in.ArticleID,
		AuthorID:  actor.UserID,
		ParentID:  in.ParentID,
		Content:   in.Content,
		CreatedAt: s.now().UTC(),
	})
	switch {
	case errors.Is(err, store.ErrParentMismatch):
		return store.Comment{}, parentMismatch()
	case errors.Is(err, store.ErrNotFound):
		return store.Comment{}, errParentNotFound
	case err != nil:
		return store.Comment{}, s.internal("create_comment", err, zap.Int64("article_id", in.ArticleID))
	}
	s.log.Info("comment created",
		zap.Int64("comment_id", c.ID), zap.Int64("article_id", c.ArticleID), zap.String("author_id", c.AuthorID))
	return s.withUsers(ctx, c)
}

func (s *Service) Edit(ctx context.Context, actor permission.Actor, id int64, content string) (store.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return store.Comment{}, s.mapNotFound("get_comment", err, errCommentNotFound, zap.Int64("comment_id", id))
	}
	if err := permission.CheckEditComment(actor, c); err != nil {
		return store.Comment{}, err
	}
	in := editInput{Content: strings.TrimSpace(content)}
	if err := validate.Struct(in); err != nil {
		return store.Comment{}, err
	}
	updated, err := s.store.UpdateCommentContent(ctx, id, in.Content, s.now().UTC())
	if err != nil {
		return store.Comment{}, s.mapNotFound("update_comment", err, errCommentNotFound, zap.Int64("comment_id", id))
	}
	s.log.Info("comment edited", zap.Int64("comment_id", id), zap.String("actor_id", actor.UserID))
	return s.withUsers(ctx, updated)
}

// Delete removes the comment, its replies and the reports against them.
func (s *Service) Delete(ctx context.Context, actor permission.Actor, id int64) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return s.mapNotFound("get_comment", err, errCommentNotFound, zap.Int64("comment_id", id))
	}
	if err := permission.CheckDeleteComment(actor, c); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return s.mapNotFound("delete_comment", err, errCommentNotFound, zap.Int64("comment_id", id))
	}
	s.log.Info("comment deleted", zap.Int64("comment_id", id), zap.String("actor_id", actor.UserID))
	return nil
}

func parentMismatch() error {
	return apperr.Validation("PARENT_ARTICLE_MISMATCH", "Parent comment belongs to another article",
		map[string]any{"parent_id": "same_article"})
}

func (s *Service) withUsers(ctx context.Context, c store.Comment) (store.Comment, error) {
	one := []store.Comment{c}
	if err := s.attachUsers(ctx, one); err != nil {
		return store.Comment{}, err
	}
	return one[0], nil
}

// attachUsers resolves author and blocked_by profiles in a single lookup.
func (s *Service) attachUsers(ctx context.Context, cs []store.Comment) error {
	if len(cs) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, c := range cs {
		for _, id := range []string{c.AuthorID, deref(c.BlockedBy)} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return s.internal("get_users", err)
	}
	for i := range cs {
		if u, ok := users[cs[i].AuthorID]; ok {
			cs[i].Author = &u
		}
		if cs[i].BlockedBy != nil {
			if u, ok := users[*cs[i].BlockedBy]; ok {
				cs[i].BlockedByUser = &u
			}
		}
	}
	return nil
}

func (s *Service) mapNotFound(op string, err error, nf *apperr.Error, fields ...zap.Field) error {
	if errors.Is(err, store.ErrNotFound) {
		return nf
	}
	return s.internal(op, err, fields...)
}

func (s *Service) internal(op string, err error, fields ...zap.Field) error {
	s.log.Error("store failure", append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	return apperr.Internal(err)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
