// Package articles provides the minimal article lifecycle comments hang off.
package articles

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

type Service struct {
	store store.ArticleStore
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st store.ArticleStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, log: log.Named("articles"), now: time.Now}
}

type Input struct {
	Title   string `json:"title" validate:"required,notblank,max=200"`
	Summary string `json:"summary" validate:"max=500"`
	Content string `json:"content" validate:"required,notblank"`
	// Version is required on update and ignored on create.
	Version int `json:"version"`
}

func (in *Input) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	in.Content = strings.TrimSpace(in.Content)
}

var errArticleNotFound = apperr.NotFound("ARTICLE_NOT_FOUND", "Article not found")

func (s *Service) Create(ctx context.Context, actor permission.Actor, in Input) (store.Article, error) {
	if err := permission.CheckCreateArticle(actor); err != nil {
		return store.Article{}, err
	}
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return store.Article{}, err
	}
	a, err := s.store.CreateArticle(ctx, store.Article{
		AuthorID:  actor.UserID,
		Title:     in.Title,
		Summary:   in.Summary,
		Content:   in.Content,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return store.Article{}, s.internal("create_article", err)
	}
	s.log.Info("article created", zap.Int64("article_id", a.ID), zap.String("author_id", a.AuthorID))
	return a, nil
}

func (s *Service) Get(ctx context.Context, id int64) (store.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return store.Article{}, s.mapErr("get_article", id, err)
	}
	return a, nil
}

// List returns the newest articles first.
func (s *Service) List(ctx context.Context, limit int) ([]store.Article, error) {
	out, err := s.store.ListArticles(ctx, limit)
	if err != nil {
		return nil, s.internal("list_articles", err)
	}
	return out, nil
}

// Update replaces the article text when in.Version matches the stored version.
func (s *Service) Update(ctx context.Context, actor permission.Actor, id int64, in Input) (store.Article, error) {
	cur, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return store.Article{}, s.mapErr("get_article", id, err)
	}
	if err := permission.CheckEditArticle(actor, cur); err != nil {
		return store.Article{}, err
	}
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return store.Article{}, err
	}
	if in.Version <= 0 {
		return store.Article{}, apperr.Validation(validate.Code, "version is required", map[string]any{"version": "required"})
	}
	now := s.now().UTC()
	a, err := s.store.UpdateArticle(ctx, store.Article{
		ID: id, Title: in.Title, Summary: in.Summary, Content: in.Content, Version: in.Version, UpdatedAt: &now,
	})
	if err != nil {
		return store.Article{}, s.mapErr("update_article", id, err)
	}
	s.log.Info("article updated", zap.Int64("article_id", id), zap.Int("version", a.Version))
	return a, nil
}

// Delete removes the article with all its comments and their reports.
func (s *Service) Delete(ctx context.Context, actor permission.Actor, id int64) error {
	cur, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return s.mapErr("get_article", id, err)
	}
	if err := permission.CheckDeleteArticle(actor, cur); err != nil {
		return err
	}
	if err := s.store.DeleteArticle(ctx, id); err != nil {
		return s.mapErr("delete_article", id, err)
	}
	s.log.Info("article deleted", zap.Int64("article_id", id), zap.String("actor_id", actor.UserID))
	return nil
}

func (s *Service) mapErr(op string, id int64, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errArticleNotFound
	case errors.Is(err, store.ErrConflict):
		return apperr.Conflict("VERSION_CONFLICT", "The article was modified by someone else")
	}
	return s.internal(op, err, zap.Int64("article_id", id))
}

func (s *Service) internal(op string, err error, fields ...zap.Field) error {
	s.log.Error("store failure", append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	return apperr.Internal(err)
}
