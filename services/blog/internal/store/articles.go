package store

import (
	"context"
	"time"
)

// Article is a blog post that comments attach to.
type Article struct {
	ID        int64      `json:"id"`
	AuthorID  string     `json:"author_id"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Version   int        `json:"version"`
}

// ArticleStore defines the contract for article persistence.
type ArticleStore interface {
	CreateArticle(ctx context.Context, a Article) (Article, error)
	GetArticle(ctx context.Context, id int64) (Article, error)
	// ListArticles returns articles newest first (created_at DESC, id DESC).
	// limit <= 0 means no limit.
	ListArticles(ctx context.Context, limit int) ([]Article, error)
	// UpdateArticle writes title, summary and content when a.Version matches
	// the stored version, then bumps it. A stale version yields ErrConflict.
	UpdateArticle(ctx context.Context, a Article) (Article, error)
	// DeleteArticle removes the article together with its comments and their reports.
	DeleteArticle(ctx context.Context, id int64) error
}
