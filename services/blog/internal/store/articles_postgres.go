package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const articleColumns = `id, author_id, title, summary, content, created_at, updated_at, version`

func scanArticle(row pgx.Row) (Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Summary, &a.Content, &a.CreatedAt, &a.UpdatedAt, &a.Version)
	return a, err
}

func (s *PostgresStore) CreateArticle(ctx context.Context, a Article) (Article, error) {
	q := `INSERT INTO articles (author_id, title, summary, content, created_at)
	      VALUES ($1, $2, $3, $4, $5)
	      RETURNING ` + articleColumns
	return scanArticle(s.db.QueryRow(ctx, q, a.AuthorID, a.Title, a.Summary, a.Content, nowUTC(a.CreatedAt)))
}

func (s *PostgresStore) GetArticle(ctx context.Context, id int64) (Article, error) {
	a, err := scanArticle(s.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id))
	return a, notFound(err)
}

func (s *PostgresStore) ListArticles(ctx context.Context, limit int) ([]Article, error) {
	b := psql.Select(articleColumns).From("articles").OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateArticle(ctx context.Context, a Article) (Article, error) {
	at := time.Now().UTC()
	if a.UpdatedAt != nil {
		at = a.UpdatedAt.UTC()
	}
	q := `UPDATE articles
	      SET title = $2, summary = $3, content = $4, updated_at = $5, version = version + 1
	      WHERE id = $1 AND version = $6
	      RETURNING ` + articleColumns
	out, err := scanArticle(s.db.QueryRow(ctx, q, a.ID, a.Title, a.Summary, a.Content, at, a.Version))
	if !errors.Is(err, pgx.ErrNoRows) {
		return out, err
	}
	if _, err := s.GetArticle(ctx, a.ID); err != nil {
		return Article{}, err
	}
	return Article{}, ErrConflict
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
