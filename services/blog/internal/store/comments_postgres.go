package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const commentColumns = `id, article_id, author_id, parent_id, content, created_at, updated_at,
	is_blocked, blocked_at, blocked_by, block_reason`

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.ParentID, &c.Content,
		&c.CreatedAt, &c.UpdatedAt, &c.IsBlocked, &c.BlockedAt, &c.BlockedBy, &c.BlockReason)
	return c, err
}

func (s *PostgresStore) queryComments(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	if c.ParentID != nil {
		parent, err := s.GetComment(ctx, *c.ParentID)
		if err != nil {
			return Comment{}, err
		}
		if parent.ArticleID != c.ArticleID {
			return Comment{}, ErrParentMismatch
		}
	}
	q := `INSERT INTO comments (article_id, author_id, parent_id, content, created_at)
	      VALUES ($1, $2, $3, $4, $5)
	      RETURNING ` + commentColumns
	out, err := scanComment(s.db.QueryRow(ctx, q, c.ArticleID, c.AuthorID, c.ParentID, c.Content, nowUTC(c.CreatedAt)))
	if isForeignKeyViolation(err) {
		return Comment{}, ErrNotFound
	}
	return out, err
}

func (s *PostgresStore) GetComment(ctx context.Context, id int64) (Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(s.db.QueryRow(ctx, q, id))
	return c, notFound(err)
}

func (s *PostgresStore) ListArticleComments(ctx context.Context, articleID int64) ([]Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments
	      WHERE article_id = $1
	      ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, articleID)
}

func (s *PostgresStore) ListChildren(ctx context.Context, parentID int64) ([]Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments
	      WHERE parent_id = $1
	      ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, parentID)
}

// ListDescendants walks the subtree with a recursive CTE. UNION (not UNION
// ALL) stops the walk if a cycle ever appears.
func (s *PostgresStore) ListDescendants(ctx context.Context, rootID int64) ([]Comment, error) {
	q := `WITH RECURSIVE subtree (id) AS (
	          SELECT id FROM comments WHERE parent_id = $1
	          UNION
	          SELECT c.id FROM comments c JOIN subtree st ON c.parent_id = st.id
	      )
	      SELECT ` + commentColumns + ` FROM comments
	      WHERE id IN (SELECT id FROM subtree) AND id <> $1
	      ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, rootID)
}

func (s *PostgresStore) UpdateCommentContent(ctx context.Context, id int64, content string, at time.Time) (Comment, error) {
	q := `UPDATE comments SET content = $2, updated_at = $3
	      WHERE id = $1
	      RETURNING ` + commentColumns
	c, err := scanComment(s.db.QueryRow(ctx, q, id, content, nowUTC(at)))
	return c, notFound(err)
}

func (s *PostgresStore) SetCommentBlock(ctx context.Context, id int64, b BlockState) (Comment, error) {
	var q string
	var args []any
	if b.Blocked {
		q = `UPDATE comments SET is_blocked = true, blocked_at = $2, blocked_by = $3, block_reason = $4
		     WHERE id = $1
		     RETURNING ` + commentColumns
		args = []any{id, nowUTC(b.At), b.By, b.Reason}
	} else {
		q = `UPDATE comments SET is_blocked = false, blocked_at = NULL, blocked_by = NULL, block_reason = NULL
		     WHERE id = $1
		     RETURNING ` + commentColumns
		args = []any{id}
	}
	c, err := scanComment(s.db.QueryRow(ctx, q, args...))
	return c, notFound(err)
}

// DeleteComment relies on ON DELETE CASCADE for descendants and reports.
func (s *PostgresStore) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
