package store

import (
	"context"
	"time"
)

// Comment is a single comment row. Author and BlockedByUser are filled in by
// the services, never by the store.
type Comment struct {
	ID          int64      `json:"id"`
	ArticleID   int64      `json:"article_id"`
	AuthorID    string     `json:"author_id"`
	ParentID    *int64     `json:"parent_id,omitempty"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	IsBlocked   bool       `json:"is_blocked"`
	BlockedAt   *time.Time `json:"blocked_at,omitempty"`
	BlockedBy   *string    `json:"blocked_by,omitempty"`
	BlockReason *string    `json:"block_reason,omitempty"`

	Author        *User `json:"author,omitempty"`
	BlockedByUser *User `json:"blocked_by_user,omitempty"`
}

// BlockState is the moderation state written by SetCommentBlock. A zero
// BlockState clears the block.
type BlockState struct {
	Blocked bool
	At      time.Time
	By      string
	Reason  string
}

// CommentStore defines the contract for comment persistence.
// Lists are ordered by created_at ASC, id ASC.
type CommentStore interface {
	CreateComment(ctx context.Context, c Comment) (Comment, error)
	GetComment(ctx context.Context, id int64) (Comment, error)
	ListArticleComments(ctx context.Context, articleID int64) ([]Comment, error)
	ListChildren(ctx context.Context, parentID int64) ([]Comment, error)
	// ListDescendants returns every comment below rootID, excluding the root.
	ListDescendants(ctx context.Context, rootID int64) ([]Comment, error)
	UpdateCommentContent(ctx context.Context, id int64, content string, at time.Time) (Comment, error)
	SetCommentBlock(ctx context.Context, id int64, b BlockState) (Comment, error)
	// DeleteComment removes the comment, its descendants and every report against them.
	DeleteComment(ctx context.Context, id int64) error
}

func (b BlockState) apply(c *Comment) {
	if !b.Blocked {
		c.IsBlocked = false
		c.BlockedAt, c.BlockedBy, c.BlockReason = nil, nil, nil
		return
	}
	at, by, reason := b.At, b.By, b.Reason
	c.IsBlocked = true
	c.BlockedAt = &at
	c.BlockedBy = &by
	c.BlockReason = &reason
}
