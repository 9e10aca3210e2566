// Package store persists articles, comments, user profiles and comment
// reports. Two backends exist: Postgres for production and an in-memory
// implementation for development and tests. Both honour the same contract.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique violations and stale versions.
	ErrConflict = errors.New("conflict")
	// ErrReportClosed is returned when reviewing a report that is no longer pending.
	ErrReportClosed = errors.New("report already reviewed")
	// ErrParentMismatch is returned when a reply's parent lives on another article.
	ErrParentMismatch = errors.New("parent comment belongs to another article")
)

// Store is the full persistence surface. WithTx runs fn against a
// transactional view: every write fn makes is committed together or not at
// all. Nested WithTx calls join the outer transaction.
type Store interface {
	CommentStore
	ReportStore
	ArticleStore
	UserStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
