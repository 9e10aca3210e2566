// Package moderation implements the report workflow and comment blocking.
//
// Report states: pending → reviewed | rejected | action_taken. Terminal
// states accept no further transitions. Blocking a comment resolves all of
// its pending reports as action_taken in the same transaction.
package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/apperr"
	"github.com/example/blog-platform/internal/platform/events"
	"github.com/example/blog-platform/internal/platform/validate"
	"github.com/example/blog-platform/services/blog/internal/permission"
	"github.com/example/blog-platform/services/blog/internal/store"
)

// Publisher receives moderation events. *events.Publisher satisfies it.
type Publisher interface {
	Publish(subject, eventName, actorID string, props map[string]any)
}

type Service struct {
	store  store.Store
	log    *zap.Logger
	events Publisher
	now    func() time.Time
}

type Option func(*Service)

func WithEvents(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: st, log: log.Named("moderation"), events: (*events.Publisher)(nil), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type ReportInput struct {
	Reason  string  `json:"reason" validate:"required,notblank,max=500"`
	Details *string `json:"details" validate:"omitempty,max=2000"`
}

type reviewInput struct {
	Notes *string `json:"notes" validate:"omitempty,max=500"`
}

type blockInput struct {
	Reason string `json:"reason" validate:"required,notblank,max=200"`
}

var (
	errCommentNotFound = apperr.NotFound("COMMENT_NOT_FOUND", "Comment not found")
	errReportNotFound  = apperr.NotFound("REPORT_NOT_FOUND", "Report not found")
	errAlreadyReported = apperr.Conflict("ALREADY_REPORTED", "You have already reported this comment")
	errReportClosed    = apperr.Conflict("REPORT_CLOSED", "This report has already been reviewed")
)

// BlockNotes is the review note written on reports resolved by a block.
func BlockNotes(reason string) string { return "Comment blocked. Reason: " + reason }

// CreateReport files a pending report by actor against commentID.
func (s *Service) CreateReport(ctx context.Context, actor permission.Actor, commentID int64, in ReportInput) (store.Report, error) {
	if err := permission.CheckReport(actor); err != nil {
		return store.Report{}, err
	}
	in.Reason = strings.TrimSpace(in.Reason)
	in.Details = trimOptional(in.Details)
	if err := validate.Struct(in); err != nil {
		return store.Report{}, err
	}
	if _, err := s.store.GetComment(ctx, commentID); err != nil {
		return store.Report{}, s.mapNotFound("get_comment", err, errCommentNotFound, zap.Int64("comment_id", commentID))
	}
	reported, err := s.store.HasReported(ctx, commentID, actor.UserID)
	if err != nil {
		return store.Report{}, s.internal("has_reported", err, zap.Int64("comment_id", commentID))
	}
	if reported {
		return store.Report{}, errAlreadyReported
	}

	r, err := s.store.CreateReport(ctx, store.Report{
		CommentID:  commentID,
		ReporterID: actor.UserID,
		Reason:     in.Reason,
		Details:    in.Details,
		CreatedAt:  s.now().UTC(),
	})
	switch {
	case errors.Is(err, store.ErrConflict):
		return store.Report{}, errAlreadyReported
	case errors.Is(err, store.ErrNotFound):
		return store.Report{}, errCommentNotFound
	case err != nil:
		return store.Report{}, s.internal("create_report", err, zap.Int64("comment_id", commentID))
	}

	s.log.Info("report created",
		zap.Int64("report_id", r.ID), zap.Int64("comment_id", commentID), zap.String("reporter_id", actor.UserID))
	s.events.Publish(events.SubjectReportCreated, "report_created", actor.UserID, map[string]any{
		"report_id": r.ID, "comment_id": commentID, "reason": r.Reason,
	})
	return s.hydrateOne(ctx, r)
}

// ReviewReport moves a pending report to a terminal status.
func (s *Service) ReviewReport(ctx context.Context, actor permission.Actor, reportID int64, status store.ReportStatus, notes *string) (store.Report, error) {
	if err := permission.CheckModerate(actor); err != nil {
		return store.Report{}, err
	}
	if !status.Terminal() {
		return store.Report{}, apperr.Validation("INVALID_STATUS", "Status must be reviewed, rejected or action_taken",
			map[string]any{"status": string(status)})
	}
	in := reviewInput{Notes: trimOptional(notes)}
	if err := validate.Struct(in); err != nil {
		return store.Report{}, err
	}

	r, err := s.store.ReviewReport(ctx, reportID, store.Review{
		Status:     status,
		ReviewerID: actor.UserID,
		Notes:      in.Notes,
		At:         s.now().UTC(),
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return store.Report{}, errReportNotFound
	case errors.Is(err, store.ErrReportClosed):
		return store.Report{}, errReportClosed
	case err != nil:
		return store.Report{}, s.internal("review_report", err, zap.Int64("report_id", reportID))
	}

	s.log.Info("report reviewed",
		zap.Int64("report_id", reportID), zap.String("status", string(status)), zap.String("reviewer_id", actor.UserID))
	s.events.Publish(events.SubjectReportReviewed, "report_reviewed", actor.UserID, map[string]any{
		"report_id": reportID, "comment_id": r.CommentID, "status": string(status),
	})
	return s.hydrateOne(ctx, r)
}

// BlockResult is the blocked comment plus how many pending reports it resolved.
type BlockResult struct {
	Comment         store.Comment `json:"comment"`
	ResolvedReports int           `json:"resolved_reports"`
}

// BlockComment blocks the comment and resolves its pending reports as one unit.
func (s *Service) BlockComment(ctx context.Context, actor permission.Actor, commentID int64, reason string) (BlockResult, error) {
	if err := permission.CheckModerate(actor); err != nil {
		return BlockResult{}, err
	}
	in := blockInput{Reason: strings.TrimSpace(reason)}
	if err := validate.Struct(in); err != nil {
		return BlockResult{}, err
	}

	now := s.now().UTC()
	notes := BlockNotes(in.Reason)
	var res BlockResult
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetComment(ctx, commentID); err != nil {
			return err
		}
		c, err := tx.SetCommentBlock(ctx, commentID, store.BlockState{Blocked: true, At: now, By: actor.UserID, Reason: in.Reason})
		if err != nil {
			return err
		}
		n, err := tx.ResolvePendingReports(ctx, commentID, store.Review{
			Status:     store.ReportActionTaken,
			ReviewerID: actor.UserID,
			Notes:      &notes,
			At:         now,
		})
		if err != nil {
			return err
		}
		res = BlockResult{Comment: c, ResolvedReports: n}
		return nil
	})
	if err != nil {
		return BlockResult{}, s.mapNotFound("block_comment", err, errCommentNotFound, zap.Int64("comment_id", commentID))
	}

	s.log.Info("comment blocked",
		zap.Int64("comment_id", commentID), zap.String("admin_id", actor.UserID), zap.Int("resolved_reports", res.ResolvedReports))
	s.events.Publish(events.SubjectCommentBlocked, "comment_blocked", actor.UserID, map[string]any{
		"comment_id": commentID, "reason": in.Reason, "resolved_reports": res.ResolvedReports,
	})
	res.Comment, err = s.hydrateComment(ctx, res.Comment)
	return res, err
}

// UnblockComment clears the block. Reports keep whatever state they are in.
func (s *Service) UnblockComment(ctx context.Context, actor permission.Actor, commentID int64) (store.Comment, error) {
	if err := permission.CheckModerate(actor); err != nil {
		return store.Comment{}, err
	}
	c, err := s.store.SetCommentBlock(ctx, commentID, store.BlockState{})
	if err != nil {
		return store.Comment{}, s.mapNotFound("unblock_comment", err, errCommentNotFound, zap.Int64("comment_id", commentID))
	}
	s.log.Info("comment unblocked", zap.Int64("comment_id", commentID), zap.String("admin_id", actor.UserID))
	s.events.Publish(events.SubjectCommentUnblocked, "comment_unblocked", actor.UserID, map[string]any{
		"comment_id": commentID,
	})
	return s.hydrateComment(ctx, c)
}

func (s *Service) HasUserReported(ctx context.Context, commentID int64, userID string) (bool, error) {
	ok, err := s.store.HasReported(ctx, commentID, userID)
	if err != nil {
		return false, s.internal("has_reported", err, zap.Int64("comment_id", commentID))
	}
	return ok, nil
}

// ListReports returns reports newest first for administrators.
func (s *Service) ListReports(ctx context.Context, actor permission.Actor, f store.ReportFilter) ([]store.Report, error) {
	if err := permission.CheckModerate(actor); err != nil {
		return nil, err
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, apperr.Validation("INVALID_STATUS", "Unknown report status", map[string]any{"status": string(*f.Status)})
	}
	reports, err := s.store.ListReports(ctx, f)
	if err != nil {
		return nil, s.internal("list_reports", err)
	}
	if err := s.hydrate(ctx, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) GetReport(ctx context.Context, actor permission.Actor, id int64) (store.Report, error) {
	if err := permission.CheckModerate(actor); err != nil {
		return store.Report{}, err
	}
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return store.Report{}, s.mapNotFound("get_report", err, errReportNotFound, zap.Int64("report_id", id))
	}
	return s.hydrateOne(ctx, r)
}

func trimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) mapNotFound(op string, err error, nf *apperr.Error, fields ...zap.Field) error {
	if errors.Is(err, store.ErrNotFound) {
		return nf
	}
	if e, ok := apperr.As(err); ok {
		return e
	}
	return s.internal(op, err, fields...)
}

func (s *Service) internal(op string, err error, fields ...zap.Field) error {
	s.log.Error("store failure", append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	return apperr.Internal(err)
}
