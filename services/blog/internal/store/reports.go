package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportReviewed    ReportStatus = "reviewed"
	ReportRejected    ReportStatus = "rejected"
	ReportActionTaken ReportStatus = "action_taken"
)

// Terminal reports whether s is a reviewed state.
func (s ReportStatus) Terminal() bool {
	switch s {
	case ReportReviewed, ReportRejected, ReportActionTaken:
		return true
	}
	return false
}

func (s ReportStatus) Valid() bool { return s == ReportPending || s.Terminal() }

// ParseReportStatus accepts snake_case and PascalCase spellings
// ("action_taken", "ActionTaken").
func ParseReportStatus(raw string) (ReportStatus, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "_", ""))
	switch norm {
	case "pending":
		return ReportPending, nil
	case "reviewed":
		return ReportReviewed, nil
	case "rejected":
		return ReportRejected, nil
	case "actiontaken":
		return ReportActionTaken, nil
	}
	return "", fmt.Errorf("unknown report status %q", raw)
}

// Report is a user's complaint about a comment. Comment, Reporter and
// Reviewer are filled in by the services.
type Report struct {
	ID          int64        `json:"id"`
	CommentID   int64        `json:"comment_id"`
	ReporterID  string       `json:"reporter_id"`
	Reason      string       `json:"reason"`
	Details     *string      `json:"details,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Status      ReportStatus `json:"status"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	ReviewerID  *string      `json:"reviewer_id,omitempty"`
	ReviewNotes *string      `json:"review_notes,omitempty"`

	Comment  *Comment `json:"comment,omitempty"`
	Reporter *User    `json:"reporter,omitempty"`
	Reviewer *User    `json:"reviewer,omitempty"`
}

// ReportFilter narrows ListReports. Nil fields match everything.
type ReportFilter struct {
	Status    *ReportStatus
	CommentID *int64
	Limit     int
}

// Review is the terminal transition applied to pending reports.
type Review struct {
	Status     ReportStatus
	ReviewerID string
	Notes      *string
	At         time.Time
}

func (rv Review) apply(r *Report) {
	at, reviewer := rv.At, rv.ReviewerID
	r.Status = rv.Status
	r.ReviewedAt = &at
	r.ReviewerID = &reviewer
	if rv.Notes != nil {
		notes := *rv.Notes
		r.ReviewNotes = &notes
	} else {
		r.ReviewNotes = nil
	}
}

// ReportStore defines the contract for report persistence.
type ReportStore interface {
	// CreateReport inserts a pending report. A second report by the same
	// reporter on the same comment yields ErrConflict.
	CreateReport(ctx context.Context, r Report) (Report, error)
	GetReport(ctx context.Context, id int64) (Report, error)
	// ListReports returns reports newest first (created_at DESC, id DESC).
	ListReports(ctx context.Context, f ReportFilter) ([]Report, error)
	HasReported(ctx context.Context, commentID int64, reporterID string) (bool, error)
	// ReviewReport moves a pending report to rv.Status. Reports that are
	// already terminal yield ErrReportClosed.
	ReviewReport(ctx context.Context, id int64, rv Review) (Report, error)
	// ResolvePendingReports applies rv to every pending report on commentID
	// and returns how many were updated.
	ResolvePendingReports(ctx context.Context, commentID int64, rv Review) (int, error)
}
