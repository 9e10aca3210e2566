package store

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var reportColumns = []string{
	"id", "comment_id", "reporter_id", "reason", "details", "created_at",
	"status", "reviewed_at", "reviewer_id", "review_notes",
}

const reportReturning = `id, comment_id, reporter_id, reason, details, created_at,
	status, reviewed_at, reviewer_id, review_notes`

func scanReport(row pgx.Row) (Report, error) {
	var r Report
	var status string
	err := row.Scan(&r.ID, &r.CommentID, &r.ReporterID, &r.Reason, &r.Details, &r.CreatedAt,
		&status, &r.ReviewedAt, &r.ReviewerID, &r.ReviewNotes)
	r.Status = ReportStatus(status)
	return r, err
}

func (s *PostgresStore) CreateReport(ctx context.Context, r Report) (Report, error) {
	q := `INSERT INTO comment_reports (comment_id, reporter_id, reason, details, created_at, status)
	      VALUES ($1, $2, $3, $4, $5, 'pending')
	      RETURNING ` + reportReturning
	out, err := scanReport(s.db.QueryRow(ctx, q, r.CommentID, r.ReporterID, r.Reason, r.Details, nowUTC(r.CreatedAt)))
	switch {
	case isUniqueViolation(err):
		return Report{}, ErrConflict
	case isForeignKeyViolation(err):
		return Report{}, ErrNotFound
	}
	return out, err
}

func (s *PostgresStore) GetReport(ctx context.Context, id int64) (Report, error) {
	q := `SELECT ` + reportReturning + ` FROM comment_reports WHERE id = $1`
	r, err := scanReport(s.db.QueryRow(ctx, q, id))
	return r, notFound(err)
}

func (s *PostgresStore) ListReports(ctx context.Context, f ReportFilter) ([]Report, error) {
	b := psql.Select(reportColumns...).From("comment_reports").OrderBy("created_at DESC", "id DESC")
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": string(*f.Status)})
	}
	if f.CommentID != nil {
		b = b.Where(sq.Eq{"comment_id": *f.CommentID})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
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

	out := []Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) HasReported(ctx context.Context, commentID int64, reporterID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM comment_reports WHERE comment_id = $1 AND reporter_id = $2)`,
		commentID, reporterID).Scan(&exists)
	return exists, err
}

// ReviewReport is a conditional update: only a pending row transitions, so two
// concurrent reviews cannot both win.
func (s *PostgresStore) ReviewReport(ctx context.Context, id int64, rv Review) (Report, error) {
	q := `UPDATE comment_reports
	      SET status = $2, reviewed_at = $3, reviewer_id = $4, review_notes = $5
	      WHERE id = $1 AND status = 'pending'
	      RETURNING ` + reportReturning
	r, err := scanReport(s.db.QueryRow(ctx, q, id, string(rv.Status), nowUTC(rv.At), rv.ReviewerID, rv.Notes))
	if !errors.Is(err, pgx.ErrNoRows) {
		return r, err
	}
	if _, err := s.GetReport(ctx, id); err != nil {
		return Report{}, err
	}
	return Report{}, ErrReportClosed
}

func (s *PostgresStore) ResolvePendingReports(ctx context.Context, commentID int64, rv Review) (int, error) {
	q, args, err := psql.Update("comment_reports").
		Set("status", string(rv.Status)).
		Set("reviewed_at", nowUTC(rv.At)).
		Set("reviewer_id", rv.ReviewerID).
		Set("review_notes", rv.Notes).
		Where(sq.Eq{"comment_id": commentID, "status": string(ReportPending)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := s.db.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
