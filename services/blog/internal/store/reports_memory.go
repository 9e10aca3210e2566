package store

import (
	"context"
	"sort"
)

func (s *InMemoryStore) CreateReport(_ context.Context, r Report) (Report, error) {
	defer s.lock()()

	if _, ok := s.data.comments[r.CommentID]; !ok {
		return Report{}, ErrNotFound
	}
	for _, existing := range s.data.reports {
		if existing.CommentID == r.CommentID && existing.ReporterID == r.ReporterID {
			return Report{}, ErrConflict
		}
	}

	s.data.nextReportID++
	r.ID = s.data.nextReportID
	r.CreatedAt = nowUTC(r.CreatedAt)
	r.Status = ReportPending
	r.ReviewedAt, r.ReviewerID, r.ReviewNotes = nil, nil, nil
	r.Comment, r.Reporter, r.Reviewer = nil, nil, nil
	s.data.reports[r.ID] = r
	return r, nil
}

func (s *InMemoryStore) GetReport(_ context.Context, id int64) (Report, error) {
	defer s.rlock()()

	r, ok := s.data.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return r, nil
}

func (s *InMemoryStore) ListReports(_ context.Context, f ReportFilter) ([]Report, error) {
	defer s.rlock()()

	out := []Report{}
	for _, r := range s.data.reports {
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.CommentID != nil && r.CommentID != *f.CommentID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *InMemoryStore) HasReported(_ context.Context, commentID int64, reporterID string) (bool, error) {
	defer s.rlock()()

	for _, r := range s.data.reports {
		if r.CommentID == commentID && r.ReporterID == reporterID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ReviewReport(_ context.Context, id int64, rv Review) (Report, error) {
	defer s.lock()()

	r, ok := s.data.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	if r.Status != ReportPending {
		return Report{}, ErrReportClosed
	}
	rv.At = nowUTC(rv.At)
	rv.apply(&r)
	s.data.reports[id] = r
	return r, nil
}

func (s *InMemoryStore) ResolvePendingReports(_ context.Context, commentID int64, rv Review) (int, error) {
	defer s.lock()()

	rv.At = nowUTC(rv.At)
	n := 0
	for id, r := range s.data.reports {
		if r.CommentID != commentID || r.Status != ReportPending {
			continue
		}
		rv.apply(&r)
		s.data.reports[id] = r
		n++
	}
	return n, nil
}
