package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// storeContract exercises behaviour both backends must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CommentOrderingAndTree", func(t *testing.T) { testCommentOrderingAndTree(t, newStore(t)) })
	t.Run("ReplyMustShareArticle", func(t *testing.T) { testReplyMustShareArticle(t, newStore(t)) })
	t.Run("EditAndBlock", func(t *testing.T) { testEditAndBlock(t, newStore(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newStore(t)) })
	t.Run("ReportUniqueness", func(t *testing.T) { testReportUniqueness(t, newStore(t)) })
	t.Run("ReviewOnlyPending", func(t *testing.T) { testReviewOnlyPending(t, newStore(t)) })
	t.Run("ResolvePending", func(t *testing.T) { testResolvePending(t, newStore(t)) })
	t.Run("ListReportsFilter", func(t *testing.T) { testListReportsFilter(t, newStore(t)) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("ArticleVersion", func(t *testing.T) { testArticleVersion(t, newStore(t)) })
	t.Run("ListArticles", func(t *testing.T) { testListArticles(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func at(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

func mustArticle(t *testing.T, s Store) Article {
	t.Helper()
	a, err := s.CreateArticle(context.Background(), Article{AuthorID: "writer-1", Title: "Hello", Content: "body"})
	if err != nil {
		t.Fatalf("create article: %v", err)
	}
	return a
}

func mustComment(t *testing.T, s Store, articleID int64, parent *int64, author string, when time.Time) Comment {
	t.Helper()
	c, err := s.CreateComment(context.Background(), Comment{
		ArticleID: articleID, AuthorID: author, ParentID: parent, Content: "text by " + author, CreatedAt: when,
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}

func mustReport(t *testing.T, s Store, commentID int64, reporter string, when time.Time) Report {
	t.Helper()
	r, err := s.CreateReport(context.Background(), Report{CommentID: commentID, ReporterID: reporter, Reason: "spam", CreatedAt: when})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	return r
}

func ids(cs []Comment) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testCommentOrderingAndTree(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	root := mustComment(t, s, a.ID, nil, "u1", at(0))
	r2 := mustComment(t, s, a.ID, &root.ID, "u2", at(2))
	r1 := mustComment(t, s, a.ID, &root.ID, "u3", at(1))
	deep := mustComment(t, s, a.ID, &r1.ID, "u4", at(3))
	tie := mustComment(t, s, a.ID, &root.ID, "u5", at(2))

	children, err := s.ListChildren(ctx, root.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if want := []int64{r1.ID, r2.ID, tie.ID}; !equalIDs(ids(children), want) {
		t.Fatalf("expected children %v, got %v", want, ids(children))
	}

	desc, err := s.ListDescendants(ctx, root.ID)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if want := []int64{r1.ID, r2.ID, tie.ID, deep.ID}; !equalIDs(ids(desc), want) {
		t.Fatalf("expected descendants %v, got %v", want, ids(desc))
	}

	all, err := s.ListArticleComments(ctx, a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 comments, got %d", len(all))
	}

	empty, err := s.ListChildren(ctx, deep.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v %v", empty, err)
	}
}

func testReplyMustShareArticle(t *testing.T, s Store) {
	ctx := context.Background()
	a1, a2 := mustArticle(t, s), mustArticle(t, s)
	root := mustComment(t, s, a1.ID, nil, "u1", at(0))

	_, err := s.CreateComment(ctx, Comment{ArticleID: a2.ID, AuthorID: "u2", ParentID: &root.ID, Content: "x"})
	if !errors.Is(err, ErrParentMismatch) {
		t.Fatalf("expected ErrParentMismatch, got %v", err)
	}
	missing := int64(999999)
	_, err = s.CreateComment(ctx, Comment{ArticleID: a1.ID, AuthorID: "u2", ParentID: &missing, Content: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}
	_, err = s.CreateComment(ctx, Comment{ArticleID: 999999, AuthorID: "u2", Content: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing article, got %v", err)
	}
}

func testEditAndBlock(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	c := mustComment(t, s, a.ID, nil, "u1", at(0))

	edited, err := s.UpdateCommentContent(ctx, c.ID, "edited", at(5))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if edited.Content != "edited" || edited.UpdatedAt == nil || !edited.UpdatedAt.Equal(at(5)) {
		t.Fatalf("unexpected edit result %+v", edited)
	}

	blocked, err := s.SetCommentBlock(ctx, c.ID, BlockState{Blocked: true, At: at(6), By: "admin-1", Reason: "spam"})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !blocked.IsBlocked || *blocked.BlockedBy != "admin-1" || *blocked.BlockReason != "spam" || !blocked.BlockedAt.Equal(at(6)) {
		t.Fatalf("unexpected block result %+v", blocked)
	}

	cleared, err := s.SetCommentBlock(ctx, c.ID, BlockState{})
	if err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if cleared.IsBlocked || cleared.BlockedAt != nil || cleared.BlockedBy != nil || cleared.BlockReason != nil {
		t.Fatalf("expected block fields cleared, got %+v", cleared)
	}

	if _, err := s.UpdateCommentContent(ctx, 999999, "x", at(7)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDeleteCascades(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	root := mustComment(t, s, a.ID, nil, "u1", at(0))
	reply := mustComment(t, s, a.ID, &root.ID, "u2", at(1))
	other := mustComment(t, s, a.ID, nil, "u3", at(2))
	mustReport(t, s, reply.ID, "u9", at(3))
	keep := mustReport(t, s, other.ID, "u9", at(4))

	if err := s.DeleteComment(ctx, root.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetComment(ctx, reply.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected reply to be deleted, got %v", err)
	}
	reports, _ := s.ListReports(ctx, ReportFilter{})
	if len(reports) != 1 || reports[0].ID != keep.ID {
		t.Fatalf("expected only unrelated report to survive, got %+v", reports)
	}
	if err := s.DeleteComment(ctx, root.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	if err := s.DeleteArticle(ctx, a.ID); err != nil {
		t.Fatalf("delete article: %v", err)
	}
	if _, err := s.GetComment(ctx, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected article comments to be deleted, got %v", err)
	}
}

func testReportUniqueness(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	c := mustComment(t, s, a.ID, nil, "u1", at(0))
	r := mustReport(t, s, c.ID, "u9", at(1))
	if r.Status != ReportPending {
		t.Fatalf("expected pending, got %s", r.Status)
	}

	if _, err := s.CreateReport(ctx, Report{CommentID: c.ID, ReporterID: "u9", Reason: "again"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := s.CreateReport(ctx, Report{CommentID: 999999, ReporterID: "u9", Reason: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ok, err := s.HasReported(ctx, c.ID, "u9")
	if err != nil || !ok {
		t.Fatalf("expected HasReported true, got %v %v", ok, err)
	}
	ok, _ = s.HasReported(ctx, c.ID, "u8")
	if ok {
		t.Fatal("expected HasReported false for another user")
	}
}

func testReviewOnlyPending(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	c := mustComment(t, s, a.ID, nil, "u1", at(0))
	r := mustReport(t, s, c.ID, "u9", at(1))
	notes := "looked fine"

	got, err := s.ReviewReport(ctx, r.ID, Review{Status: ReportRejected, ReviewerID: "admin-1", Notes: &notes, At: at(2)})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Status != ReportRejected || *got.ReviewerID != "admin-1" || *got.ReviewNotes != notes || !got.ReviewedAt.Equal(at(2)) {
		t.Fatalf("unexpected review result %+v", got)
	}

	_, err = s.ReviewReport(ctx, r.ID, Review{Status: ReportReviewed, ReviewerID: "admin-2", At: at(3)})
	if !errors.Is(err, ErrReportClosed) {
		t.Fatalf("expected ErrReportClosed, got %v", err)
	}
	if _, err := s.ReviewReport(ctx, 999999, Review{Status: ReportReviewed}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testResolvePending(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	c := mustComment(t, s, a.ID, nil, "u1", at(0))
	p1 := mustReport(t, s, c.ID, "u7", at(1))
	p2 := mustReport(t, s, c.ID, "u8", at(2))
	done := mustReport(t, s, c.ID, "u9", at(3))
	if _, err := s.ReviewReport(ctx, done.ID, Review{Status: ReportRejected, ReviewerID: "admin-0", At: at(4)}); err != nil {
		t.Fatalf("review: %v", err)
	}

	notes := "Comment blocked. Reason: spam"
	n, err := s.ResolvePendingReports(ctx, c.ID, Review{Status: ReportActionTaken, ReviewerID: "admin-1", Notes: &notes, At: at(5)})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 resolved, got %d", n)
	}
	for _, id := range []int64{p1.ID, p2.ID} {
		r, _ := s.GetReport(ctx, id)
		if r.Status != ReportActionTaken || *r.ReviewNotes != notes {
			t.Fatalf("expected action_taken with notes, got %+v", r)
		}
	}
	r, _ := s.GetReport(ctx, done.ID)
	if r.Status != ReportRejected || *r.ReviewerID != "admin-0" {
		t.Fatalf("terminal report must be untouched, got %+v", r)
	}
}

func testListReportsFilter(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	c1 := mustComment(t, s, a.ID, nil, "u1", at(0))
	c2 := mustComment(t, s, a.ID, nil, "u2", at(0))
	old := mustReport(t, s, c1.ID, "u7", at(1))
	newer := mustReport(t, s, c2.ID, "u7", at(2))
	newest := mustReport(t, s, c1.ID, "u8", at(3))
	if _, err := s.ReviewReport(ctx, newest.ID, Review{Status: ReportReviewed, ReviewerID: "admin", At: at(4)}); err != nil {
		t.Fatalf("review: %v", err)
	}

	all, _ := s.ListReports(ctx, ReportFilter{})
	if len(all) != 3 || all[0].ID != newest.ID || all[2].ID != old.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}

	pending := ReportPending
	got, _ := s.ListReports(ctx, ReportFilter{Status: &pending})
	if len(got) != 2 || got[0].ID != newer.ID {
		t.Fatalf("expected 2 pending newest first, got %+v", got)
	}

	got, _ = s.ListReports(ctx, ReportFilter{Status: &pending, CommentID: &c1.ID})
	if len(got) != 1 || got[0].ID != old.ID {
		t.Fatalf("expected only old report, got %+v", got)
	}

	got, _ = s.ListReports(ctx, ReportFilter{Limit: 1})
	if len(got) != 1 || got[0].ID != newest.ID {
		t.Fatalf("expected limit to keep newest, got %+v", got)
	}
}

func testTxRollback(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	c := mustComment(t, s, a.ID, nil, "u1", at(0))
	r := mustReport(t, s, c.ID, "u9", at(1))
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx Store) error {
		if _, err := tx.SetCommentBlock(ctx, c.ID, BlockState{Blocked: true, At: at(2), By: "admin", Reason: "x"}); err != nil {
			return err
		}
		if _, err := tx.ResolvePendingReports(ctx, c.ID, Review{Status: ReportActionTaken, ReviewerID: "admin", At: at(2)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := s.GetComment(ctx, c.ID)
	if got.IsBlocked {
		t.Fatal("block must roll back")
	}
	rep, _ := s.GetReport(ctx, r.ID)
	if rep.Status != ReportPending {
		t.Fatalf("report must roll back, got %s", rep.Status)
	}

	err = s.WithTx(ctx, func(tx Store) error {
		_, err := tx.SetCommentBlock(ctx, c.ID, BlockState{Blocked: true, At: at(3), By: "admin", Reason: "x"})
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, _ = s.GetComment(ctx, c.ID)
	if !got.IsBlocked {
		t.Fatal("expected committed block")
	}
}

func testArticleVersion(t *testing.T, s Store) {
	ctx := context.Background()
	a := mustArticle(t, s)
	if a.Version != 1 {
		t.Fatalf("expected version 1, got %d", a.Version)
	}
	a.Title = "Updated"
	up, err := s.UpdateArticle(ctx, a)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.Version != 2 || up.Title != "Updated" || up.UpdatedAt == nil {
		t.Fatalf("unexpected update %+v", up)
	}
	if _, err := s.UpdateArticle(ctx, a); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on stale version, got %v", err)
	}
	a.ID = 999999
	if _, err := s.UpdateArticle(ctx, a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.UpsertUser(ctx, User{ID: "u1", DisplayName: "Ann"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertUser(ctx, User{ID: "u1", DisplayName: "Ann B."}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	users, err := s.GetUsers(ctx, []string{"u1", "ghost"})
	if err != nil {
		t.Fatalf("get users: %v", err)
	}
	if len(users) != 1 || users["u1"].DisplayName != "Ann B." {
		t.Fatalf("unexpected users %+v", users)
	}
}

func testListArticles(t *testing.T, s Store) {
	ctx := context.Background()
	var created []Article
	for i, when := range []time.Time{at(1), at(3), at(3), at(2)} {
		a, err := s.CreateArticle(ctx, Article{AuthorID: "writer-1", Title: "t", Content: "c", CreatedAt: when})
		if err != nil {
			t.Fatalf("create article %d: %v", i, err)
		}
		created = append(created, a)
	}

	got, err := s.ListArticles(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{created[2].ID, created[1].ID, created[3].ID, created[0].ID}
	if len(got) != len(want) {
		t.Fatalf("expected %d articles, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: expected article %d, got %d", i, want[i], got[i].ID)
		}
	}

	got, err = s.ListArticles(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(got) != 2 || got[0].ID != created[2].ID {
		t.Fatalf("unexpected limited list: %+v", got)
	}
}
