package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/services/blog/internal/config"
	"github.com/example/blog-platform/services/blog/internal/moderation"
	"github.com/example/blog-platform/services/blog/internal/permission"
	"github.com/example/blog-platform/services/blog/internal/store"
)

type client struct {
	t   *testing.T
	srv *httptest.Server
	app *App
}

func newClient(t *testing.T, limit int) *client {
	t.Helper()
	return newClientWithLimits(t, limit, limit)
}

func newClientWithLimits(t *testing.T, commentLimit, reportLimit int) *client {
	t.Helper()
	cfg := config.BlogConfig{
		JWTSecret:         []byte("e2e-secret"),
		ReportRateLimit:   reportLimit,
		ReportRateWindow:  time.Hour,
		CommentRateLimit:  commentLimit,
		CommentRateWindow: time.Hour,
	}
	a, err := New(context.Background(), cfg, zap.NewNop(), WithStore(store.NewInMemoryStore()))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(a.Router())
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return &client{t: t, srv: srv, app: a}
}

func (c *client) token(uid string, roles ...string) string {
	c.t.Helper()
	tok, err := c.app.Verifier.Issue(uid, "User "+uid, roles, time.Hour)
	if err != nil {
		c.t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (c *client) do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	if err != nil {
		c.t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func TestModerationScenario(t *testing.T) {
	c := newClient(t, 100)
	writer := c.token("wendy", permission.RoleWriter)
	alice := c.token("alice", permission.RoleCommentator)
	bob := c.token("bob", permission.RoleCommentator)
	carol := c.token("carol", permission.RoleCommentator)
	admin := c.token("root", permission.RoleAdmin)

	var art store.Article
	if code := c.do(http.MethodPost, "/v1/articles", writer, map[string]any{"title": "Hello", "content": "World"}, &art); code != http.StatusCreated {
		t.Fatalf("create article: %d", code)
	}

	var root, reply store.Comment
	if code := c.do(http.MethodPost, "/v1/articles/"+itoa(art.ID)+"/comments", alice, map[string]any{"content": "first!"}, &root); code != http.StatusCreated {
		t.Fatalf("create comment: %d", code)
	}
	if code := c.do(http.MethodPost, "/v1/articles/"+itoa(art.ID)+"/comments", bob,
		map[string]any{"content": "reply", "parent_id": root.ID}, &reply); code != http.StatusCreated {
		t.Fatalf("create reply: %d", code)
	}
	if root.Author == nil || root.Author.DisplayName != "User alice" {
		t.Fatalf("expected author resolved from token name, got %+v", root.Author)
	}

	for _, tok := range []string{bob, carol} {
		if code := c.do(http.MethodPost, "/v1/comments/"+itoa(root.ID)+"/reports", tok, map[string]any{"reason": "spam"}, nil); code != http.StatusCreated {
			t.Fatalf("report: %d", code)
		}
	}
	if code := c.do(http.MethodPost, "/v1/comments/"+itoa(root.ID)+"/reports", bob, map[string]any{"reason": "spam"}, nil); code != http.StatusConflict {
		t.Fatalf("duplicate report: expected 409, got %d", code)
	}

	if code := c.do(http.MethodGet, "/v1/reports", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous reports: expected 401, got %d", code)
	}
	if code := c.do(http.MethodGet, "/v1/reports", bob, nil, nil); code != http.StatusForbidden {
		t.Fatalf("non-admin reports: expected 403, got %d", code)
	}

	var res moderation.BlockResult
	if code := c.do(http.MethodPost, "/v1/comments/"+itoa(root.ID)+"/block", admin, map[string]any{"reason": "spam"}, &res); code != http.StatusOK {
		t.Fatalf("block: %d", code)
	}
	if res.ResolvedReports != 2 || !res.Comment.IsBlocked {
		t.Fatalf("unexpected block result %+v", res)
	}

	var thread struct {
		Comments []json.RawMessage `json:"comments"`
	}
	if code := c.do(http.MethodGet, "/v1/articles/"+itoa(art.ID)+"/comments", "", nil, &thread); code != http.StatusOK {
		t.Fatalf("thread: %d", code)
	}
	if len(thread.Comments) != 0 {
		t.Fatalf("blocked thread visible to reader: %d", len(thread.Comments))
	}
	if code := c.do(http.MethodGet, "/v1/articles/"+itoa(art.ID)+"/comments", admin, nil, &thread); code != http.StatusOK || len(thread.Comments) != 1 {
		t.Fatalf("admin thread: code %d, %d threads", code, len(thread.Comments))
	}

	var reports struct {
		Reports []store.Report `json:"reports"`
	}
	if code := c.do(http.MethodGet, "/v1/reports?status=ActionTaken&comment_id="+itoa(root.ID), admin, nil, &reports); code != http.StatusOK {
		t.Fatalf("list reports: %d", code)
	}
	if len(reports.Reports) != 2 {
		t.Fatalf("expected 2 resolved reports, got %d", len(reports.Reports))
	}
	for _, r := range reports.Reports {
		if r.ReviewNotes == nil || *r.ReviewNotes != "Comment blocked. Reason: spam" {
			t.Fatalf("unexpected notes on report %d: %v", r.ID, r.ReviewNotes)
		}
		if r.ReviewerID == nil || *r.ReviewerID != "root" {
			t.Fatalf("unexpected reviewer on report %d", r.ID)
		}
	}

	if code := c.do(http.MethodPut, "/v1/comments/"+itoa(root.ID), alice, map[string]any{"content": "sorry"}, nil); code != http.StatusForbidden {
		t.Fatalf("author edit of blocked comment: expected 403, got %d", code)
	}
	if code := c.do(http.MethodPost, "/v1/comments/"+itoa(root.ID)+"/unblock", admin, nil, nil); code != http.StatusOK {
		t.Fatalf("unblock: %d", code)
	}
	if code := c.do(http.MethodGet, "/v1/articles/"+itoa(art.ID)+"/comments", "", nil, &thread); code != http.StatusOK || len(thread.Comments) != 1 {
		t.Fatalf("thread after unblock: code %d, %d threads", code, len(thread.Comments))
	}
}

func TestReportRateLimit(t *testing.T) {
	c := newClient(t, 1)
	writer := c.token("wendy", permission.RoleWriter)
	alice := c.token("alice", permission.RoleCommentator)
	bob := c.token("bob")

	var art store.Article
	c.do(http.MethodPost, "/v1/articles", writer, map[string]any{"title": "t", "content": "c"}, &art)
	var first, second store.Comment
	if code := c.do(http.MethodPost, "/v1/articles/"+itoa(art.ID)+"/comments", alice, map[string]any{"content": "one"}, &first); code != http.StatusCreated {
		t.Fatalf("create comment: %d", code)
	}
	if code := c.do(http.MethodPost, "/v1/articles/"+itoa(art.ID)+"/comments", alice, map[string]any{"content": "two"}, &second); code != http.StatusTooManyRequests {
		t.Fatalf("second comment: expected 429, got %d", code)
	}

	if code := c.do(http.MethodPost, "/v1/comments/"+itoa(first.ID)+"/reports", bob, map[string]any{"reason": "a"}, nil); code != http.StatusCreated {
		t.Fatalf("first report: %d", code)
	}
	if code := c.do(http.MethodPost, "/v1/comments/"+itoa(first.ID)+"/reports", bob, map[string]any{"reason": "b"}, nil); code != http.StatusTooManyRequests {
		t.Fatalf("second report: expected 429, got %d", code)
	}
}

func TestCommentRateLimitIsSeparate(t *testing.T) {
	c := newClientWithLimits(t, 3, 1)
	writer := c.token("wendy", permission.RoleWriter)
	alice := c.token("alice", permission.RoleCommentator)

	var art store.Article
	c.do(http.MethodPost, "/v1/articles", writer, map[string]any{"title": "t", "content": "c"}, &art)
	for i := 0; i < 3; i++ {
		if code := c.do(http.MethodPost, "/v1/articles/"+itoa(art.ID)+"/comments", alice, map[string]any{"content": "hi"}, nil); code != http.StatusCreated {
			t.Fatalf("comment %d: expected 201, got %d", i, code)
		}
	}
	if code := c.do(http.MethodPost, "/v1/articles/"+itoa(art.ID)+"/comments", alice, map[string]any{"content": "hi"}, nil); code != http.StatusTooManyRequests {
		t.Fatalf("fourth comment: expected 429, got %d", code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	c := newClient(t, 10)
	for _, p := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(c.srv.URL + p)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", p, resp.StatusCode)
		}
	}
}

func TestHTMLThread(t *testing.T) {
	c := newClient(t, 10)
	writer := c.token("wendy", permission.RoleWriter)
	var art store.Article
	c.do(http.MethodPost, "/v1/articles", writer, map[string]any{"title": "Rendered", "content": "c"}, &art)

	resp, err := http.Get(c.srv.URL + "/articles/" + itoa(art.ID) + "/comments")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
