// Package web serves the server-rendered comment thread and its form posts.
// Form posts answer XHR callers with an HTML fragment and everyone else with
// a 303 redirect back to the thread.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/apperr"
	"github.com/example/blog-platform/services/blog/internal/articles"
	"github.com/example/blog-platform/services/blog/internal/comments"
	"github.com/example/blog-platform/services/blog/internal/handlers"
	"github.com/example/blog-platform/services/blog/internal/moderation"
	"github.com/example/blog-platform/services/blog/internal/permission"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"iso":   func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"human": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04") },
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

type Pages struct {
	comments   *comments.Service
	moderation *moderation.Service
	articles   *articles.Service
	tmpl       *template.Template
	log        *zap.Logger
}

func New(cs *comments.Service, ms *moderation.Service, as *articles.Service, log *zap.Logger) (*Pages, error) {
	tmpl, err := template.New("web").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pages{comments: cs, moderation: ms, articles: as, tmpl: tmpl, log: log.Named("web")}, nil
}

// Routes mounts the HTML endpoints on r. Form posts must come from the same
// origin; non-nil limits wrap the comment and report posts.
func (p *Pages) Routes(r chi.Router, commentLimit, reportLimit func(http.Handler) http.Handler) {
	r.Get("/articles/{article_id}/comments", p.Thread)
	r.Get("/comments/{comment_id}/replies", p.Replies)

	r.Group(func(r chi.Router) {
		r.Use(sameOrigin)
		r.With(optional(commentLimit)...).Post("/articles/{article_id}/comments", p.PostComment)
		r.With(optional(reportLimit)...).Post("/comments/{comment_id}/report", p.PostReport)
		r.Post("/comments/{comment_id}/block", p.PostBlock)
		r.Post("/comments/{comment_id}/unblock", p.PostUnblock)
	})
}

func optional(mw func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if mw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{mw}
}

// RenderReplies writes nodes as a reply list fragment.
func (p *Pages) RenderReplies(w http.ResponseWriter, actor permission.Actor, _ int64, nodes []comments.Node) error {
	return p.execute(w, http.StatusOK, "replies", viewNodes(actor, nodes))
}

func (p *Pages) Thread(w http.ResponseWriter, r *http.Request) {
	id, ok := p.id(w, r, "article_id")
	if !ok {
		return
	}
	actor := handlers.ActorFromRequest(r)
	art, err := p.articles.Get(r.Context(), id)
	if err != nil {
		p.fail(w, err)
		return
	}
	nodes, err := p.comments.ArticleComments(r.Context(), id, permission.CanViewBlocked(actor))
	if err != nil {
		p.fail(w, err)
		return
	}
	p.render(w, http.StatusOK, "page", pageView{
		Article:    art,
		Threads:    viewNodes(actor, nodes),
		CanComment: permission.CanCreateComment(actor),
	})
}

func (p *Pages) Replies(w http.ResponseWriter, r *http.Request) {
	id, ok := p.id(w, r, "comment_id")
	if !ok {
		return
	}
	actor := handlers.ActorFromRequest(r)
	nodes, err := p.comments.Replies(r.Context(), id, permission.CanViewBlocked(actor))
	if err != nil {
		p.fail(w, err)
		return
	}
	p.render(w, http.StatusOK, "replies", viewNodes(actor, nodes))
}

func (p *Pages) PostComment(w http.ResponseWriter, r *http.Request) {
	articleID, ok := p.id(w, r, "article_id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		p.fail(w, apperr.Validation("INVALID_FORM", "invalid form", nil))
		return
	}
	in := comments.CreateInput{ArticleID: articleID, Content: r.PostFormValue("content")}
	if raw := strings.TrimSpace(r.PostFormValue("parent_id")); raw != "" {
		pid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			p.fail(w, apperr.Validation("INVALID_ID", "parent_id must be a positive integer", map[string]any{"parent_id": raw}))
			return
		}
		in.ParentID = &pid
	}
	actor := handlers.ActorFromRequest(r)
	c, err := p.comments.Create(r.Context(), actor, in)
	if err != nil {
		p.fail(w, err)
		return
	}
	if api.IsPartialRequest(r) {
		p.render(w, http.StatusCreated, "node", viewNode(actor, comments.Node{Comment: c}))
		return
	}
	redirectToComment(w, r, c.ArticleID, c.ID)
}

func (p *Pages) PostReport(w http.ResponseWriter, r *http.Request) {
	id, ok := p.id(w, r, "comment_id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		p.fail(w, apperr.Validation("INVALID_FORM", "invalid form", nil))
		return
	}
	in := moderation.ReportInput{Reason: r.PostFormValue("reason")}
	if d := r.PostFormValue("details"); d != "" {
		in.Details = &d
	}
	rep, err := p.moderation.CreateReport(r.Context(), handlers.ActorFromRequest(r), id, in)
	if err != nil {
		p.fail(w, err)
		return
	}
	if api.IsPartialRequest(r) || rep.Comment == nil {
		p.render(w, http.StatusCreated, "reported", rep)
		return
	}
	redirectToComment(w, r, rep.Comment.ArticleID, id)
}

func (p *Pages) PostBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := p.id(w, r, "comment_id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		p.fail(w, apperr.Validation("INVALID_FORM", "invalid form", nil))
		return
	}
	actor := handlers.ActorFromRequest(r)
	res, err := p.moderation.BlockComment(r.Context(), actor, id, r.PostFormValue("reason"))
	if err != nil {
		p.fail(w, err)
		return
	}
	if api.IsPartialRequest(r) {
		p.render(w, http.StatusOK, "node", viewNode(actor, comments.Node{Comment: res.Comment}))
		return
	}
	redirectToComment(w, r, res.Comment.ArticleID, id)
}

func (p *Pages) PostUnblock(w http.ResponseWriter, r *http.Request) {
	id, ok := p.id(w, r, "comment_id")
	if !ok {
		return
	}
	actor := handlers.ActorFromRequest(r)
	c, err := p.moderation.UnblockComment(r.Context(), actor, id)
	if err != nil {
		p.fail(w, err)
		return
	}
	if api.IsPartialRequest(r) {
		p.render(w, http.StatusOK, "node", viewNode(actor, comments.Node{Comment: c}))
		return
	}
	redirectToComment(w, r, c.ArticleID, id)
}

func redirectToComment(w http.ResponseWriter, r *http.Request, articleID, commentID int64) {
	target := "/articles/" + strconv.FormatInt(articleID, 10) + "/comments#comment-" + strconv.FormatInt(commentID, 10)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (p *Pages) id(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		p.fail(w, apperr.Validation("INVALID_ID", name+" must be a positive integer", map[string]any{name: raw}))
		return 0, false
	}
	return id, true
}

func (p *Pages) fail(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		e = apperr.Internal(err)
	}
	status := api.StatusFor(e.Kind)
	p.render(w, status, "error", errorView{Status: status, Code: e.Code, Message: e.Message})
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	if err := p.execute(w, status, name, data); err != nil {
		p.log.Error("template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// execute renders into a buffer first so a template failure never leaves a
// half-written response.
func (p *Pages) execute(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
