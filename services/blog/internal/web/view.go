package web

import (
	"html/template"

	"github.com/example/blog-platform/services/blog/internal/comments"
	"github.com/example/blog-platform/services/blog/internal/permission"
	"github.com/example/blog-platform/services/blog/internal/render"
	"github.com/example/blog-platform/services/blog/internal/store"
)

// nodeView is a comment node decorated with what the viewer may do with it.
type nodeView struct {
	store.Comment
	AuthorName  string
	HTML        template.HTML
	Replies     []nodeView
	CanReply    bool
	CanEdit     bool
	CanReport   bool
	CanModerate bool
}

type pageView struct {
	Article    store.Article
	Threads    []nodeView
	CanComment bool
}

type errorView struct {
	Status  int
	Code    string
	Message string
}

func viewNodes(actor permission.Actor, nodes []comments.Node) []nodeView {
	out := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, viewNode(actor, n))
	}
	return out
}

func viewNode(actor permission.Actor, n comments.Node) nodeView {
	name := n.AuthorID
	if n.Author != nil && n.Author.DisplayName != "" {
		name = n.Author.DisplayName
	}
	return nodeView{
		Comment:     n.Comment,
		AuthorName:  name,
		HTML:        render.Markdown(n.Content),
		Replies:     viewNodes(actor, n.Replies),
		CanReply:    permission.CanCreateComment(actor) && !n.IsBlocked,
		CanEdit:     permission.CanEditComment(actor, n.Comment),
		CanReport:   permission.CanReport(actor) && actor.UserID != n.AuthorID,
		CanModerate: permission.CanModerate(actor),
	}
}
