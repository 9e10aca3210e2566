package handlers

import (
	"net/http"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/services/blog/internal/comments"
	"github.com/example/blog-platform/services/blog/internal/permission"
)

// ReplyRenderer writes replies as an HTML fragment for partial page updates.
type ReplyRenderer interface {
	RenderReplies(w http.ResponseWriter, actor permission.Actor, parentID int64, nodes []comments.Node) error
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type editCommentRequest struct {
	Content string `json:"content"`
}

type threadResponse struct {
	Comments []comments.Node `json:"comments"`
}

type repliesResponse struct {
	Replies []comments.Node `json:"replies"`
}

// CreateComment handles POST /v1/articles/{article_id}/comments
func CreateComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := idParam(w, r, "article_id")
		if !ok {
			return
		}
		var req createCommentRequest
		if !decode(w, r, &req) {
			return
		}
		c, err := svc.Create(r.Context(), ActorFromRequest(r), comments.CreateInput{
			ArticleID: articleID,
			ParentID:  req.ParentID,
			Content:   req.Content,
		})
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

// ArticleThread handles GET /v1/articles/{article_id}/comments
func ArticleThread(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := idParam(w, r, "article_id")
		if !ok {
			return
		}
		actor := ActorFromRequest(r)
		nodes, err := svc.ArticleComments(r.Context(), articleID, permission.CanViewBlocked(actor))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, threadResponse{Comments: nodes})
	}
}

// GetComment handles GET /v1/comments/{comment_id}
func GetComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "comment_id")
		if !ok {
			return
		}
		n, err := svc.Get(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, n)
	}
}

// GetReplies handles GET /v1/comments/{comment_id}/replies. XHR callers get
// an HTML fragment when fragments is set.
func GetReplies(svc *comments.Service, fragments ReplyRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "comment_id")
		if !ok {
			return
		}
		actor := ActorFromRequest(r)
		nodes, err := svc.Replies(r.Context(), id, permission.CanViewBlocked(actor))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if fragments != nil && api.IsPartialRequest(r) {
			if err := fragments.RenderReplies(w, actor, id, nodes); err != nil {
				api.Internal(w, requestID(r))
			}
			return
		}
		api.WriteJSON(w, http.StatusOK, repliesResponse{Replies: nodes})
	}
}

// EditComment handles PUT /v1/comments/{comment_id}
func EditComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "comment_id")
		if !ok {
			return
		}
		var req editCommentRequest
		if !decode(w, r, &req) {
			return
		}
		c, err := svc.Edit(r.Context(), ActorFromRequest(r), id, req.Content)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "comment_id")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), ActorFromRequest(r), id); err != nil {
			writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
