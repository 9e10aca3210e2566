package handlers

import (
	"net/http"
	"strconv"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/services/blog/internal/articles"
	"github.com/example/blog-platform/services/blog/internal/store"
)

// CreateArticle handles POST /v1/articles
func CreateArticle(svc *articles.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in articles.Input
		if !decode(w, r, &in) {
			return
		}
		a, err := svc.Create(r.Context(), ActorFromRequest(r), in)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, a)
	}
}

type articlesResponse struct {
	Articles []store.Article `json:"articles"`
}

// ListArticles handles GET /v1/articles?limit=N (newest first)
func ListArticles(svc *articles.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}
		list, err := svc.List(r.Context(), limit)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, articlesResponse{Articles: list})
	}
}

// GetArticle handles GET /v1/articles/{article_id}
func GetArticle(svc *articles.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "article_id")
		if !ok {
			return
		}
		a, err := svc.Get(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, a)
	}
}

// UpdateArticle handles PUT /v1/articles/{article_id}
func UpdateArticle(svc *articles.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "article_id")
		if !ok {
			return
		}
		var in articles.Input
		if !decode(w, r, &in) {
			return
		}
		a, err := svc.Update(r.Context(), ActorFromRequest(r), id, in)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, a)
	}
}

// DeleteArticle handles DELETE /v1/articles/{article_id}
func DeleteArticle(svc *articles.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "article_id")
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
