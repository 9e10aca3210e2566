package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/internal/platform/httpserver"
	"github.com/example/blog-platform/services/blog/internal/permission"
)

// ActorFromRequest builds the caller identity from the auth context. Requests
// without a verified token yield permission.Anonymous.
func ActorFromRequest(r *http.Request) permission.Actor {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == "" {
		return permission.Anonymous
	}
	return permission.Actor{
		UserID: uid,
		Name:   auth.NameFromContext(r.Context()),
		Roles:  auth.RolesFromContext(r.Context()),
	}
}

// idParam parses a positive integer URL parameter. On failure it writes a 400
// and returns false.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_ID", name+" must be a positive integer", requestID(r), map[string]any{name: raw})
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", requestID(r), nil)
		return false
	}
	return true
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	api.WriteAppError(w, requestID(r), err)
}

func requestID(r *http.Request) string {
	return httpserver.RequestIDFromContext(r.Context())
}
