package auth

import (
	"net/http"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/httpserver"
)

const RoleAdmin = "admin"

// RequireAdmin allows the request only if RequireUser already injected the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "Authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		if !HasRole(r.Context(), RoleAdmin) {
			api.Forbidden(w, "FORBIDDEN", "Administrator role required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
