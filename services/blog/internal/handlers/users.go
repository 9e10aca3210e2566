package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/services/blog/internal/store"
)

// TrackUser mirrors the caller's display name from token claims into the
// user directory. Each distinct (id, name) pair is written once per process.
func TrackUser(users store.UserStore, log *zap.Logger) func(http.Handler) http.Handler {
	var seen sync.Map
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := auth.UserIDFromContext(r.Context())
			if ok && uid != "" {
				name := strings.TrimSpace(auth.NameFromContext(r.Context()))
				if name == "" {
					name = uid
				}
				if prev, ok := seen.Load(uid); !ok || prev.(string) != name {
					err := users.UpsertUser(r.Context(), store.User{ID: uid, DisplayName: name, UpdatedAt: time.Now().UTC()})
					if err != nil {
						log.Warn("user upsert failed", zap.String("user_id", uid), zap.Error(err))
					} else {
						seen.Store(uid, name)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
