package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/httpserver"
)

// CookieName is the session cookie checked when no Authorization header is sent.
const CookieName = "access_token"

type ctxKeyUserID struct{}
type ctxKeyRoles struct{}
type ctxKeyName struct{}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

// WithRoles injects roles into context. Useful for testing.
func WithRoles(ctx context.Context, roles ...string) context.Context {
	return context.WithValue(ctx, ctxKeyRoles{}, roles)
}

func RolesFromContext(ctx context.Context) []string {
	v, _ := ctx.Value(ctxKeyRoles{}).([]string)
	return v
}

func NameFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyName{}).(string)
	return v
}

// HasRole reports whether the context carries role, case-insensitively.
func HasRole(ctx context.Context, role string) bool {
	for _, r := range RolesFromContext(ctx) {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

type Claims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name,omitempty"`
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// AllRoles merges the single role claim with the roles list, dropping blanks
// and duplicates.
func (c *Claims) AllRoles() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range append([]string{c.Role}, c.Roles...) {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Issue signs an HS256 token for subject. Used by the dev token command and tests.
func (v JWTVerifier) Issue(subject, name string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:  name,
		Roles: roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}

// WithClaims injects the identity carried by claims into ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID{}, claims.Subject)
	ctx = context.WithValue(ctx, ctxKeyRoles{}, claims.AllRoles())
	if name := strings.TrimSpace(claims.Name); name != "" {
		ctx = context.WithValue(ctx, ctxKeyName{}, name)
	}
	return ctx
}

// TokenFromRequest returns the bearer token or the session cookie value.
// A malformed Authorization header yields ok=false without cookie fallback.
func TokenFromRequest(r *http.Request) (string, bool) {
	if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", false
		}
		tok := strings.TrimSpace(parts[1])
		return tok, tok != ""
	}
	if c, err := r.Cookie(CookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value), true
	}
	return "", false
}

// RequireUser middleware validates the token and injects the caller identity.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := httpserver.RequestIDFromContext(r.Context())
			tok, ok := TokenFromRequest(r)
			if !ok {
				api.Unauthorized(w, "UNAUTHORIZED", "Authentication required", rid)
				return
			}
			claims, err := verifier.Parse(tok)
			if err != nil {
				api.Unauthorized(w, "UNAUTHORIZED", "Invalid or expired token", rid)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalUser injects the identity when a valid token is present and lets
// anonymous requests through. Invalid tokens are treated as anonymous.
func OptionalUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok, ok := TokenFromRequest(r); ok {
				if claims, err := verifier.Parse(tok); err == nil {
					r = r.WithContext(WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
