// Package permission decides who may act on articles, comments and reports.
// Predicates are pure; the Check variants turn a denial into the matching
// apperr (Unauthorized for anonymous callers, Forbidden otherwise).
package permission

import (
	"strings"

	"github.com/example/blog-platform/internal/platform/apperr"
	"github.com/example/blog-platform/services/blog/internal/store"
)

const (
	RoleAdmin       = "admin"
	RoleWriter      = "writer"
	RoleCommentator = "commentator"
)

// Actor is the caller as seen by the services.
type Actor struct {
	UserID string
	Name   string
	Roles  []string
}

// Anonymous is the actor for unauthenticated requests.
var Anonymous = Actor{}

func (a Actor) Authenticated() bool { return strings.TrimSpace(a.UserID) != "" }

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

func (a Actor) hasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if a.HasRole(r) {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool { return a.Authenticated() && a.HasRole(RoleAdmin) }

func CanCreateComment(a Actor) bool {
	return a.Authenticated() && a.hasAnyRole(RoleAdmin, RoleCommentator)
}

// CanEditComment: authors may edit their own comments until they are
// blocked; administrators may always edit.
func CanEditComment(a Actor, c store.Comment) bool {
	if !a.Authenticated() || !a.hasAnyRole(RoleAdmin, RoleWriter, RoleCommentator) {
		return false
	}
	if a.IsAdmin() {
		return true
	}
	return !c.IsBlocked && c.AuthorID == a.UserID
}

func CanDeleteComment(a Actor, c store.Comment) bool { return CanEditComment(a, c) }

func CanReport(a Actor) bool { return a.Authenticated() }

func CanModerate(a Actor) bool { return a.IsAdmin() }

func CanViewBlocked(a Actor) bool { return a.IsAdmin() }

func CanCreateArticle(a Actor) bool {
	return a.Authenticated() && a.hasAnyRole(RoleAdmin, RoleWriter)
}

func CanEditArticle(a Actor, art store.Article) bool {
	return a.IsAdmin() || (a.Authenticated() && a.HasRole(RoleWriter) && art.AuthorID == a.UserID)
}

func CanDeleteArticle(a Actor, art store.Article) bool { return CanEditArticle(a, art) }

func deny(a Actor, msg string) error {
	if !a.Authenticated() {
		return apperr.Unauthorized("UNAUTHORIZED", "Authentication required")
	}
	return apperr.Forbidden("FORBIDDEN", msg)
}

func CheckCreateComment(a Actor) error {
	if CanCreateComment(a) {
		return nil
	}
	return deny(a, "You are not allowed to comment")
}

func CheckEditComment(a Actor, c store.Comment) error {
	if CanEditComment(a, c) {
		return nil
	}
	if a.Authenticated() && c.IsBlocked && c.AuthorID == a.UserID {
		return apperr.Forbidden("COMMENT_BLOCKED", "This comment has been blocked and cannot be edited")
	}
	return deny(a, "You can only edit your own comments")
}

func CheckDeleteComment(a Actor, c store.Comment) error {
	if CanDeleteComment(a, c) {
		return nil
	}
	if a.Authenticated() && c.IsBlocked && c.AuthorID == a.UserID {
		return apperr.Forbidden("COMMENT_BLOCKED", "This comment has been blocked and can only be deleted by an administrator")
	}
	return deny(a, "You can only delete your own comments")
}

func CheckReport(a Actor) error {
	if CanReport(a) {
		return nil
	}
	return deny(a, "You are not allowed to report comments")
}

func CheckModerate(a Actor) error {
	if CanModerate(a) {
		return nil
	}
	return deny(a, "Administrator role required")
}

func CheckCreateArticle(a Actor) error {
	if CanCreateArticle(a) {
		return nil
	}
	return deny(a, "Writer or administrator role required")
}

func CheckEditArticle(a Actor, art store.Article) error {
	if CanEditArticle(a, art) {
		return nil
	}
	return deny(a, "You can only edit your own articles")
}

func CheckDeleteArticle(a Actor, art store.Article) error {
	if CanDeleteArticle(a, art) {
		return nil
	}
	return deny(a, "You can only delete your own articles")
}
