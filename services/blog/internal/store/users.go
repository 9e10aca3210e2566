package store

import (
	"context"
	"time"
)

// User is the public profile shown next to comments and reports.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"-"`
}

// UserStore mirrors profile data from identity tokens.
type UserStore interface {
	UpsertUser(ctx context.Context, u User) error
	// GetUsers returns the known profiles among ids. Unknown ids are absent.
	GetUsers(ctx context.Context, ids []string) (map[string]User, error)
}
