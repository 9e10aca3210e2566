package articles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/apperr"
	"github.com/example/blog-platform/services/blog/internal/permission"
	"github.com/example/blog-platform/services/blog/internal/store"
)

var (
	admin   = permission.Actor{UserID: "admin", Roles: []string{permission.RoleAdmin}}
	writer  = permission.Actor{UserID: "wendy", Roles: []string{permission.RoleWriter}}
	writer2 = permission.Actor{UserID: "will", Roles: []string{permission.RoleWriter}}
	reader  = permission.Actor{UserID: "rita", Roles: []string{permission.RoleCommentator}}
)

func newService() *Service { return NewService(store.NewInMemoryStore(), zap.NewNop()) }

func TestCreate(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.Create(ctx, reader, Input{Title: "t", Content: "c"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = s.Create(ctx, writer, Input{Title: " ", Content: "c"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	a, err := s.Create(ctx, writer, Input{Title: " Hello ", Summary: "s", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", a.Title)
	assert.Equal(t, writer.UserID, a.AuthorID)
	assert.Equal(t, 1, a.Version)
}

func TestUpdate_OwnershipAndVersion(t *testing.T) {
	s := newService()
	ctx := context.Background()
	a, err := s.Create(ctx, writer, Input{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = s.Update(ctx, writer2, a.ID, Input{Title: "x", Content: "y", Version: 1})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = s.Update(ctx, writer, a.ID, Input{Title: "x", Content: "y"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	up, err := s.Update(ctx, writer, a.ID, Input{Title: "x", Content: "y", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, up.Version)

	_, err = s.Update(ctx, admin, a.ID, Input{Title: "z", Content: "y", Version: 1})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = s.Update(ctx, admin, a.ID, Input{Title: "z", Content: "y", Version: 2})
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	s := newService()
	ctx := context.Background()
	a, err := s.Create(ctx, writer, Input{Title: "t", Content: "c"})
	require.NoError(t, err)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(s.Delete(ctx, reader, a.ID)))
	require.NoError(t, s.Delete(ctx, admin, a.ID))

	_, err = s.Get(ctx, a.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestList_NewestFirst(t *testing.T) {
	s := newService()
	ctx := context.Background()

	empty, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := s.Create(ctx, writer, Input{Title: "first", Content: "c"})
	require.NoError(t, err)
	second, err := s.Create(ctx, writer2, Input{Title: "second", Content: "c"})
	require.NoError(t, err)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	list, err = s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
