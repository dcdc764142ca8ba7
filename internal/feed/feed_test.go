package feed_test

import (
	"context"
	"testing"

	"github.com/anonto42/yatube/backend/internal/feed"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(db *gorm.DB) *feed.Service {
	return feed.NewService(
		repositories.NewPostgresPostRepository(db),
		repositories.NewPostgresGroupRepository(db),
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresFollowRepository(db),
		feed.DefaultPageSize,
	)
}

func TestFeeds(t *testing.T) {
	ctx := context.Background()
	db := testutils.OpenDB(t)
	svc := newService(db)

	auth := testutils.CreateUser(t, db, "auth")
	reader := testutils.CreateUser(t, db, "reader")
	stranger := testutils.CreateUser(t, db, "stranger")
	group := testutils.CreateGroup(t, db, "test-slug")
	testutils.CreatePosts(t, db, auth, group, 13)
	testutils.CreatePost(t, db, stranger, nil, "elsewhere")
	testutils.Follow(t, db, reader, auth)

	t.Run("global feed pages hold 10 then the remainder", func(t *testing.T) {
		first, err := svc.Global(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 10, first.Len())
		assert.Equal(t, int64(14), first.Count)

		second, err := svc.Global(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 4, second.Len())
	})

	t.Run("group feed pages hold 10 then 3", func(t *testing.T) {
		g, first, err := svc.Group(ctx, "test-slug", 1)
		require.NoError(t, err)
		assert.Equal(t, group.ID, g.ID)
		assert.Equal(t, 10, first.Len())

		_, second, err := svc.Group(ctx, "test-slug", 2)
		require.NoError(t, err)
		assert.Equal(t, 3, second.Len())
	})

	t.Run("a page past the end returns the last page", func(t *testing.T) {
		_, page, err := svc.Group(ctx, "test-slug", 7)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Number)
		assert.Equal(t, 3, page.Len())
	})

	t.Run("page zero is out of range", func(t *testing.T) {
		_, err := svc.Global(ctx, 0)
		assert.ErrorIs(t, err, feed.ErrPageOutOfRange)
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		_, _, err := svc.Group(ctx, "nope", 1)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("author feed reports the viewer's follow state", func(t *testing.T) {
		af, err := svc.Author(ctx, "auth", reader, 2)
		require.NoError(t, err)
		assert.True(t, af.Following)
		assert.Equal(t, 3, af.Page.Len())
		assert.Equal(t, int64(1), af.Followers)

		af, err = svc.Author(ctx, "auth", stranger, 1)
		require.NoError(t, err)
		assert.False(t, af.Following)

		af, err = svc.Author(ctx, "auth", nil, 1)
		require.NoError(t, err)
		assert.False(t, af.Following)
	})

	t.Run("unknown author is not found", func(t *testing.T) {
		_, err := svc.Author(ctx, "ghost", nil, 1)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("following feed holds only followed authors", func(t *testing.T) {
		page, err := svc.Following(ctx, reader, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(13), page.Count)
		for _, p := range page.Posts {
			assert.Equal(t, auth.ID, p.AuthorID)
		}

		empty, err := svc.Following(ctx, stranger, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, empty.Len())
		assert.Equal(t, 1, empty.NumPages)
	})
}
