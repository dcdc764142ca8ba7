package repositories_test

import (
	"context"
	"testing"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v uint) *uint { return &v }

func TestPostRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("it stamps new posts and loads them with author and group", func(t *testing.T) {
		db := testutils.OpenDB(t)
		repo := repositories.NewPostgresPostRepository(db)
		author := testutils.CreateUser(t, db, "auth")
		group := testutils.CreateGroup(t, db, "test-slug")

		post := &models.Post{Text: "Test post", AuthorID: author.ID, GroupID: &group.ID, Image: "posts/small.gif"}
		require.NoError(t, repo.CreatePost(ctx, post))
		assert.NotZero(t, post.ID)
		assert.False(t, post.CreatedAt.IsZero())

		got, err := repo.GetPostByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "auth", got.Author.Username)
		require.NotNil(t, got.Group)
		assert.Equal(t, "test-slug", got.Group.Slug)
		assert.Equal(t, "posts/small.gif", got.Image)
	})

	t.Run("it refuses dangling author or group references", func(t *testing.T) {
		db := testutils.OpenDB(t)
		repo := repositories.NewPostgresPostRepository(db)
		author := testutils.CreateUser(t, db, "auth")

		err := repo.CreatePost(ctx, &models.Post{Text: "x", AuthorID: author.ID + 100})
		assert.ErrorIs(t, err, repositories.ErrInvalidReference)

		err = repo.CreatePost(ctx, &models.Post{Text: "x", AuthorID: author.ID, GroupID: ptr(999)})
		assert.ErrorIs(t, err, repositories.ErrInvalidReference)
	})

	t.Run("it reports unknown posts as not found", func(t *testing.T) {
		db := testutils.OpenDB(t)
		repo := repositories.NewPostgresPostRepository(db)

		_, err := repo.GetPostByID(ctx, 42)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.ErrorIs(t, repo.DeletePost(ctx, 42), repositories.ErrNotFound)
	})

	t.Run("it updates text, group and image, clearing the group when nil", func(t *testing.T) {
		db := testutils.OpenDB(t)
		repo := repositories.NewPostgresPostRepository(db)
		author := testutils.CreateUser(t, db, "auth")
		group := testutils.CreateGroup(t, db, "g")
		post := testutils.CreatePost(t, db, author, group, "before")

		loaded, err := repo.GetPostByID(ctx, post.ID)
		require.NoError(t, err)
		loaded.Text = "after"
		loaded.GroupID = nil
		loaded.Group = nil
		loaded.Image = "posts/new.gif"
		require.NoError(t, repo.UpdatePost(ctx, loaded))

		got, err := repo.GetPostByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Text)
		assert.Nil(t, got.GroupID)
		assert.Equal(t, "posts/new.gif", got.Image)
		assert.Equal(t, author.ID, got.AuthorID)
	})

	t.Run("it lists newest first and filters by group, author and follower", func(t *testing.T) {
		db := testutils.OpenDB(t)
		repo := repositories.NewPostgresPostRepository(db)
		a := testutils.CreateUser(t, db, "a")
		b := testutils.CreateUser(t, db, "b")
		reader := testutils.CreateUser(t, db, "reader")
		group := testutils.CreateGroup(t, db, "g")
		aPosts := testutils.CreatePosts(t, db, a, group, 3)
		testutils.CreatePosts(t, db, b, nil, 2)
		testutils.Follow(t, db, reader, a)

		all, err := repo.ListPosts(ctx, repositories.PostFilter{}, 0, 10)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
		}

		byGroup, err := repo.ListPosts(ctx, repositories.PostFilter{GroupID: &group.ID}, 0, 10)
		require.NoError(t, err)
		assert.Len(t, byGroup, 3)
		assert.Equal(t, aPosts[2].ID, byGroup[0].ID)

		n, err := repo.CountPosts(ctx, repositories.PostFilter{AuthorID: &b.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		feed, err := repo.ListPosts(ctx, repositories.PostFilter{FollowerID: &reader.ID}, 0, 10)
		require.NoError(t, err)
		require.Len(t, feed, 3)
		for _, p := range feed {
			assert.Equal(t, a.ID, p.AuthorID)
			assert.Equal(t, "a", p.Author.Username)
		}

		window, err := repo.ListPosts(ctx, repositories.PostFilter{}, 4, 10)
		require.NoError(t, err)
		assert.Len(t, window, 1)
	})
}
