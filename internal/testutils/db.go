// Package testutils builds throwaway databases and fixtures for tests.
package testutils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/pkg/config"
	"gorm.io/gorm"
)

// OpenDB returns a migrated SQLite database living in t.TempDir().
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := config.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := &config.DB{Gorm: gdb}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(db.CloseDB)
	return gdb
}

// CreateUser inserts a user with the given username
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// CreateGroup inserts a group with the given slug
func CreateGroup(t *testing.T, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: "Group " + slug, Slug: slug, Description: "About " + slug}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return group
}

// CreatePost inserts a post by author, optionally in group
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		post.GroupID = &group.ID
	}
	if err := db.Omit("Author", "Group").Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// CreatePosts inserts n posts with strictly increasing creation times
func CreatePosts(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, n int) []models.Post {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := models.Post{Text: "post", AuthorID: author.ID, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if group != nil {
			post.GroupID = &group.ID
		}
		if err := db.WithContext(context.Background()).Omit("Author", "Group").Create(&post).Error; err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
		posts = append(posts, post)
	}
	return posts
}

// Follow inserts a follow edge directly
func Follow(t *testing.T, db *gorm.DB, user, author *models.User) {
	t.Helper()
	if err := db.Omit("User", "Author").Create(&models.Follow{UserID: user.ID, AuthorID: author.ID}).Error; err != nil {
		t.Fatalf("follow: %v", err)
	}
}
