package repositories

import (
	"context"

	"github.com/anonto42/yatube/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Zero value lists every post.
type PostFilter struct {
	GroupID    *uint
	AuthorID   *uint
	FollowerID *uint // posts by authors this user follows
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
	ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error)
}

// PostgresPostRepository implements PostRepository
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts a post. Author and group are checked by the foreign
// keys; a dangling reference yields ErrInvalidReference.
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error)
}

// GetPostByID retrieves a post with its author and group
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// UpdatePost writes the editable fields of a post: text, group and image.
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("Text", "GroupID", "Image").
		Updates(post)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost deletes a post and, through the foreign key, its comments
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPostRepository) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(r.filtered(filter)).Count(&count).Error
	return count, err
}

// ListPosts returns a window of posts matching filter, newest first
func (r *PostgresPostRepository) ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Scopes(r.filtered(filter), newestFirst).
		Preload("Author").
		Preload("Group").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) filtered(filter PostFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.GroupID != nil {
			db = db.Where("posts.group_id = ?", *filter.GroupID)
		}
		if filter.AuthorID != nil {
			db = db.Where("posts.author_id = ?", *filter.AuthorID)
		}
		if filter.FollowerID != nil {
			db = db.Where("posts.author_id IN (?)",
				r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", *filter.FollowerID),
			)
		}
		return db
	}
}

// newestFirst orders by creation time; id breaks ties between posts created
// within the same clock tick.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}
