package repositories

import (
	"context"

	"github.com/anonto42/yatube/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByPostID(ctx context.Context, postID uint) ([]models.Comment, error)
}

// PostgresCommentRepository implements CommentRepository
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment; post and author must exist
func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error)
}

// GetCommentsByPostID retrieves the comments of a post, oldest first
func (r *PostgresCommentRepository) GetCommentsByPostID(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at").Order("id").
		Find(&comments).Error
	return comments, err
}
