package repositories

import (
	"context"

	"github.com/anonto42/yatube/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository manages the follow graph. Follow and Unfollow are
// idempotent: repeating them never duplicates an edge nor fails.
type FollowRepository interface {
	Follow(ctx context.Context, userID, authorID uint) (bool, error)
	Unfollow(ctx context.Context, userID, authorID uint) (bool, error)
	IsFollowing(ctx context.Context, userID, authorID uint) (bool, error)
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
}

// PostgresFollowRepository implements FollowRepository
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// Follow creates the edge userID -> authorID unless it already exists.
// It reports whether a new edge was written. Self-follows are skipped here;
// the table's check constraint rejects any that get through, and such a
// rejection, like a lost race on the unique pair, is reported as a no-op.
func (r *PostgresFollowRepository) Follow(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == authorID {
		return false, nil
	}
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{UserID: userID, AuthorID: authorID})
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0
		return nil
	})
	if IsConstraintViolation(err) {
		return false, nil
	}
	return created, translate(err)
}

// Unfollow deletes the edge if present and reports whether it did
func (r *PostgresFollowRepository) Unfollow(ctx context.Context, userID, authorID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("author_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
