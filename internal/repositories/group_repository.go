package repositories

import (
	"context"

	"github.com/anonto42/yatube/backend/internal/models"
	"gorm.io/gorm"
)

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroupByID(ctx context.Context, id uint) (*models.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error)
	GetGroups(ctx context.Context) ([]models.Group, error)
	DeleteGroup(ctx context.Context, id uint) error
}

// PostgresGroupRepository implements GroupRepository
type PostgresGroupRepository struct {
	db *gorm.DB
}

// NewPostgresGroupRepository creates a new PostgresGroupRepository
func NewPostgresGroupRepository(db *gorm.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

func (r *PostgresGroupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	return translate(r.db.WithContext(ctx).Create(group).Error)
}

func (r *PostgresGroupRepository) GetGroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (r *PostgresGroupRepository) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

// GetGroups lists all groups by title
func (r *PostgresGroupRepository) GetGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Order("title").Find(&groups).Error
	return groups, err
}

// DeleteGroup removes a group. Its posts stay; the store sets their
// group_id to NULL.
func (r *PostgresGroupRepository) DeleteGroup(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Group{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
