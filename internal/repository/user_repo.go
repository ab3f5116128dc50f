package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

// UserRepository user repository interface
type UserRepository interface {
	// Get user by ID
	GetByID(ctx context.Context, id uint64) (*model.User, error)

	// Get user by username
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// List users
	List(ctx context.Context) ([]*model.User, error)

	// Count users
	Count(ctx context.Context) (int64, error)
}

// userRepository user repository implementation
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("user not found")
		}
		return nil, utils.Storage(err)
	}
	return &user, nil
}

// GetByUsername gets a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("user not found")
		}
		return nil, utils.Storage(err)
	}
	return &user, nil
}

// List lists users
func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, utils.Storage(err)
	}
	return users, nil
}

// Count counts users
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, utils.Storage(err)
	}
	return total, nil
}
