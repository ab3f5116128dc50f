package repository

import (
	"context"

	"gorm.io/gorm"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

// NotificationRepository notification repository interface. Rows are
// write-once: created on trade events, listed for display, never updated.
type NotificationRepository interface {
	// Create notification
	Create(ctx context.Context, notification *model.Notification) error

	// List recent user-scoped notifications
	ListForUser(ctx context.Context, userID uint64, limit int) ([]*model.Notification, error)

	// List recent global notifications
	ListGlobal(ctx context.Context, limit int) ([]*model.Notification, error)
}

// notificationRepository notification repository implementation
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create creates a notification
func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return utils.Storage(err)
	}
	return nil
}

// ListForUser lists recent notifications scoped to a user
func (r *notificationRepository) ListForUser(ctx context.Context, userID uint64, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.WithContext(ctx).
		Where("scope = ? AND user_id = ?", model.ScopeUser, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return notifications, nil
}

// ListGlobal lists recent global notifications
func (r *notificationRepository) ListGlobal(ctx context.Context, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.WithContext(ctx).
		Where("scope = ?", model.ScopeGlobal).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return notifications, nil
}
