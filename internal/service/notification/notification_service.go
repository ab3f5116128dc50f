package notification

import (
	"context"

	"cardmarket/internal/model"
	"cardmarket/internal/repository"
)

const defaultListLimit = 50

// Feed the notifications shown to one user: their own plus the global ones
type Feed struct {
	User   []*model.Notification `json:"user"`
	Global []*model.Notification `json:"global"`
}

// NotificationService read side of notifications
type NotificationService interface {
	// FeedFor lists recent notifications visible to the user
	FeedFor(ctx context.Context, userID uint64) (*Feed, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService creates a notification service
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// FeedFor lists recent notifications visible to the user
func (s *notificationService) FeedFor(ctx context.Context, userID uint64) (*Feed, error) {
	user, err := s.repo.ListForUser(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, err
	}
	global, err := s.repo.ListGlobal(ctx, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return &Feed{User: user, Global: global}, nil
}
