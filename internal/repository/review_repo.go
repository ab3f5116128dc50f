package repository

import (
	"context"

	"gorm.io/gorm"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

// ReviewRepository product review repository interface
type ReviewRepository interface {
	// Add review
	Add(ctx context.Context, review *model.Review) error

	// List reviews for a product, newest first
	ListByProduct(ctx context.Context, productID uint64) ([]*model.Review, error)

	// Aggregate stats for a product
	Stats(ctx context.Context, productID uint64) (*model.ReviewStats, error)
}

// reviewRepository review repository implementation
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a review repository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Add adds a review
func (r *reviewRepository) Add(ctx context.Context, review *model.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return utils.Storage(err)
	}
	return nil
}

// ListByProduct lists reviews for a product
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uint64) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return reviews, nil
}

// Stats returns the review count and rounded average rating for a product
func (r *reviewRepository) Stats(ctx context.Context, productID uint64) (*model.ReviewStats, error) {
	var stats model.ReviewStats
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COUNT(*) AS count, COALESCE(ROUND(AVG(rating), 1), 0) AS avg").
		Where("product_id = ?", productID).
		Scan(&stats).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return &stats, nil
}
