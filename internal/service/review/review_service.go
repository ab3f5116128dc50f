package review

import (
	"context"
	"strings"

	"cardmarket/internal/model"
	"cardmarket/internal/repository"
	"cardmarket/pkg/utils"
)

const maxCommentLen = 1000

// ProductReviews reviews plus the aggregate shown on the product page
type ProductReviews struct {
	Reviews []*model.Review    `json:"reviews"`
	Stats   *model.ReviewStats `json:"stats"`
}

// ReviewService product review operations
type ReviewService interface {
	// Add a review for a product
	Add(ctx context.Context, productID uint64, userID *uint64, name string, rating int, comment string) (*model.Review, error)

	// ListForProduct lists reviews and stats for a product
	ListForProduct(ctx context.Context, productID uint64) (*ProductReviews, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

// NewReviewService creates a review service
func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

// Add adds a review after validating rating and comment
func (s *reviewService) Add(ctx context.Context, productID uint64, userID *uint64, name string, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, utils.Validationf("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, utils.Validationf("comment cannot be empty")
	}
	if len(comment) > maxCommentLen {
		return nil, utils.Validationf("comment is too long")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Anonymous"
	}

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    userID,
		Name:      name,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviewRepo.Add(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListForProduct lists reviews and stats for a product
func (s *reviewService) ListForProduct(ctx context.Context, productID uint64) (*ProductReviews, error) {
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	stats, err := s.reviewRepo.Stats(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductReviews{Reviews: reviews, Stats: stats}, nil
}
