package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

// ErrPromoNotFound distinguishes "no such code" from storage failures so the
// validator can treat the former as "no promo" instead of an error.
var ErrPromoNotFound = errors.New("promo code not found")

// PromoRepository promo code repository interface
type PromoRepository interface {
	// Get promo by exact code
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)

	// List all known codes (filter seeding)
	ListCodes(ctx context.Context) ([]string, error)

	// Create promo code
	Create(ctx context.Context, promo *model.PromoCode) error
}

// promoRepository promo repository implementation
type promoRepository struct {
	db *gorm.DB
}

// NewPromoRepository creates a promo repository
func NewPromoRepository(db *gorm.DB) PromoRepository {
	return &promoRepository{db: db}
}

// GetByCode gets a promo by exact code match
func (r *promoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	var promo model.PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, utils.Storage(err)
	}
	return &promo, nil
}

// ListCodes lists every promo code string
func (r *promoRepository) ListCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&model.PromoCode{}).
		Pluck("code", &codes).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return codes, nil
}

// Create creates a promo code
func (r *promoRepository) Create(ctx context.Context, promo *model.PromoCode) error {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return utils.Storage(err)
	}
	return nil
}
