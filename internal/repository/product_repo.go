package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

// ProductRepository product repository interface
type ProductRepository interface {
	// Create product
	Create(ctx context.Context, product *model.Product) error

	// Get product by ID
	GetByID(ctx context.Context, id uint64) (*model.Product, error)

	// Update product
	Update(ctx context.Context, product *model.Product) error

	// Delete product
	Delete(ctx context.Context, id uint64) error

	// List all products
	List(ctx context.Context) ([]*model.Product, error)

	// Count products
	Count(ctx context.Context) (int64, error)
}

// productRepository product repository implementation
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a product
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return utils.Storage(err)
	}
	return nil
}

// GetByID gets a product by ID
func (r *productRepository) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("product not found")
		}
		return nil, utils.Storage(err)
	}
	return &product, nil
}

// Update updates a product
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return utils.Storage(err)
	}
	return nil
}

// Delete deletes a product
func (r *productRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		return utils.Storage(result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NotFoundf("product not found")
	}
	return nil
}

// List lists all products
func (r *productRepository) List(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return products, nil
}

// Count counts products
func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&total).Error; err != nil {
		return 0, utils.Storage(err)
	}
	return total, nil
}
