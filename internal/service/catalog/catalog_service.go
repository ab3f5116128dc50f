package catalog

import (
	"context"
	"strings"

	"cardmarket/internal/model"
	"cardmarket/internal/repository"
	"cardmarket/pkg/utils"
)

// ProductInput create/update payload for a catalog card
type ProductInput struct {
	ProductName     string   `json:"product_name"`
	Quantity        int      `json:"quantity"`
	Price           float64  `json:"price"`
	DiscountPercent *float64 `json:"discount_percent"`
	Image           *string  `json:"image"`
	Rarity          *string  `json:"rarity"`
}

// CatalogService product catalog operations
type CatalogService interface {
	// List all products
	List(ctx context.Context) ([]*model.Product, error)

	// Get one product
	Get(ctx context.Context, id uint64) (*model.Product, error)

	// Create product (admin)
	Create(ctx context.Context, input ProductInput) (*model.Product, error)

	// Update product (admin)
	Update(ctx context.Context, id uint64, input ProductInput) (*model.Product, error)

	// Delete product (admin)
	Delete(ctx context.Context, id uint64) error
}

type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a catalog service
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

func validate(input *ProductInput) error {
	input.ProductName = strings.TrimSpace(input.ProductName)
	if input.ProductName == "" {
		return utils.Validationf("product name is required")
	}
	if input.Price < 0 {
		return utils.Validationf("price cannot be negative")
	}
	if input.Quantity < 0 {
		return utils.Validationf("quantity cannot be negative")
	}
	if input.DiscountPercent != nil && (*input.DiscountPercent < 0 || *input.DiscountPercent > 100) {
		return utils.Validationf("discount percent must be between 0 and 100")
	}
	return nil
}

// List lists all products
func (s *catalogService) List(ctx context.Context) ([]*model.Product, error) {
	return s.productRepo.List(ctx)
}

// Get gets one product
func (s *catalogService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// Create creates a product
func (s *catalogService) Create(ctx context.Context, input ProductInput) (*model.Product, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	product := &model.Product{
		ProductName:     input.ProductName,
		Quantity:        input.Quantity,
		Price:           input.Price,
		DiscountPercent: input.DiscountPercent,
		Image:           input.Image,
		Rarity:          input.Rarity,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update updates a product
func (s *catalogService) Update(ctx context.Context, id uint64, input ProductInput) (*model.Product, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.ProductName = input.ProductName
	product.Quantity = input.Quantity
	product.Price = input.Price
	product.DiscountPercent = input.DiscountPercent
	product.Image = input.Image
	product.Rarity = input.Rarity
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete deletes a product
func (s *catalogService) Delete(ctx context.Context, id uint64) error {
	return s.productRepo.Delete(ctx, id)
}
