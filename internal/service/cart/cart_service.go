package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"

	"cardmarket/internal/model"
	"cardmarket/internal/repository"
	"cardmarket/pkg/utils"
)

// CartService session cart operations, one cart per user
type CartService interface {
	// Get the user's cart, empty cart if none exists
	Get(ctx context.Context, userID uint64) (model.Cart, error)

	// Add a product to the cart, merging quantity with an existing line
	Add(ctx context.Context, userID uint64, productID uint64, quantity int) (model.Cart, error)

	// SetQuantity replaces the quantity of an existing line
	SetQuantity(ctx context.Context, userID uint64, productID uint64, quantity int) (model.Cart, error)

	// Remove drops a line from the cart
	Remove(ctx context.Context, userID uint64, productID uint64) (model.Cart, error)

	// Clear empties the cart
	Clear(ctx context.Context, userID uint64) error
}

type cartService struct {
	cache       *bigcache.BigCache
	productRepo repository.ProductRepository
}

// NewCartService creates a cart service backed by an in-memory cache.
// Carts expire after ttl of inactivity.
func NewCartService(productRepo repository.ProductRepository, ttl time.Duration, shards int) (CartService, error) {
	cfg := bigcache.DefaultConfig(ttl)
	if shards > 0 {
		cfg.Shards = shards
	}
	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("init cart cache: %w", err)
	}
	return &cartService{cache: cache, productRepo: productRepo}, nil
}

func cartKey(userID uint64) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (s *cartService) load(userID uint64) (model.Cart, error) {
	data, err := s.cache.Get(cartKey(userID))
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return model.Cart{}, nil
		}
		return nil, utils.Storage(err)
	}
	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		// Corrupt entry, start over rather than failing every request.
		return model.Cart{}, nil
	}
	return cart, nil
}

func (s *cartService) save(userID uint64, cart model.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return utils.Storage(err)
	}
	if err := s.cache.Set(cartKey(userID), data); err != nil {
		return utils.Storage(err)
	}
	return nil
}

// Get the user's cart
func (s *cartService) Get(ctx context.Context, userID uint64) (model.Cart, error) {
	return s.load(userID)
}

// Add merges quantity into the cart line for the product, snapshotting the
// product's current effective price on first add.
func (s *cartService) Add(ctx context.Context, userID uint64, productID uint64, quantity int) (model.Cart, error) {
	if quantity < 1 {
		return nil, utils.Validationf("quantity must be at least 1")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.HasStock() {
		return nil, utils.Conflictf("%s is out of stock", product.ProductName)
	}

	cart, err := s.load(userID)
	if err != nil {
		return nil, err
	}

	if item, ok := cart[productID]; ok {
		item.Quantity += quantity
	} else {
		cart[productID] = &model.CartItem{
			ProductID:       product.ID,
			ProductName:     product.ProductName,
			Rarity:          product.Rarity,
			Price:           product.EffectivePrice(),
			OriginalPrice:   product.Price,
			DiscountPercent: product.DiscountPercent,
			Quantity:        quantity,
			Image:           product.Image,
		}
	}

	if err := s.save(userID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetQuantity replaces the quantity of an existing line
func (s *cartService) SetQuantity(ctx context.Context, userID uint64, productID uint64, quantity int) (model.Cart, error) {
	if quantity < 1 {
		return nil, utils.Validationf("quantity must be at least 1")
	}

	cart, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	item, ok := cart[productID]
	if !ok {
		return nil, utils.NotFoundf("product %d is not in the cart", productID)
	}
	item.Quantity = quantity

	if err := s.save(userID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Remove drops a line from the cart
func (s *cartService) Remove(ctx context.Context, userID uint64, productID uint64) (model.Cart, error) {
	cart, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	delete(cart, productID)

	if err := s.save(userID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart
func (s *cartService) Clear(ctx context.Context, userID uint64) error {
	if err := s.cache.Delete(cartKey(userID)); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return utils.Storage(err)
	}
	return nil
}
