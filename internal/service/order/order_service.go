package order

import (
	"context"

	"cardmarket/internal/model"
	"cardmarket/internal/repository"
	"cardmarket/internal/service/pricing"
	"cardmarket/internal/service/promo"
	"cardmarket/pkg/log"
	"cardmarket/pkg/utils"
)

// CheckoutItem one requested line at checkout time
type CheckoutItem struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CheckoutInput everything checkout needs besides the authenticated user
type CheckoutInput struct {
	Items     []CheckoutItem `json:"items"`
	PromoCode string         `json:"promo_code"`
	Address   *string        `json:"address"`
}

// PlacedOrder checkout result: the stored order plus the price breakdown it
// was charged with
type PlacedOrder struct {
	Order     *model.Order        `json:"order"`
	Breakdown pricing.Breakdown   `json:"breakdown"`
	Promo     *model.AppliedPromo `json:"promo,omitempty"`
}

// OrderService order placement and history
type OrderService interface {
	// Checkout validates items, prices them and places the order atomically
	Checkout(ctx context.Context, userID uint64, input CheckoutInput) (*PlacedOrder, error)

	// Get one order; non-admins only see their own
	Get(ctx context.Context, userID uint64, isAdmin bool, orderID uint64) (*model.Order, pricing.Breakdown, error)

	// ListForUser lists the user's orders, newest first
	ListForUser(ctx context.Context, userID uint64) ([]*model.Order, error)

	// Audit lists all orders for the admin audit log
	Audit(ctx context.Context, page, pageSize int, search string) ([]*repository.OrderAudit, int64, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	promoSvc    promo.PromoService
}

// NewOrderService creates an order service
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, promoSvc promo.PromoService) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		promoSvc:    promoSvc,
	}
}

// normalize drops malformed lines and merges duplicates by product
func normalize(items []CheckoutItem) []CheckoutItem {
	byProduct := make(map[uint64]int, len(items))
	order := make([]uint64, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			continue
		}
		if _, seen := byProduct[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		byProduct[item.ProductID] += item.Quantity
	}

	out := make([]CheckoutItem, 0, len(order))
	for _, id := range order {
		out = append(out, CheckoutItem{ProductID: id, Quantity: byProduct[id]})
	}
	return out
}

// Checkout prices the requested items against current product data and places
// the order. Stock is checked inside the repository transaction, not here, so
// two concurrent checkouts cannot both succeed on the last copy.
func (s *orderService) Checkout(ctx context.Context, userID uint64, input CheckoutInput) (*PlacedOrder, error) {
	items := normalize(input.Items)
	if len(items) == 0 {
		return nil, utils.Validationf("no items to place")
	}

	orderItems := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		orderItems = append(orderItems, model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.ProductName,
			Rarity:      product.Rarity,
			Price:       product.EffectivePrice(),
			Quantity:    item.Quantity,
			Image:       product.Image,
		})
	}

	lines := pricing.FromOrderItems(orderItems)
	subtotal := pricing.Subtotal(lines)

	applied, err := s.promoSvc.Validate(ctx, input.PromoCode, subtotal)
	if err != nil {
		return nil, err
	}
	var promoAmount float64
	if applied != nil {
		promoAmount = applied.Amount
	}

	breakdown := pricing.Compute(lines, promoAmount)

	order := &model.Order{
		UserID:  userID,
		Total:   breakdown.Total,
		Address: input.Address,
	}
	if err := s.orderRepo.PlaceOrder(ctx, order, orderItems); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    breakdown.Total,
		"items":    len(orderItems),
	}).Info("order placed")

	return &PlacedOrder{Order: order, Breakdown: breakdown, Promo: applied}, nil
}

// Get one order with a recomputed breakdown. The breakdown is derived from the
// stored item prices so the receipt view matches what was charged.
func (s *orderService) Get(ctx context.Context, userID uint64, isAdmin bool, orderID uint64) (*model.Order, pricing.Breakdown, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		return nil, pricing.Breakdown{}, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, pricing.Breakdown{}, utils.Forbiddenf("not your order")
	}

	lines := pricing.FromOrderItems(order.Items)
	breakdown := pricing.Compute(lines, pricing.PromoFromTotal(lines, order.Total))
	return order, breakdown, nil
}

// ListForUser lists the user's orders
func (s *orderService) ListForUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// Audit lists all orders for the admin audit log
func (s *orderService) Audit(ctx context.Context, page, pageSize int, search string) ([]*repository.OrderAudit, int64, error) {
	return s.orderRepo.ListAllPaginated(ctx, page, pageSize, search)
}
