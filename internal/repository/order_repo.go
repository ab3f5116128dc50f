package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

// OrderAudit one order in the admin audit listing
type OrderAudit struct {
	Order         *model.Order `json:"order"`
	Username      string       `json:"username"`
	Email         string       `json:"email"`
	TotalQuantity int          `json:"total_quantity"`
}

// OrderRepository order repository interface
type OrderRepository interface {
	// Place order: lock stock, validate, insert order and items, decrement
	// stock, all in one transaction
	PlaceOrder(ctx context.Context, order *model.Order, items []model.OrderItem) error

	// Get order with its items
	GetWithItems(ctx context.Context, id uint64) (*model.Order, error)

	// List orders for a user
	ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error)

	// List all orders with items for the admin audit log
	ListAllPaginated(ctx context.Context, page, pageSize int, search string) ([]*OrderAudit, int64, error)

	// Count orders
	Count(ctx context.Context) (int64, error)
}

// orderRepository order repository implementation
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// PlaceOrder creates the order, its items and the stock decrements atomically.
// Product rows are locked with SELECT ... FOR UPDATE first so concurrent
// placements against the same product serialize on the row lock; the stock
// check below therefore never runs against stale data. Any error rolls the
// whole transaction back.
func (r *orderRepository) PlaceOrder(ctx context.Context, order *model.Order, items []model.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint64, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}

		var products []model.Product
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Find(&products).Error; err != nil {
			return utils.Storage(err)
		}

		stockByID := make(map[uint64]int, len(products))
		for _, p := range products {
			stockByID[p.ID] = p.Quantity
		}

		for _, item := range items {
			stock, ok := stockByID[item.ProductID]
			if !ok {
				return utils.NotFoundf("product not found: %s", itemLabel(item))
			}
			if stock < item.Quantity {
				return utils.Conflictf("not enough stock for %s", itemLabel(item))
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return utils.Storage(err)
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return utils.Storage(err)
		}

		for _, item := range items {
			if err := tx.Model(&model.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity)).Error; err != nil {
				return utils.Storage(err)
			}
		}

		order.Items = items
		return nil
	})
}

// GetWithItems gets an order with its items
func (r *orderRepository) GetWithItems(ctx context.Context, id uint64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("order not found")
		}
		return nil, utils.Storage(err)
	}
	return &order, nil
}

// ListByUser lists orders for a user, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return orders, nil
}

// ListAllPaginated lists all orders with user info and items for the admin
// audit log, optionally filtered by a search term across order id, username,
// email and product name.
func (r *orderRepository) ListAllPaginated(ctx context.Context, page, pageSize int, search string) ([]*OrderAudit, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	base := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Joins("LEFT JOIN users ON users.id = orders.user_id").
		Joins("LEFT JOIN order_items ON order_items.order_id = orders.id")

	if search != "" {
		like := "%" + search + "%"
		base = base.Where(
			"CAST(orders.id AS CHAR) LIKE ? OR users.username LIKE ? OR users.email LIKE ? OR order_items.product_name LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := base.Distinct("orders.id").Count(&total).Error; err != nil {
		return nil, 0, utils.Storage(err)
	}
	if total == 0 {
		return []*OrderAudit{}, 0, nil
	}

	var orders []*model.Order
	err := base.
		Distinct("orders.*").
		Preload("Items").
		Preload("User").
		Order("orders.created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, utils.Storage(err)
	}

	audits := make([]*OrderAudit, 0, len(orders))
	for _, o := range orders {
		audit := &OrderAudit{
			Order:         o,
			Username:      fmt.Sprintf("Deleted user #%d", o.UserID),
			Email:         "Unavailable",
			TotalQuantity: o.TotalQuantity(),
		}
		if o.User != nil {
			audit.Username = o.User.Username
			if o.User.Email != nil {
				audit.Email = *o.User.Email
			}
		}
		audits = append(audits, audit)
	}
	return audits, total, nil
}

// Count counts orders
func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&total).Error; err != nil {
		return 0, utils.Storage(err)
	}
	return total, nil
}

func itemLabel(item model.OrderItem) string {
	if item.ProductName != "" {
		return item.ProductName
	}
	return fmt.Sprintf("#%d", item.ProductID)
}
