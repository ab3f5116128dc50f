package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"cardmarket/internal/middleware"
	"cardmarket/internal/monitor"
	"cardmarket/internal/service/cart"
	"cardmarket/internal/service/order"
	"cardmarket/pkg/utils"
)

// OrderHandler checkout and order history handler
type OrderHandler struct {
	orderService order.OrderService
	cartService  cart.CartService
	metrics      *monitor.MetricsCollector
}

// NewOrderHandler creates an order handler
func NewOrderHandler(orderService order.OrderService, cartService cart.CartService, metrics *monitor.MetricsCollector) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		cartService:  cartService,
		metrics:      metrics,
	}
}

type checkoutRequest struct {
	Items     []order.CheckoutItem `json:"items"`
	PromoCode string               `json:"promo_code"`
	Address   *string              `json:"address"`
}

// Checkout places an order from the submitted items. With no items in the
// body, the user's cart is used and cleared on success.
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	fromCart := len(req.Items) == 0
	if fromCart {
		items, err := h.cartService.Get(c.Request.Context(), userID)
		if err != nil {
			utils.ErrorFromErr(c, err)
			return
		}
		for _, item := range items {
			req.Items = append(req.Items, order.CheckoutItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
	}

	placed, err := h.orderService.Checkout(c.Request.Context(), userID, order.CheckoutInput{
		Items:     req.Items,
		PromoCode: req.PromoCode,
		Address:   req.Address,
	})
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordOrderPlaced(false, 0)
		}
		utils.ErrorFromErr(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordOrderPlaced(true, placed.Breakdown.Total)
	}

	if fromCart {
		if err := h.cartService.Clear(c.Request.Context(), userID); err != nil {
			// The order already exists; a stale cart is not worth failing over.
			utils.SuccessResponse(c, placed)
			return
		}
	}
	utils.SuccessResponse(c, placed)
}

// Get gets one order with its price breakdown
func (h *OrderHandler) Get(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	ord, breakdown, err := h.orderService.Get(c.Request.Context(), userID, middleware.IsAdmin(c), orderID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"order":     ord,
		"breakdown": breakdown,
	})
}

// ListMine lists the user's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	orders, err := h.orderService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, orders)
}

// Audit lists all orders for the admin audit log
func (h *OrderHandler) Audit(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	search := c.Query("search")

	audits, total, err := h.orderService.Audit(c.Request.Context(), page, pageSize, search)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessPageResponse(c, audits, total, page, pageSize)
}
