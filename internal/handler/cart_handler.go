package handler

import (
	"github.com/gin-gonic/gin"

	"cardmarket/internal/middleware"
	"cardmarket/internal/model"
	"cardmarket/internal/service/cart"
	"cardmarket/internal/service/pricing"
	"cardmarket/pkg/utils"
)

// CartHandler session cart handler
type CartHandler struct {
	cartService cart.CartService
}

// NewCartHandler creates a cart handler
func NewCartHandler(cartService cart.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type cartItemRequest struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// cartView the cart plus its running subtotal
func cartView(c *gin.Context, items model.Cart) {
	utils.SuccessResponse(c, gin.H{
		"items":    items,
		"subtotal": items.Subtotal(),
	})
}

// Get returns the user's cart
func (h *CartHandler) Get(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	items, err := h.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	cartView(c, items)
}

// Add adds a product to the cart
func (h *CartHandler) Add(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	items, err := h.cartService.Add(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	cartView(c, items)
}

// SetQuantity replaces the quantity of a cart line
func (h *CartHandler) SetQuantity(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	productID, ok := parseID(c, "product_id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}
	items, err := h.cartService.SetQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	cartView(c, items)
}

// Remove drops a cart line
func (h *CartHandler) Remove(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	productID, ok := parseID(c, "product_id")
	if !ok {
		return
	}
	items, err := h.cartService.Remove(c.Request.Context(), userID, productID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	cartView(c, items)
}

// Clear empties the cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	if err := h.cartService.Clear(c.Request.Context(), userID); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessMessageResponse(c, "cart cleared", nil)
}

// Estimate prices the current cart without placing an order
func (h *CartHandler) Estimate(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	items, err := h.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	breakdown := pricing.Compute(pricing.FromCart(items), 0)
	utils.SuccessResponse(c, breakdown)
}
