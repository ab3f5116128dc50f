package handler

import (
	"github.com/gin-gonic/gin"

	"cardmarket/internal/repository"
	"cardmarket/pkg/utils"
)

// DashboardHandler admin dashboard stats handler
type DashboardHandler struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	tradeRepo   repository.TradeRepository
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	tradeRepo repository.TradeRepository,
) *DashboardHandler {
	return &DashboardHandler{
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		tradeRepo:   tradeRepo,
	}
}

// Stats returns storefront-wide counters
func (h *DashboardHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.userRepo.Count(ctx)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	products, err := h.productRepo.Count(ctx)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	orders, err := h.orderRepo.Count(ctx)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	trades, err := h.tradeRepo.Count(ctx)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"users":    users,
		"products": products,
		"orders":   orders,
		"trades":   trades,
	})
}

// Users lists all users (admin)
func (h *DashboardHandler) Users(c *gin.Context) {
	users, err := h.userRepo.List(c.Request.Context())
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, users)
}
