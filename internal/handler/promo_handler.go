package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"cardmarket/internal/model"
	"cardmarket/internal/monitor"
	"cardmarket/internal/service/promo"
	"cardmarket/pkg/utils"
)

// PromoHandler promo code validation handler
type PromoHandler struct {
	promoService promo.PromoService
	metrics      *monitor.MetricsCollector
}

// NewPromoHandler creates a promo handler
func NewPromoHandler(promoService promo.PromoService, metrics *monitor.MetricsCollector) *PromoHandler {
	return &PromoHandler{promoService: promoService, metrics: metrics}
}

type validatePromoRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// Validate checks a promo code against a subtotal. An unknown or inapplicable
// code is a successful response with no promo, not an error.
func (h *PromoHandler) Validate(c *gin.Context) {
	var req validatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	applied, err := h.promoService.Validate(c.Request.Context(), req.Code, req.Subtotal)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordPromoValidation("error")
		}
		utils.ErrorFromErr(c, err)
		return
	}

	if applied == nil {
		if h.metrics != nil {
			h.metrics.RecordPromoValidation("rejected")
		}
		utils.SuccessResponse(c, gin.H{"valid": false})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPromoValidation("applied")
	}
	utils.SuccessResponse(c, gin.H{
		"valid": true,
		"promo": applied,
	})
}

type createPromoRequest struct {
	Code          string     `json:"code" binding:"required"`
	DiscountType  string     `json:"discount_type" binding:"required"`
	DiscountValue float64    `json:"discount_value" binding:"required"`
	MaxDiscount   *float64   `json:"max_discount"`
	MinSubtotal   *float64   `json:"min_subtotal"`
	ExpiresAt     *time.Time `json:"expires_at"`
	Active        *bool      `json:"active"`
}

// Create stores a new promo code (admin)
func (h *PromoHandler) Create(c *gin.Context) {
	var req createPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	created, err := h.promoService.Create(c.Request.Context(), &model.PromoCode{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MaxDiscount:   req.MaxDiscount,
		MinSubtotal:   req.MinSubtotal,
		ExpiresAt:     req.ExpiresAt,
		Active:        active,
	})
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, created)
}
