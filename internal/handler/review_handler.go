package handler

import (
	"github.com/gin-gonic/gin"

	"cardmarket/internal/middleware"
	"cardmarket/internal/service/review"
	"cardmarket/pkg/utils"
)

// ReviewHandler product review handler
type ReviewHandler struct {
	reviewService review.ReviewService
}

// NewReviewHandler creates a review handler
func NewReviewHandler(reviewService review.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

type addReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// Add adds a review for a product
func (h *ReviewHandler) Add(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	var userID *uint64
	if id, ok := middleware.GetUserID(c); ok {
		userID = &id
	}

	r, err := h.reviewService.Add(c.Request.Context(), productID, userID, req.Name, req.Rating, req.Comment)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, r)
}

// List lists reviews and stats for a product
func (h *ReviewHandler) List(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}
	reviews, err := h.reviewService.ListForProduct(c.Request.Context(), productID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, reviews)
}
