package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"cardmarket/internal/service/catalog"
	"cardmarket/pkg/utils"
)

// ProductHandler catalog handler
type ProductHandler struct {
	catalogService catalog.CatalogService
}

// NewProductHandler creates a product handler
func NewProductHandler(catalogService catalog.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "Invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

// List lists all products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalogService.List(c.Request.Context())
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}

// Get gets one product
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.Get(c.Request.Context(), id)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// Create creates a product (admin)
func (h *ProductHandler) Create(c *gin.Context) {
	var input catalog.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}
	product, err := h.catalogService.Create(c.Request.Context(), input)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// Update updates a product (admin)
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input catalog.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}
	product, err := h.catalogService.Update(c.Request.Context(), id, input)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// Delete deletes a product (admin)
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.Delete(c.Request.Context(), id); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessMessageResponse(c, "product deleted", nil)
}
