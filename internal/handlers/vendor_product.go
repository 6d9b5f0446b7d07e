// internal/handlers/vendor_product.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vendorhub/marketplace-backend/internal/i18n"
	"github.com/vendorhub/marketplace-backend/internal/models"
	"github.com/vendorhub/marketplace-backend/internal/services"
	"github.com/vendorhub/marketplace-backend/internal/utils"
)

type VendorProductHandler struct {
	productService *services.VendorProductService
}

func NewVendorProductHandler(productService *services.VendorProductService) *VendorProductHandler {
	return &VendorProductHandler{
		productService: productService,
	}
}

// GET /vendor/products
func (h *VendorProductHandler) GetProducts(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.List(vendorID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /vendor/products/:id
func (h *VendorProductHandler) GetProduct(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.Get(productID, vendorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// POST /vendor/products
func (h *VendorProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.Create(vendorID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyProductCreated),
		"product":    product,
		"status":     product.Status,
		"next_steps": nextSteps(product.Status),
	})
}

// PUT /vendor/products/:id
func (h *VendorProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var patch services.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&patch)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, statusChange, err := h.productService.Update(productID, vendorID, &patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyProductUpdated),
		"product":       product,
		"status_change": statusChange,
	})
}

// POST /vendor/products/:id/submit-for-approval
func (h *VendorProductHandler) SubmitForApproval(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.SubmitForApproval(productID, vendorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductSubmitted),
		"product": product,
	})
}

// POST /vendor/products/:id/duplicate
func (h *VendorProductHandler) DuplicateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.Duplicate(productID, vendorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDuplicated),
		"product": product,
	})
}

// DELETE /vendor/products/:id
func (h *VendorProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	if err := h.productService.Delete(productID, vendorID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}

// GET /vendor/products/stats
func (h *VendorProductHandler) GetProductStats(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	stats, err := h.productService.Stats(vendorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats":  stats.Stats,
		"vendor": stats.Vendor,
		"limits": stats.Limits,
	})
}

func vendorIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	vendorIDStr, exists := utils.GetVendorIDFromContext(c)
	if !exists {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(vendorIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func nextSteps(status models.ProductStatus) string {
	switch status {
	case models.ProductStatusDraft:
		return "Submit the product for approval when it is ready to go live."
	case models.ProductStatusPending:
		return "The product is awaiting admin review."
	case models.ProductStatusApproved:
		return "The product is live."
	default:
		return ""
	}
}
