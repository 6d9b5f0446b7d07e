// internal/handlers/approval.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vendorhub/marketplace-backend/internal/i18n"
	"github.com/vendorhub/marketplace-backend/internal/services"
	"github.com/vendorhub/marketplace-backend/internal/utils"
)

type ApprovalHandler struct {
	approvalService *services.ApprovalService
}

func NewApprovalHandler(approvalService *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
	}
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,rejection_reason"`
}

type bulkApproveRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" validate:"required,min=1"`
}

// GET /admin/products/pending
func (h *ApprovalHandler) GetPendingProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	products, total, err := h.approvalService.ListPending(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/products/:id/approve
func (h *ApprovalHandler) ApproveProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	adminID, ok := actorID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	product, err := h.approvalService.Approve(productID, adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyProductApproved),
		"product":   product,
		"vendor_id": product.VendorID,
	})
}

// POST /admin/products/:id/reject
func (h *ApprovalHandler) RejectProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	adminID, ok := actorID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.approvalService.Reject(productID, adminID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductRejected),
		"product": product,
	})
}

// POST /admin/products/bulk-approve
func (h *ApprovalHandler) BulkApproveProducts(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := actorID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req bulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.approvalService.BulkApprove(req.ProductIDs, adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":        i18n.T(lang, i18n.KeyProductBulkApproved),
		"approved_count": result.ApprovedCount,
		"products":       result.Products,
		"outcomes":       result.Outcomes,
	})
}

func actorID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
