package handler

import (
	"voucherbox/internal/adapter/http/dto"
	"voucherbox/internal/core/ports"
	"voucherbox/pkg/apperror"
	"voucherbox/pkg/response"

	"github.com/gin-gonic/gin"
)

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	voucherSvc ports.VoucherService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(voucherSvc ports.VoucherService) *CategoryHandler {
	return &CategoryHandler{voucherSvc: voucherSvc}
}

// Create handles POST /api/v1/categories.
func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	category, err := h.voucherSvc.CreateCategory(c.Request.Context(), userID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToCategoryResponse(category))
}

// List handles GET /api/v1/categories.
func (h *CategoryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	categories, err := h.voucherSvc.ListCategories(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, dto.ToCategoryResponse(&categories[i]))
	}
	response.OK(c, out)
}

// Delete handles DELETE /api/v1/categories/:id.
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	categoryID, ok := pathUUID(c, "id", "category")
	if !ok {
		return
	}

	if err := h.voucherSvc.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}
