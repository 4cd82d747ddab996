package handler

import (
	"time"

	"voucherbox/internal/adapter/http/dto"
	"voucherbox/internal/adapter/http/middleware"
	"voucherbox/internal/core/domain"
	"voucherbox/internal/core/ports"
	"voucherbox/pkg/apperror"
	"voucherbox/pkg/money"
	"voucherbox/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUserID extracts the authenticated user's ID from the gin context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a UUID path parameter, reporting the entity name on failure.
func pathUUID(c *gin.Context, param, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.Error(c, apperror.ErrNotFound(entity))
		return uuid.Nil, false
	}
	return id, true
}

// parseDate parses a date-only string ("2006-01-02") into UTC midnight.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dto.DateLayout, s)
}

// VoucherHandler handles voucher CRUD and sale listing endpoints.
type VoucherHandler struct {
	voucherSvc ports.VoucherService
	ledgerSvc  ports.LedgerService
}

// NewVoucherHandler creates a new VoucherHandler.
func NewVoucherHandler(voucherSvc ports.VoucherService, ledgerSvc ports.LedgerService) *VoucherHandler {
	return &VoucherHandler{voucherSvc: voucherSvc, ledgerSvc: ledgerSvc}
}

// Create handles POST /api/v1/vouchers.
func (h *VoucherHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	original, err := money.Parse(req.OriginalBalance)
	if err != nil {
		response.Error(c, apperror.Validation("original_balance: "+err.Error()))
		return
	}
	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		response.Error(c, apperror.Validation("expiry_date must be YYYY-MM-DD"))
		return
	}

	svcReq := ports.CreateVoucherRequest{
		UserID:          userID,
		Name:            req.Name,
		Notes:           req.Notes,
		OriginalBalance: original,
		ExpiryDate:      expiry,
	}
	if req.CategoryID != nil {
		catID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			response.Error(c, apperror.ErrNotFound("category"))
			return
		}
		svcReq.CategoryID = &catID
	}

	voucher, err := h.voucherSvc.CreateVoucher(c.Request.Context(), svcReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToVoucherResponse(voucher, time.Now().UTC()))
}

// List handles GET /api/v1/vouchers.
func (h *VoucherHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := ports.VoucherListParams{
		UserID:     userID,
		ActiveOnly: c.Query("active") == "true",
	}
	if cat := c.Query("category_id"); cat != "" {
		catID, err := uuid.Parse(cat)
		if err != nil {
			response.Error(c, apperror.ErrNotFound("category"))
			return
		}
		params.CategoryID = &catID
	}

	vouchers, err := h.voucherSvc.ListVouchers(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToVoucherResponses(vouchers, time.Now().UTC()))
}

// Get handles GET /api/v1/vouchers/:id.
func (h *VoucherHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	voucherID, ok := pathUUID(c, "id", "voucher")
	if !ok {
		return
	}

	voucher, err := h.voucherSvc.GetVoucher(c.Request.Context(), userID, voucherID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToVoucherResponse(voucher, time.Now().UTC()))
}

// Update handles PUT /api/v1/vouchers/:id.
func (h *VoucherHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	voucherID, ok := pathUUID(c, "id", "voucher")
	if !ok {
		return
	}

	var req dto.UpdateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	svcReq := ports.UpdateVoucherRequest{
		UserID:    userID,
		VoucherID: voucherID,
		Name:      req.Name,
		Notes:     req.Notes,
		IsActive:  req.IsActive,
	}
	if req.CategoryID != nil {
		catID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			response.Error(c, apperror.ErrNotFound("category"))
			return
		}
		svcReq.CategoryID = &catID
	}
	if req.ExpiryDate != nil {
		expiry, err := parseDate(*req.ExpiryDate)
		if err != nil {
			response.Error(c, apperror.Validation("expiry_date must be YYYY-MM-DD"))
			return
		}
		svcReq.ExpiryDate = &expiry
	}
	if req.Balance != nil {
		balance, err := money.Parse(*req.Balance)
		if err != nil {
			response.Error(c, apperror.Validation("balance: "+err.Error()))
			return
		}
		svcReq.Balance = &balance
	}

	voucher, err := h.voucherSvc.UpdateVoucher(c.Request.Context(), svcReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToVoucherResponse(voucher, time.Now().UTC()))
}

// Delete handles DELETE /api/v1/vouchers/:id.
//
// Deletion cascades to the voucher's transactions inside one transaction,
// so it goes through the ledger engine rather than plain CRUD.
func (h *VoucherHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	voucherID, ok := pathUUID(c, "id", "voucher")
	if !ok {
		return
	}

	if err := h.ledgerSvc.DeleteVoucher(c.Request.Context(), userID, voucherID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// OfferForSale handles POST /api/v1/vouchers/:id/sale.
func (h *VoucherHandler) OfferForSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	voucherID, ok := pathUUID(c, "id", "voucher")
	if !ok {
		return
	}

	var req dto.OfferForSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	price, err := money.Parse(req.SalePrice)
	if err != nil {
		response.Error(c, apperror.Validation("sale_price: "+err.Error()))
		return
	}

	voucher, err := h.ledgerSvc.OfferForSale(c.Request.Context(), ports.OfferForSaleRequest{
		UserID:    userID,
		VoucherID: voucherID,
		SalePrice: price,
		Contact:   domain.ContactInfo{Phone: req.ContactPhone, Email: req.ContactEmail},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToVoucherResponse(voucher, time.Now().UTC()))
}

// WithdrawFromSale handles DELETE /api/v1/vouchers/:id/sale.
func (h *VoucherHandler) WithdrawFromSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	voucherID, ok := pathUUID(c, "id", "voucher")
	if !ok {
		return
	}

	voucher, err := h.ledgerSvc.WithdrawFromSale(c.Request.Context(), userID, voucherID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToVoucherResponse(voucher, time.Now().UTC()))
}
