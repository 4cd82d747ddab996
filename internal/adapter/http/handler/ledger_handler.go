package handler

import (
	"time"

	"voucherbox/internal/adapter/http/dto"
	"voucherbox/internal/core/ports"
	"voucherbox/pkg/apperror"
	"voucherbox/pkg/money"
	"voucherbox/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler handles transaction (ledger entry) endpoints.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// parseSpendAmount parses a positive decimal spend amount from the request.
func parseSpendAmount(s string) (int64, error) {
	amount, err := money.Parse(s)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}
	return amount, nil
}

// parsePurchaseDate parses an optional date-only purchase date.
func parsePurchaseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// RecordPurchase handles POST /api/v1/vouchers/:id/transactions.
func (h *LedgerHandler) RecordPurchase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	voucherID, ok := pathUUID(c, "id", "voucher")
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := parseSpendAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	purchaseDate, err := parsePurchaseDate(req.PurchaseDate)
	if err != nil {
		response.Error(c, apperror.Validation("purchase_date must be YYYY-MM-DD"))
		return
	}

	voucher, tx, err := h.ledgerSvc.RecordPurchase(c.Request.Context(), ports.RecordPurchaseRequest{
		UserID:       userID,
		VoucherID:    voucherID,
		Amount:       amount,
		Description:  req.Description,
		PurchaseDate: purchaseDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"voucher":     dto.ToVoucherResponse(voucher, time.Now().UTC()),
		"transaction": dto.ToTransactionResponse(tx),
	})
}

// ListTransactions handles GET /api/v1/vouchers/:id/transactions.
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	voucherID, ok := pathUUID(c, "id", "voucher")
	if !ok {
		return
	}

	txs, err := h.ledgerSvc.ListTransactions(c.Request.Context(), userID, voucherID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionResponses(txs))
}

// EditTransaction handles PUT /api/v1/transactions/:id.
func (h *LedgerHandler) EditTransaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	txID, ok := pathUUID(c, "id", "transaction")
	if !ok {
		return
	}

	var req dto.EditTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := parseSpendAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	purchaseDate, err := parsePurchaseDate(req.PurchaseDate)
	if err != nil {
		response.Error(c, apperror.Validation("purchase_date must be YYYY-MM-DD"))
		return
	}

	voucher, tx, err := h.ledgerSvc.EditTransaction(c.Request.Context(), ports.EditTransactionRequest{
		UserID:        userID,
		TransactionID: txID,
		Amount:        amount,
		Description:   req.Description,
		PurchaseDate:  purchaseDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"voucher":     dto.ToVoucherResponse(voucher, time.Now().UTC()),
		"transaction": dto.ToTransactionResponse(tx),
	})
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id.
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	txID, ok := pathUUID(c, "id", "transaction")
	if !ok {
		return
	}

	voucher, err := h.ledgerSvc.DeleteTransaction(c.Request.Context(), userID, txID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"deleted": true,
		"voucher": dto.ToVoucherResponse(voucher, time.Now().UTC()),
	})
}
