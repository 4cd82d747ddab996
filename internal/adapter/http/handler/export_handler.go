package handler

import (
	"net/http"

	"voucherbox/internal/core/ports"
	"voucherbox/pkg/response"

	"github.com/gin-gonic/gin"
)

// ExportHandler serves CSV exports of user data.
type ExportHandler struct {
	exportSvc ports.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportSvc ports.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportVouchers handles GET /api/v1/export/vouchers.
func (h *ExportHandler) ExportVouchers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	csvData, err := h.exportSvc.ExportVouchers(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="vouchers.csv"`)
	c.Data(http.StatusOK, "text/csv", csvData)
}

// ExportTransactions handles GET /api/v1/export/vouchers/:id/transactions.
func (h *ExportHandler) ExportTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	voucherID, ok := pathUUID(c, "id", "voucher")
	if !ok {
		return
	}

	csvData, err := h.exportSvc.ExportTransactions(c.Request.Context(), userID, voucherID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)
	c.Data(http.StatusOK, "text/csv", csvData)
}
