package handler

import (
	"strconv"

	"voucherbox/internal/adapter/http/dto"
	"voucherbox/internal/core/ports"
	"voucherbox/pkg/response"

	"github.com/gin-gonic/gin"
)

// DashboardHandler handles dashboard statistics and activity feed endpoints.
type DashboardHandler struct {
	reportingSvc ports.ReportingService
	activitySvc  ports.ActivityService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(reportingSvc ports.ReportingService, activitySvc ports.ActivityService) *DashboardHandler {
	return &DashboardHandler{reportingSvc: reportingSvc, activitySvc: activitySvc}
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.reportingSvc.GetDashboardStats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, stats)
}

// ListActivity handles GET /api/v1/activity.
func (h *DashboardHandler) ListActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	entries, err := h.activitySvc.List(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToActivityResponses(entries))
}
