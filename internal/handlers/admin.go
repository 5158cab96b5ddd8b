// internal/handlers/admin.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/keygen-bridge/internal/services"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

type AdminHandler struct {
	adminService AdminReports
}

func NewAdminHandler(adminService AdminReports) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetOffsetParams(c)

	filter := services.AuditLogFilter{
		ActorID:      c.Query("actor_id"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Limit:        params.Limit,
		Offset:       params.Offset,
	}

	if since := c.Query("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = &t
		} else if hours, err := strconv.Atoi(since); err == nil && hours > 0 {
			t := time.Now().Add(-time.Duration(hours) * time.Hour)
			filter.Since = &t
		}
	}

	logs, total, err := h.adminService.ListAuditLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = len(logs)
	}
	utils.OffsetResponse(c, logs, utils.OffsetResult{Count: total, Limit: limit, Offset: filter.Offset})
}
