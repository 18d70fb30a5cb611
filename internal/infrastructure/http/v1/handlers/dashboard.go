package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"procura/internal/domain/dashboard"
	"procura/internal/infrastructure/http/v1/middleware"
)

// DashboardHandler serves the cached planner dashboard.
type DashboardHandler struct {
	*BaseHandler
	service *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(base *BaseHandler, service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetSummary handles GET /dashboard/summary
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTopSuppliers handles GET /dashboard/top-suppliers
func (h *DashboardHandler) GetTopSuppliers(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 5)

	suppliers, err := h.service.GetTopSuppliers(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": suppliers})
}

// GetMonthlyVolume handles GET /dashboard/monthly-volume
func (h *DashboardHandler) GetMonthlyVolume(c *gin.Context) {
	months := h.ParseIntQuery(c, "months", 6)

	points, err := h.service.GetMonthlyVolume(c.Request.Context(), months)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": points})
}

// RegisterRoutes registers dashboard routes.
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary", middleware.RequirePermission("dashboard:read"), h.GetSummary)
	rg.GET("/top-suppliers", middleware.RequirePermission("dashboard:read"), h.GetTopSuppliers)
	rg.GET("/monthly-volume", middleware.RequirePermission("dashboard:read"), h.GetMonthlyVolume)
}
