package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"procura/internal/core/apperror"
	"procura/internal/domain/reports"
	"procura/internal/infrastructure/export"
	"procura/internal/infrastructure/http/v1/dto"
	"procura/internal/infrastructure/http/v1/middleware"
)

// ReportsHandler handles HTTP requests for reports. Every report
// renders as JSON by default and as a CSV or XLSX download with
// ?format=csv|xlsx.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// tabler is any report that can render itself as an export table.
type tabler interface {
	Table() reports.Table
}

// respond sends the report as JSON or as a download per the format.
func (h *ReportsHandler) respond(c *gin.Context, format string, report tabler) {
	switch format {
	case "":
		c.JSON(http.StatusOK, report)
	case export.FormatCSV:
		if err := export.WriteCSV(c.Writer, report.Table()); err != nil {
			h.Error(c, err)
		}
	case export.FormatXLSX:
		if err := export.WriteExcel(c.Writer, report.Table()); err != nil {
			h.Error(c, err)
		}
	default:
		h.Error(c, apperror.NewValidation("unknown format, expected csv or xlsx").
			WithDetail("field", "format").
			WithDetail("value", format))
	}
}

// GetSupplierPerformance handles GET /reports/supplier-performance
func (h *ReportsHandler) GetSupplierPerformance(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SupplierPerformanceRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.SupplierPerformance(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respond(c, req.Format, report)
}

// GetOrderVolume handles GET /reports/order-volume
func (h *ReportsHandler) GetOrderVolume(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OrderVolumeRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.OrderVolume(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respond(c, req.Format, report)
}

// GetCapacityUtilization handles GET /reports/capacity-utilization
func (h *ReportsHandler) GetCapacityUtilization(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CapacityUtilizationRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.CapacityUtilization(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respond(c, req.Format, report)
}

// GetOrderJournal handles GET /reports/order-journal
func (h *ReportsHandler) GetOrderJournal(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OrderJournalRequest
	if !h.BindQuery(c, &req) {
		return
	}

	report, err := h.service.OrderJournal(ctx, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// RegisterRoutes registers report routes.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/supplier-performance", middleware.RequirePermission("report:procurement:read"), h.GetSupplierPerformance)
	rg.GET("/order-volume", middleware.RequirePermission("report:procurement:read"), h.GetOrderVolume)
	rg.GET("/capacity-utilization", middleware.RequirePermission("report:procurement:read"), h.GetCapacityUtilization)
	rg.GET("/order-journal", middleware.RequirePermission("report:journal:read"), h.GetOrderJournal)
}
