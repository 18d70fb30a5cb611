package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/planning"
	"procura/internal/domain/status"
	"procura/internal/infrastructure/http/v1/dto"
	"procura/internal/infrastructure/http/v1/middleware"
)

// PurchaseOrderHandler handles HTTP requests for PurchaseOrder documents.
// Purchase orders are created by the distribution algorithm, never by
// hand, so there is no create or update endpoint. Cancellation goes
// through the planning service because it releases capacity commitments.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchase_order.Service
	planner *planning.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchase_order.Service, planner *planning.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		BaseHandler: base,
		service:     service,
		planner:     planner,
	}
}

// List handles GET /purchase-orders. Supplier-bound users only see
// their own orders, the service forces the binding.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := purchase_order.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if orderID := c.Query("orderId"); orderID != "" {
		parsed, err := id.Parse(orderID)
		if err == nil {
			filter.OrderID = &parsed
		}
	}

	if supplierID := c.Query("supplierId"); supplierID != "" {
		parsed, err := id.Parse(supplierID)
		if err == nil {
			filter.SupplierID = &parsed
		}
	}

	if st := c.Query("status"); st != "" {
		val := status.PurchaseOrderStatus(st)
		filter.Status = &val
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.PurchaseOrderResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromPurchaseOrder(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromPurchaseOrder(doc))
}

// Cancel handles POST /purchase-orders/:id/cancel.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.CancelPurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.planner.CancelPurchaseOrder(ctx, docID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(doc))
}

// Send handles POST /purchase-orders/:id/send.
func (h *PurchaseOrderHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.planner.SendToSupplier(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(doc))
}

// RegisterRoutes registers purchase order routes.
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", middleware.RequirePermission("document:purchase_order:read"), h.List)
	rg.GET("/:id", middleware.RequirePermission("document:purchase_order:read"), h.Get)
	rg.POST("/:id/cancel", middleware.RequirePermission("document:purchase_order:cancel"), h.Cancel)
	rg.POST("/:id/send", middleware.RequirePermission("document:purchase_order:send"), h.Send)
}
