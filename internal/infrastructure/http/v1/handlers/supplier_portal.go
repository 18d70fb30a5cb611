package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain"
	"procura/internal/domain/confirmation"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/status"
	"procura/internal/infrastructure/http/v1/dto"
)

// SupplierPortalHandler is the confirmation surface suppliers work
// with: open orders, confirm, reject, item adjustments and production
// progress. Every operation is scoped to the supplier bound to the
// session.
type SupplierPortalHandler struct {
	*BaseHandler
	service *confirmation.Service
}

// NewSupplierPortalHandler creates a new supplier portal handler.
func NewSupplierPortalHandler(base *BaseHandler, service *confirmation.Service) *SupplierPortalHandler {
	return &SupplierPortalHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ListOrders handles GET /supplier-portal/orders.
// Without a status filter only orders awaiting supplier action show up.
func (h *SupplierPortalHandler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()

	filter := purchase_order.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "required_date")

	if st := c.Query("status"); st != "" {
		val := status.PurchaseOrderStatus(st)
		filter.Status = &val
	}

	result, err := h.service.ListOpen(ctx, filter)
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

// Confirm handles POST /supplier-portal/orders/:id/confirm.
func (h *SupplierPortalHandler) Confirm(c *gin.Context) {
	ctx := c.Request.Context()

	poID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var params confirmation.ConfirmParams
	if !h.BindJSON(c, &params) {
		return
	}

	result, err := h.service.Confirm(ctx, poID, params)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"purchaseOrder": dto.FromPurchaseOrder(result.PurchaseOrder),
		"late":          result.Late,
	})
}

// Reject handles POST /supplier-portal/orders/:id/reject.
func (h *SupplierPortalHandler) Reject(c *gin.Context) {
	ctx := c.Request.Context()

	poID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.RejectPurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Reject(ctx, poID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(doc))
}

// UpdateItems handles PUT /supplier-portal/orders/:id/items.
func (h *SupplierPortalHandler) UpdateItems(c *gin.Context) {
	ctx := c.Request.Context()

	poID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdatePortalItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.UpdateItems(ctx, poID, req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(doc))
}

// UpdateProgress handles POST /supplier-portal/orders/:id/progress.
func (h *SupplierPortalHandler) UpdateProgress(c *gin.Context) {
	ctx := c.Request.Context()

	poID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateProgressRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.UpdateProgress(ctx, poID, status.PurchaseOrderStatus(req.Target))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(doc))
}

// RegisterRoutes registers supplier portal routes.
func (h *SupplierPortalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders", h.ListOrders)
	rg.POST("/orders/:id/confirm", h.Confirm)
	rg.POST("/orders/:id/reject", h.Reject)
	rg.PUT("/orders/:id/items", h.UpdateItems)
	rg.POST("/orders/:id/progress", h.UpdateProgress)
}
