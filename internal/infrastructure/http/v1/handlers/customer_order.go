package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain"
	"procura/internal/domain/documents/customer_order"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/planning"
	"procura/internal/domain/status"
	"procura/internal/infrastructure/http/v1/dto"
	"procura/internal/infrastructure/http/v1/middleware"
)

// CustomerOrderHandler handles HTTP requests for CustomerOrder documents.
// Cancellation goes through the planning service because it releases
// the linked purchase orders and their capacity commitments.
type CustomerOrderHandler struct {
	*BaseDocumentHandler[*customer_order.CustomerOrder, dto.CreateCustomerOrderRequest, dto.UpdateCustomerOrderRequest]
	service *customer_order.Service
	pos     *purchase_order.Service
	planner *planning.Service
}

// NewCustomerOrderHandler creates a new customer order handler.
func NewCustomerOrderHandler(
	base *BaseHandler,
	service *customer_order.Service,
	pos *purchase_order.Service,
	planner *planning.Service,
) *CustomerOrderHandler {
	cfg := BaseDocumentHandlerConfig[*customer_order.CustomerOrder, dto.CreateCustomerOrderRequest, dto.UpdateCustomerOrderRequest]{
		Service:    service,
		EntityName: "customer-order",
		MapCreateDTO: func(req dto.CreateCustomerOrderRequest) *customer_order.CustomerOrder {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateCustomerOrderRequest, existing *customer_order.CustomerOrder) *customer_order.CustomerOrder {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(entity *customer_order.CustomerOrder) any {
			return dto.FromCustomerOrder(entity)
		},
	}

	return &CustomerOrderHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, cfg),
		service:             service,
		pos:                 pos,
		planner:             planner,
	}
}

// List handles GET /customer-orders. Customer users only ever see
// their own orders, the service forces the binding.
func (h *CustomerOrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := customer_order.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if customerID := c.Query("customerId"); customerID != "" {
		parsed, err := id.Parse(customerID)
		if err == nil {
			filter.CustomerID = &parsed
		}
	}

	if st := c.Query("status"); st != "" {
		val := status.CustomerOrderStatus(st)
		filter.Status = &val
	}

	if priority := c.Query("priority"); priority != "" {
		val := customer_order.Priority(priority)
		filter.Priority = &val
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

	items := make([]*dto.CustomerOrderResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromCustomerOrder(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Transition handles POST /customer-orders/:id/transition.
// A cancelled target is dispatched to the cancel flow so the linked
// purchase orders get released.
func (h *CustomerOrderHandler) Transition(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.TransitionOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	target := status.CustomerOrderStatus(req.Target)
	if target == status.OrderCancelled {
		h.cancel(c, docID, req.Reason, req.Force)
		return
	}

	doc, err := h.service.Transition(ctx, docID, target, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCustomerOrder(doc))
}

// Cancel handles POST /customer-orders/:id/cancel.
func (h *CustomerOrderHandler) Cancel(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.CancelOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	h.cancel(c, docID, req.Reason, req.Force)
}

func (h *CustomerOrderHandler) cancel(c *gin.Context, docID id.ID, reason string, force bool) {
	ctx := c.Request.Context()

	if err := h.planner.CancelOrder(ctx, docID, reason, force); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCustomerOrder(doc))
}

// Complete handles POST /customer-orders/:id/complete.
func (h *CustomerOrderHandler) Complete(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.Complete(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCustomerOrder(doc))
}

// ListPurchaseOrders handles GET /customer-orders/:id/purchase-orders.
func (h *CustomerOrderHandler) ListPurchaseOrders(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	// Access check rides on the order load
	if _, err := h.service.GetByID(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	pos, err := h.pos.ListByOrder(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.PurchaseOrderResponse, len(pos))
	for i, po := range pos {
		items[i] = dto.FromPurchaseOrder(po)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RegisterRoutes registers customer order routes.
// Cancel and complete share the transition permission, they are
// lifecycle moves with dedicated endpoints.
func (h *CustomerOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", middleware.RequirePermission("document:customer_order:read"), h.List)
	rg.POST("", middleware.RequirePermission("document:customer_order:create"), h.Create)
	rg.GET("/:id", middleware.RequirePermission("document:customer_order:read"), h.Get)
	rg.PUT("/:id", middleware.RequirePermission("document:customer_order:update"), h.Update)
	rg.DELETE("/:id", middleware.RequirePermission("document:customer_order:delete"), h.Delete)
	rg.POST("/:id/transition", middleware.RequirePermission("document:customer_order:transition"), h.Transition)
	rg.POST("/:id/cancel", middleware.RequirePermission("document:customer_order:transition"), h.Cancel)
	rg.POST("/:id/complete", middleware.RequirePermission("document:customer_order:transition"), h.Complete)
	rg.GET("/:id/purchase-orders", middleware.RequirePermission("document:purchase_order:read"), h.ListPurchaseOrders)
}
