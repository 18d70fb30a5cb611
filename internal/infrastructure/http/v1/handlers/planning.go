package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain/planning"
	"procura/internal/infrastructure/http/v1/dto"
)

// PlanningHandler handles distribution over customer orders: preview,
// execution, plan lookup and dispatch to suppliers.
type PlanningHandler struct {
	*BaseHandler
	service *planning.Service
}

// NewPlanningHandler creates a new planning handler.
func NewPlanningHandler(base *BaseHandler, service *planning.Service) *PlanningHandler {
	return &PlanningHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Preview handles POST /customer-orders/:id/distribution/preview.
// Runs the algorithm against live capability snapshots without
// persisting anything.
func (h *PlanningHandler) Preview(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var params planning.Params
	if !h.BindJSON(c, &params) {
		return
	}

	result, err := h.service.Preview(ctx, orderID, params)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Execute handles POST /customer-orders/:id/distribution.
// Persists the plan, creates purchase orders and books capacity
// commitments in one transaction.
func (h *PlanningHandler) Execute(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var params planning.Params
	if !h.BindJSON(c, &params) {
		return
	}

	result, err := h.service.Execute(ctx, orderID, params)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", result)
	c.JSON(http.StatusCreated, result)
}

// GetPlan handles GET /distribution-plans/:id.
func (h *PlanningHandler) GetPlan(c *gin.Context) {
	ctx := c.Request.Context()

	planID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	plan, err := h.service.GetPlan(ctx, planID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// ListPlans handles GET /distribution-plans?orderId=...
func (h *PlanningHandler) ListPlans(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Query("orderId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("orderId query parameter is required").
			WithDetail("field", "orderId"))
		return
	}

	plans, err := h.service.ListPlans(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": plans})
}

// SendAll handles POST /customer-orders/:id/send-all.
// Sends every still unsent purchase order of the order.
func (h *PlanningHandler) SendAll(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	sent, err := h.service.SendAll(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.PurchaseOrderResponse, len(sent))
	for i, po := range sent {
		items[i] = dto.FromPurchaseOrder(po)
	}

	response := gin.H{"items": items, "sent": len(items)}
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}
