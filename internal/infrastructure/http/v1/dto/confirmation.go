package dto

import (
	"procura/internal/domain/confirmation"
)

// --- Request DTOs ---

// RejectPurchaseOrderRequest is the supplier's rejection with a reason.
type RejectPurchaseOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// UpdatePortalItemsRequest adjusts confirmed quantities and dates on an
// already confirmed purchase order.
type UpdatePortalItemsRequest struct {
	Items []confirmation.ItemConfirmation `json:"items" binding:"required,min=1"`
}

// UpdateProgressRequest moves a confirmed purchase order along the
// production chain (in_production, quality_check, ready_for_shipment,
// shipped, delivered).
type UpdateProgressRequest struct {
	Target string `json:"target" binding:"required"`
}
