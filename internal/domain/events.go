package domain

import (
	"context"

	"procura/internal/core/id"
)

// Event types raised by the procurement workflow. The notification
// dispatcher resolves recipients and templates per type.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
	EventPlanExecuted       = "plan.executed"
	EventPOCreated          = "po.created"
	EventPOSent             = "po.sent"
	EventPOConfirmed        = "po.confirmed"
	EventPORejected         = "po.rejected"
	EventPOCancelled        = "po.cancelled"
)

// Event is a domain event published through the transactional outbox.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// EventPublisher publishes events inside the ambient transaction.
// The outbox implementation guarantees at-least-once delivery to the
// notification dispatcher.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	PublishBatch(ctx context.Context, events []Event) error
}

// OrderEventPayload describes a customer order event.
type OrderEventPayload struct {
	OrderID    string `json:"orderId"`
	Number     string `json:"number"`
	CustomerID string `json:"customerId"`
	Status     string `json:"status"`
	OldStatus  string `json:"oldStatus,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// PurchaseOrderEventPayload describes a purchase order event.
type PurchaseOrderEventPayload struct {
	PurchaseOrderID string `json:"purchaseOrderId"`
	Number          string `json:"number"`
	SupplierID      string `json:"supplierId"`
	OrderID         string `json:"orderId"`
	OrderNumber     string `json:"orderNumber,omitempty"`
	Status          string `json:"status"`
	RequiredDate    string `json:"requiredDate,omitempty"`
	ConfirmedDate   string `json:"confirmedDate,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// PlanEventPayload describes an executed distribution plan.
type PlanEventPayload struct {
	PlanID      string `json:"planId"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Strategy    string `json:"strategy"`
	Allocations int    `json:"allocations"`
	Sent        bool   `json:"sent"`
}
